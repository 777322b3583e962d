package upack

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"matport/pkg/diag"
)

// Non-texture content above this size is not retained; material and meta
// definitions are a few KiB, anything bigger without a texture extension is
// a stray blob.
const maxContentSize = 4 << 20

// One identifier group collected from the bundle. The bundle makes no
// ordering guarantee, so groups are collected completely before being
// resolved.
type group struct {
	pathname []byte
	asset    []byte
	hasAsset bool
}

// FromFile extracts the bundle at the given path.
func FromFile(path string, sink *diag.Sink) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ExtractionError{Reason: "could not open bundle", Err: err}
	}
	defer file.Close()

	return Extract(file, sink)
}

// Extract reads a bundle and builds its Index. The bundle is a tar stream,
// usually gzip-compressed; both forms are accepted. Entries group under an
// identifier directory and supply a "pathname" entry (first line is the
// declared relative path) and an "asset" entry (raw content). Groups lacking
// a pathname are skipped with a diagnostic.
func Extract(r io.Reader, sink *diag.Sink) (*Index, error) {
	buffered := bufio.NewReader(r)

	magic, err := buffered.Peek(2)
	if err != nil {
		return nil, &ExtractionError{Reason: "could not read bundle header", Err: err}
	}

	var stream io.Reader = buffered
	if magic[0] == 0x1f && magic[1] == 0x8b {
		unzipped, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, &ExtractionError{Reason: "could not decompress bundle", Err: err}
		}
		defer unzipped.Close()
		stream = unzipped
	}

	groups, err := collectGroups(stream)
	if err != nil {
		return nil, err
	}

	return resolveGroups(groups, sink)
}

func collectGroups(stream io.Reader) (map[string]*group, error) {
	groups := make(map[string]*group)

	archive := tar.NewReader(stream)
	for {
		header, err := archive.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ExtractionError{Reason: "corrupt bundle", Err: err}
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		id, entry, ok := splitEntryName(header.Name)
		if !ok {
			continue
		}

		data, err := io.ReadAll(archive)
		if err != nil {
			return nil, &ExtractionError{Reason: "corrupt bundle entry", Err: err}
		}

		g, ok := groups[id]
		if !ok {
			g = &group{}
			groups[id] = g
		}

		switch entry {
		case "pathname":
			g.pathname = data
		case "asset":
			g.asset = data
			g.hasAsset = true
		}
	}

	return groups, nil
}

// splitEntryName breaks "<id>/<entry>" apart, tolerating a leading "./".
func splitEntryName(name string) (string, string, bool) {
	name = strings.TrimPrefix(name, "./")
	parts := strings.SplitN(name, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func resolveGroups(groups map[string]*group, sink *diag.Sink) (*Index, error) {
	tempDir, err := os.MkdirTemp("", "matport-textures-")
	if err != nil {
		return nil, &ExtractionError{Reason: "could not create temp dir", Err: err}
	}

	index := &Index{
		paths:    make(map[string]string),
		contents: make(map[string][]byte),
		textures: make(map[string]string),
		names:    make(map[string]string),
		tempDir:  tempDir,
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		g := groups[id]

		if g.pathname == nil {
			sink.Report(diag.Extraction, id, "entry group has no pathname, skipping")
			continue
		}

		declared := declaredPath(g.pathname)
		if declared == "" {
			sink.Report(diag.Extraction, id, "entry group has an empty pathname, skipping")
			continue
		}

		index.paths[id] = declared

		if !g.hasAsset {
			continue
		}

		if IsTexturePath(declared) {
			target, err := writeTexture(tempDir, declared, g.asset)
			if err != nil {
				sink.Report(diag.Extraction, id, "could not extract texture: %v", err)
				continue
			}

			index.textures[id] = target
			index.names[id] = filepath.Base(declared)
			continue
		}

		if !IsModelPath(declared) && len(g.asset) > maxContentSize {
			log.Debug().
				Str("id", id).
				Str("path", declared).
				Int("size", len(g.asset)).
				Msg("content above size ceiling, not retained")
			continue
		}

		index.contents[id] = g.asset
	}

	log.Debug().
		Int("entries", len(index.paths)).
		Int("textures", len(index.textures)).
		Int("contents", len(index.contents)).
		Msg("bundle extracted")

	return index, nil
}

func declaredPath(pathname []byte) string {
	line := pathname
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(string(line))
}

// Extracted textures are named by content hash so identical payloads under
// different identifiers share one file.
func writeTexture(tempDir string, declared string, data []byte) (string, error) {
	name := fmt.Sprintf("%016x%s", xxhash.Sum64(data), strings.ToLower(filepath.Ext(declared)))
	target := filepath.Join(tempDir, name)

	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", err
	}

	return target, nil
}
