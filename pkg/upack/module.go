package upack

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/repeale/fp-go/option"
)

// An ExtractionError means the bundle itself could not be read. It is the
// only fatal condition in this package; per-entry problems degrade into
// diagnostics instead.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction failed: %s", e.Reason)
	}
	return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// An Index is the result of extracting one bundle: every entry keyed by its
// opaque identifier. Immutable once built. The extracted texture files live
// in a temp directory owned by the Index; Close removes them.
type Index struct {
	// id -> declared original relative path
	paths map[string]string

	// id -> raw content for retained non-texture entries
	contents map[string][]byte

	// texture id -> extracted file on disk
	textures map[string]string

	// texture id -> original basename from the declared path
	names map[string]string

	tempDir string
}

func (x *Index) Pathname(id string) opt.Option[string] {
	if path, ok := x.paths[id]; ok {
		return opt.Some(path)
	}
	return opt.None[string]()
}

func (x *Index) Content(id string) ([]byte, bool) {
	data, ok := x.contents[id]
	return data, ok
}

// TexturePath resolves a texture identifier to its extracted location on
// disk.
func (x *Index) TexturePath(id string) opt.Option[string] {
	if path, ok := x.textures[id]; ok {
		return opt.Some(path)
	}
	return opt.None[string]()
}

// TextureName resolves a texture identifier to the basename declared by the
// bundle.
func (x *Index) TextureName(id string) opt.Option[string] {
	if name, ok := x.names[id]; ok {
		return opt.Some(name)
	}
	return opt.None[string]()
}

// ContentIds returns the identifiers of all retained non-texture entries in
// a stable order.
func (x *Index) ContentIds() []string {
	ids := make([]string, 0, len(x.contents))
	for id := range x.contents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (x *Index) TextureIds() []string {
	ids := make([]string, 0, len(x.textures))
	for id := range x.textures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModelIds returns the identifiers of retained entries whose declared path
// has a model extension.
func (x *Index) ModelIds() []string {
	ids := make([]string, 0)
	for id := range x.contents {
		if IsModelPath(x.paths[id]) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Close removes the temp directory holding the extracted textures. The run
// that built the Index must call it on both the success and failure paths.
func (x *Index) Close() error {
	if x.tempDir == "" {
		return nil
	}
	dir := x.tempDir
	x.tempDir = ""
	return os.RemoveAll(dir)
}

var textureExtensions = map[string]struct{}{
	".png":  {},
	".tga":  {},
	".jpg":  {},
	".jpeg": {},
}

var modelExtensions = map[string]struct{}{
	".fbx": {},
	".obj": {},
}

func IsTexturePath(path string) bool {
	_, ok := textureExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func IsModelPath(path string) bool {
	_, ok := modelExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
