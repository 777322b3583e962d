package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"matport/pkg/config"
	"matport/pkg/convert"
	"matport/pkg/diag"
	"matport/pkg/upack"
)

var CLI struct {
	Debug bool `help:"Whether to enable debug logging."`

	Convert struct {
		Bundle    string   `arg:"" name:"bundle" help:"The asset bundle to convert." type:"existingfile"`
		Configs   []string `name:"config" help:"Configuration files, applied in order." type:"existingfile"`
		Output    string   `short:"o" help:"Output directory (overrides the configuration)."`
		Manifests []string `name:"manifest" help:"Material-list manifest files." type:"existingfile"`
		Workers   int      `help:"Worker goroutines; 0 means one per CPU."`
	} `cmd:"" help:"Convert a bundle into target engine resources."`

	Dump struct {
		Bundle string `arg:"" name:"bundle" help:"The asset bundle to inspect." type:"existingfile"`
	} `cmd:"" help:"List a bundle's entries without converting anything."`

	Config struct {
	} `cmd:"" help:"Write the default configuration to standard output."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func convertCommand() error {
	cfg, err := config.Process(CLI.Convert.Configs)
	if err != nil {
		return err
	}

	if CLI.Convert.Output != "" {
		cfg.OutputDir = CLI.Convert.Output
	}
	if CLI.Convert.Workers > 0 {
		cfg.Workers = CLI.Convert.Workers
	}
	cfg.Manifests = append(cfg.Manifests, CLI.Convert.Manifests...)

	result, err := convert.Run(cfg, CLI.Convert.Bundle)
	if err != nil {
		return err
	}

	for _, diagnostic := range result.Diagnostics {
		log.Warn().
			Str("kind", string(diagnostic.Kind)).
			Str("subject", diagnostic.Subject).
			Msg(diagnostic.Message)
	}

	if len(result.Unmatched) > 0 {
		log.Info().
			Strs("materials", result.Unmatched).
			Msg("materials referenced by no prefab")
	}

	result.Stats.Log(log.Info())
	return nil
}

func dumpCommand() error {
	sink := diag.NewSink()

	index, err := upack.FromFile(CLI.Dump.Bundle, sink)
	if err != nil {
		return err
	}
	defer index.Close()

	for _, id := range index.TextureIds() {
		path := index.Pathname(id)
		if opt.IsSome(path) {
			fmt.Printf("%s\ttexture\t%s\n", id, path.Value)
		}
	}
	for _, id := range index.ContentIds() {
		path := index.Pathname(id)
		if opt.IsSome(path) {
			fmt.Printf("%s\tcontent\t%s\n", id, path.Value)
		}
	}

	for _, diagnostic := range sink.All() {
		log.Warn().
			Str("kind", string(diagnostic.Kind)).
			Str("subject", diagnostic.Subject).
			Msg(diagnostic.Message)
	}

	return nil
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	ctx := kong.Parse(&CLI,
		kong.Name("matport"),
		kong.Description("convert third-party asset bundles into engine resources"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	switch ctx.Command() {
	case "convert <bundle>":
		if err := convertCommand(); err != nil {
			writeError(err)
		}
	case "dump <bundle>":
		if err := dumpCommand(); err != nil {
			writeError(err)
		}
	case "config":
		os.Stdout.Write(config.DEFAULT)
	}
}
