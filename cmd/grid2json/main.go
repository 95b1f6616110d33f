package main

import (
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/dzglobe/internal/grid"
	"github.com/woozymasta/dzglobe/internal/logger"
	"github.com/woozymasta/dzglobe/internal/raster"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Output      string `short:"o" long:"output"       description:"Output file, stdout when empty"`
	Format      string `short:"F" long:"format"       description:"Output format" choice:"json" choice:"yaml" default:"json"`
	MaxFeatures int    `short:"m" long:"max-features" description:"Upper bound on emitted points" default:"150000"`
	Lenient     bool   `short:"L" long:"lenient"      description:"Pad or truncate malformed rows"`
	Pretty      bool   `short:"P" long:"pretty"       description:"Indent JSON output"`

	Args struct {
		Input string `positional-arg-name:"grid" description:"ESRI ASCII grid, stdin when omitted or -"`
	} `positional-args:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	var in io.Reader = os.Stdin
	if opts.Args.Input != "" && opts.Args.Input != "-" {
		f, err := os.Open(opts.Args.Input)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open grid")
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	g, err := grid.ParseReader(in, grid.Options{Lenient: opts.Lenient})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse grid")
	}

	fc := raster.Features(g, opts.MaxFeatures)
	log.Info().
		Int("ncols", g.Ncols).
		Int("nrows", g.Nrows).
		Int("features", len(fc.Features)).
		Msg("Grid sampled")

	data, err := fc.MarshalJSON()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode features")
	}

	switch opts.Format {
	case "yaml":
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			log.Fatal().Err(err).Msg("Failed to convert features")
		}
		if data, err = yaml.Marshal(doc); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode YAML")
		}
	default:
		if opts.Pretty {
			var doc any
			if err := json.Unmarshal(data, &doc); err != nil {
				log.Fatal().Err(err).Msg("Failed to convert features")
			}
			if data, err = json.MarshalIndent(doc, "", "  "); err != nil {
				log.Fatal().Err(err).Msg("Failed to encode JSON")
			}
		}
		data = append(data, '\n')
	}

	if opts.Output == "" {
		_, _ = os.Stdout.Write(data)
		return
	}

	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write output")
	}
}
