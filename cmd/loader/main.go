package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/dzglobe/internal/config"
	"github.com/woozymasta/dzglobe/internal/logger"
	"github.com/woozymasta/dzglobe/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile    string        `short:"c" long:"config"         env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Output        string        `short:"o" long:"output"         env:"OUTPUT_DIR"     description:"Override output directory from config"`
	Limit         []string      `short:"l" long:"limit"          env:"LIMIT_NAMES"    description:"Limit processing to specific layer names"`
	Concurrency   int           `short:"p" long:"concurrency"    env:"CONCURRENCY"    description:"Layers built in parallel" default:"4"`
	MaxPrimitives int           `short:"m" long:"max-primitives" env:"MAX_PRIMITIVES" description:"Override raster box budget"`
	Timeout       time.Duration `short:"t" long:"timeout"        env:"HTTP_TIMEOUT"   description:"HTTP download timeout" default:"2m"`
	Force         bool          `short:"f" long:"force"          description:"Force overwrite of existing files"`
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

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Output != "" {
		cfg.Output = opts.Output
	}
	if opts.MaxPrimitives > 0 {
		cfg.MaxPrimitives = opts.MaxPrimitives
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: opts.Timeout,
	}

	// Warn about unknown names in --limit
	known := make(map[string]bool, len(cfg.Layers))
	for _, l := range cfg.Layers {
		known[l.Name] = true
	}
	for _, name := range opts.Limit {
		if !known[name] {
			log.Error().
				Str("name", name).
				Msg("Layer specified in --limit not found in configuration")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Int("layers_total", len(cfg.Layers)).
		Strs("limit", opts.Limit).
		Int("concurrency", opts.Concurrency).
		Str("output", cfg.Output).
		Msg("Starting loader")

	results := processor.ProcessLayers(ctx, client, cfg, opts.Concurrency, opts.Force, opts.Limit...)

	failed, primitives := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		primitives += res.Primitives
	}

	if failed > 0 {
		log.Error().
			Int("failed", failed).
			Int("built", len(results)-failed).
			Msg("Loader finished with errors")
		os.Exit(1)
	}

	log.Info().
		Int("layers", len(results)).
		Int("primitives", primitives).
		Msg("Loader finished successfully")
}
