package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/logger"
	"github.com/woozymasta/dzmeasure/internal/replay"
	"github.com/woozymasta/dzmeasure/internal/source"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file"`
	OutDir      string   `short:"o" long:"out"         env:"OUT_DIR"     description:"Directory for the replay results" default:"out"`
	Limit       []string `short:"l" long:"limit"       env:"LIMIT_NAMES" description:"Limit processing to specific script names"`
	Concurrency int      `short:"p" long:"concurrency" env:"CONCURRENCY" description:"Concurrency" default:"4"`
	Force       bool     `short:"f" long:"force"       description:"Force overwrite of existing files"`

	Args struct {
		Scripts []string `positional-arg-name:"script" description:"Replay script files (YAML or JSON)" required:"1"`
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

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	limit := make(map[string]bool, len(opts.Limit))
	for _, name := range opts.Limit {
		limit[name] = true
	}

	var (
		scripts []*replay.Script
		paths   []string
	)
	for _, path := range opts.Args.Scripts {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error().Err(err).Str("script", path).Msg("Failed to read script")
			continue
		}
		s, err := replay.Parse(data)
		if err != nil {
			log.Error().Err(err).Str("script", path).Msg("Failed to parse script")
			continue
		}
		if s.Name == "" {
			s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if len(limit) > 0 && !limit[s.Name] {
			continue
		}

		out := filepath.Join(opts.OutDir, s.Name+".json")
		if !opts.Force {
			if _, err := os.Stat(out); err == nil {
				log.Debug().Str("script", s.Name).Str("path", out).Msg("Result exists, skipping")
				continue
			}
		}

		scripts = append(scripts, s)
		paths = append(paths, out)
	}

	log.Info().
		Int("scripts_total", len(opts.Args.Scripts)).
		Int("scripts_queued", len(scripts)).
		Int("concurrency", opts.Concurrency).
		Msg("Starting digitizer replay")

	failed := 0
	for _, o := range replay.RunAll(context.Background(), cfg, scripts, opts.Concurrency) {
		if o.Err != nil {
			failed++
			log.Error().Err(o.Err).Str("script", o.Script.Name).Msg("Replay failed")
			continue
		}

		if err := source.Save(paths[o.Index], o.Result); err != nil {
			failed++
			log.Error().Err(err).Str("path", paths[o.Index]).Msg("Failed to save result")
			continue
		}

		log.Info().
			Str("script", o.Script.Name).
			Int("drawn", len(o.Result.Drawn)).
			Int("labels", len(o.Result.Labels.Features)).
			Msg("Replay saved")
	}

	if failed > 0 {
		log.Fatal().Int("failed", failed).Msg("Replay finished with errors")
	}
	log.Info().Msg("Replay finished successfully")
}
