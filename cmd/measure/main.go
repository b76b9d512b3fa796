package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/draw"
	"github.com/woozymasta/dzmeasure/internal/logger"
	"github.com/woozymasta/dzmeasure/internal/measure"
	"github.com/woozymasta/dzmeasure/internal/server"
	"github.com/woozymasta/dzmeasure/internal/snapshot"
	"github.com/woozymasta/dzmeasure/internal/source"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"   env:"CONFIG_FILE" description:"Path to configuration file"`
	Input      string `short:"i" long:"in"       description:"GeoJSON or markers file, URL or - for stdin" default:"-"`
	Output     string `short:"o" long:"out"      description:"Output file path. Writes to stdout if empty"`
	Format     string `short:"f" long:"format"   description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Compact    bool   `short:"C" long:"compact"  description:"Minify JSON output"`
	Length     string `short:"l" long:"length"   description:"Length unit (MM, CM, M, KM or MKM)"`
	Area       string `short:"a" long:"area"     description:"Area unit (M2, KM2, MU or M2KM2)"`
	Snapshot   string `short:"s" long:"snapshot" description:"Also render the labeled features to this image file"`
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

	ctx := context.Background()
	client := &http.Client{Timeout: 15 * time.Second}

	fc, err := source.Load(ctx, client, opts.Input)
	if err != nil {
		log.Fatal().Err(err).Str("source", opts.Input).Msg("Failed to load features")
	}

	m, err := cfg.NewManager(draw.NewHeadlessHost())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create measure manager")
	}
	if err := m.SetUnits(measure.Units{Length: opts.Length, Area: opts.Area}); err != nil {
		log.Fatal().Err(err).Msg("Invalid units")
	}

	for _, f := range fc.Features {
		if err := m.SetFeature(f); err != nil {
			log.Fatal().Err(err).Msg("Failed to measure features")
		}
	}

	labels := m.Labels()
	log.Info().
		Int("features", len(fc.Features)).
		Int("labels", len(labels.Features)).
		Msg("Features measured")

	data, err := marshal(labels, opts.Format, opts.Compact)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal labels")
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write output")
		}
	} else {
		fmt.Println(string(data))
	}

	if opts.Snapshot != "" {
		if err := writeSnapshot(ctx, client, cfg, m, opts.Snapshot); err != nil {
			log.Fatal().Err(err).Str("path", opts.Snapshot).Msg("Failed to write snapshot")
		}
		log.Info().Str("path", opts.Snapshot).Msg("Snapshot saved")
	}
}

func marshal(fc *geojson.FeatureCollection, format string, compact bool) ([]byte, error) {
	if format == "yaml" {
		// geometries only carry their GeoJSON form through the json tags
		raw, err := json.Marshal(fc)
		if err != nil {
			return nil, err
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return yaml.Marshal(v)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil || !compact {
		return data, err
	}
	return server.NewMinifier().Bytes("application/json", data)
}

// writeSnapshot renders the measured features. The format follows the file
// extension, falling back to the configured one.
func writeSnapshot(ctx context.Context, client *http.Client, cfg *config.Config, m *measure.Manager, path string) error {
	opts := snapshot.Options{
		Width:  cfg.Snapshot.Width,
		Height: cfg.Snapshot.Height,
	}
	if cfg.Snapshot.Background != "" {
		bg, err := snapshot.LoadBackground(ctx, client, cfg.Snapshot.Background)
		if err != nil {
			return err
		}
		opts.Background = bg
	}

	enc := snapshot.EncodeOptions{
		Format:   cfg.Snapshot.Format,
		Quality:  cfg.Snapshot.Quality,
		Lossless: cfg.Snapshot.Lossless,
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		enc.Format = snapshot.FormatPNG
	case ".webp":
		enc.Format = snapshot.FormatWebP
	}

	features := geojson.NewFeatureCollection()
	for _, f := range m.Features() {
		features.Append(f)
	}

	img, err := snapshot.Render(features, m.Labels(), opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := snapshot.Encode(f, img, enc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
