// Package source loads features to measure from files, URLs or stdin.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Stdin is the source name that reads standard input.
const Stdin = "-"

// maxBody caps downloaded and piped input.
const maxBody = 64 << 20

// Load reads features from a file path, an http(s) URL or Stdin.
func Load(ctx context.Context, client *http.Client, src string) (*geojson.FeatureCollection, error) {
	data, err := Read(ctx, client, src)
	if err != nil {
		return nil, err
	}

	fc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}

	log.Debug().Str("source", src).Int("features", len(fc.Features)).Msg("Features loaded")
	return fc, nil
}

// Read returns the raw bytes of src.
func Read(ctx context.Context, client *http.Client, src string) ([]byte, error) {
	switch {
	case src == Stdin:
		return io.ReadAll(io.LimitReader(os.Stdin, maxBody))
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return fetch(ctx, client, src)
	default:
		return os.ReadFile(src)
	}
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	log.Info().Str("url", url).Msg("Downloading features")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// Decode accepts a GeoJSON FeatureCollection, Feature or bare geometry, or
// a JSON array of markers, and returns a feature collection.
func Decode(data []byte) (*geojson.FeatureCollection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	if data[0] == '[' {
		return decodeMarkers(data)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case "FeatureCollection":
		return geojson.UnmarshalFeatureCollection(data)
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		return fc.Append(f), nil
	case "":
		return nil, fmt.Errorf("missing GeoJSON type")
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		return fc.Append(geojson.NewFeature(g.Geometry())), nil
	}
}

// marker is a named map location.
type marker struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func decodeMarkers(data []byte) (*geojson.FeatureCollection, error) {
	var markers []marker
	if err := json.Unmarshal(data, &markers); err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(orb.Point{m.Lng, m.Lat})
		if m.Name != "" {
			f.Properties["name"] = m.Name
		}
		if m.Type != "" {
			f.Properties["type"] = strings.ToLower(m.Type)
		}
		fc.Append(f)
	}

	return fc, nil
}

// Save marshals v as JSON and writes it to path, creating parent
// directories. Stdin as path writes to stdout.
func Save(path string, v interface{}) error {
	if path == Stdin || path == "" {
		return json.NewEncoder(os.Stdout).Encode(v)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	return json.NewEncoder(f).Encode(v)
}
