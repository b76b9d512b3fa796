// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"

	"github.com/woozymasta/dzmeasure/internal/draw"
	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/measure"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Language  *measure.Language `yaml:"language,omitempty" json:"language,omitempty"`
	Precision map[string]int    `yaml:"precision,omitempty" json:"precision,omitempty"`

	// Projection is "local-tm", "planar" or a proj4 expression.
	Projection string        `yaml:"projection,omitempty" json:"projection,omitempty"`
	Units      measure.Units `yaml:"units,omitempty" json:"units,omitempty"`

	Draw     Draw     `yaml:"draw,omitempty" json:"draw,omitempty"`
	Snapshot Snapshot `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`

	// unset toggles keep the manager defaults (all shown)
	ShowSegment          *bool `yaml:"show_segment,omitempty" json:"show_segment,omitempty"`
	ShowPolygonDistance  *bool `yaml:"show_polygon_distance,omitempty" json:"show_polygon_distance,omitempty"`
	ShowPolygonDirection *bool `yaml:"show_polygon_direction,omitempty" json:"show_polygon_direction,omitempty"`
}

// Draw configures the digitizers.
type Draw struct {
	Tip  *draw.TipOptions `yaml:"tip,omitempty" json:"tip,omitempty"`
	Once bool             `yaml:"once,omitempty" json:"once,omitempty"`
}

// Snapshot configures rendered images.
type Snapshot struct {
	Background string  `yaml:"background,omitempty" json:"background,omitempty"` // path or URL of a base image
	Format     string  `yaml:"format,omitempty" json:"format,omitempty"`         // webp or png
	Width      int     `yaml:"width,omitempty" json:"width,omitempty"`
	Height     int     `yaml:"height,omitempty" json:"height,omitempty"`
	Quality    float32 `yaml:"quality,omitempty" json:"quality,omitempty"`
	Lossless   bool    `yaml:"lossless,omitempty" json:"lossless,omitempty"`
}

// Load reads and parses the YAML configuration file from the specified path.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML (or JSON) configuration data and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if _, err := geo.ParseProjection(cfg.Projection); err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}

	return &cfg, nil
}

// Projector builds the measuring projector.
func (c *Config) Projector() (*geo.Projector, error) {
	p, err := geo.ParseProjection(c.Projection)
	if err != nil {
		return nil, err
	}
	return geo.NewProjector(p), nil
}

// ManagerOptions returns the manager options for c.
func (c *Config) ManagerOptions() (measure.ManagerOptions, error) {
	projector, err := c.Projector()
	if err != nil {
		return measure.ManagerOptions{}, err
	}

	d := draw.Options{Tip: c.Draw.Tip, Once: c.Draw.Once}
	return measure.ManagerOptions{
		Point:      d,
		LineString: d,
		Polygon:    d,
		Projector:  projector,
		Language:   c.Language,
	}, nil
}

// LabelOptions returns label options measuring with the configured
// projection and default texts.
func (c *Config) LabelOptions() (*measure.Options, error) {
	projector, err := c.Projector()
	if err != nil {
		return nil, err
	}
	return &measure.Options{Projector: projector}, nil
}

// NewManager creates a manager on host and applies units, precision and
// toggles.
func (c *Config) NewManager(host draw.Host) (*measure.Manager, error) {
	opts, err := c.ManagerOptions()
	if err != nil {
		return nil, err
	}

	m := measure.NewManager(host, opts)
	if err := c.Apply(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply sets units, precision and toggles on m.
func (c *Config) Apply(m *measure.Manager) error {
	if err := m.SetUnits(c.Units); err != nil {
		return err
	}
	for unit, digits := range c.Precision {
		m.SetPrecision(unit, digits)
	}

	if c.ShowSegment != nil {
		m.ShowSegment(*c.ShowSegment)
	}
	if c.ShowPolygonDistance != nil {
		m.ShowPolygonDistance(*c.ShowPolygonDistance)
	}
	if c.ShowPolygonDirection != nil {
		m.ShowPolygonDirection(*c.ShowPolygonDirection)
	}

	return nil
}
