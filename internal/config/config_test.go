package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/dzmeasure/internal/draw"
	"github.com/woozymasta/dzmeasure/internal/measure"
)

const sample = `
projection: planar
units:
  length: km
precision:
  km: 3
language:
  ending: Sum
show_segment: false
draw:
  once: true
  tip:
    before_drawing: click to start
    drawing: double-click to finish
snapshot:
  width: 640
  height: 480
  format: png
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(measure.Units{Length: "km"}, cfg.Units); diff != "" {
		t.Errorf("units mismatch (-want +got):\n%s", diff)
	}
	if cfg.Precision["km"] != 3 || cfg.Language.Ending != "Sum" {
		t.Errorf("unexpected precision or language: %v %v", cfg.Precision, cfg.Language)
	}
	if cfg.ShowSegment == nil || *cfg.ShowSegment || cfg.ShowPolygonDistance != nil {
		t.Errorf("unexpected toggles: segment=%v distance=%v", cfg.ShowSegment, cfg.ShowPolygonDistance)
	}
	if !cfg.Draw.Once || cfg.Draw.Tip == nil || cfg.Draw.Tip.Drawing != "double-click to finish" {
		t.Errorf("unexpected draw options: %+v", cfg.Draw)
	}
	if cfg.Snapshot.Width != 640 || cfg.Snapshot.Format != "png" {
		t.Errorf("unexpected snapshot options: %+v", cfg.Snapshot)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Projection != "" || cfg.Units != (measure.Units{}) {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestParseRejectsBadProjection(t *testing.T) {
	if _, err := Parse([]byte("projection: mercator\n")); err == nil {
		t.Error("expected error for unknown projection name")
	}
	if _, err := Parse([]byte("units: [\n")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestNewManagerAppliesConfig(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	host := draw.NewHeadlessHost()
	m, err := cfg.NewManager(host)
	if err != nil {
		t.Fatal(err)
	}

	f := geojson.NewFeature(orb.LineString{{0, 0}, {1500, 0}})
	f.ID = "l"
	if err := m.SetFeature(f); err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, l := range host.Data(m.ID()).Features {
		got = append(got, l.Properties.MustString("value"))
	}
	if diff := cmp.Diff([]string{"0.000 km", "1.500 km"}, got); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	if err := m.Start(draw.TypePoint); err != nil {
		t.Fatal(err)
	}
	if host.Tip != "click to start" {
		t.Errorf("expected tip from config, got %q", host.Tip)
	}
	m.AddPoint(orb.Point{1, 1})
	if m.Active().Active() {
		t.Error("once digitizer still active after the first feature")
	}
}

func TestApplyRejectsBadUnits(t *testing.T) {
	cfg := &Config{Units: measure.Units{Area: "acre"}}
	if _, err := cfg.NewManager(draw.NewHeadlessHost()); err == nil {
		t.Error("expected error for unknown area unit")
	}
}
