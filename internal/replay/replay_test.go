package replay

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/draw"
)

const lineScript = `
name: line
steps:
  - action: start
    type: LineString
  - action: click
    points: [[0, 0], [300, 0]]
  - action: move
    at: [300, 400]
  - action: click
    at: [300, 400]
  - action: dblclick
    at: [300, 400]
`

func planar() *config.Config {
	return &config.Config{Projection: "planar"}
}

func labelValues(res *Result) []string {
	var ret []string
	for _, f := range res.Labels.Features {
		ret = append(ret, f.Properties.MustString("value"))
	}
	return ret
}

func TestRunLine(t *testing.T) {
	s, err := Parse([]byte(lineScript))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Run(context.Background(), planar(), s)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Drawn) != 1 || res.Drawn[0].Type != draw.TypeLineString {
		t.Fatalf("unexpected drawn features: %+v", res.Drawn)
	}
	if len(res.Features.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(res.Features.Features))
	}

	want := []string{"0.0 m", "300.0 m", "300.0 m", "400.0 m", "700.0 m"}
	if diff := cmp.Diff(want, labelValues(res)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestRunPolygonWithBack(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - {action: start, type: Polygon}
  - {action: click, points: [[0, 0], [100, 0], [100, 100], [50, 50]]}
  - {action: back}
  - {action: click, at: [0, 100]}
  - {action: dblclick, at: [0, 100]}
`))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Run(context.Background(), planar(), s)
	if err != nil {
		t.Fatal(err)
	}

	got := labelValues(res)
	if len(got) == 0 || got[len(got)-1] != "10000.00 m²" {
		t.Errorf("expected the square area as last label, got %v", got)
	}
	if cw, ok := res.Features.Features[0].Properties["clockwise"].(bool); !ok || cw {
		t.Errorf("expected clockwise=false, got %v", res.Features.Features[0].Properties["clockwise"])
	}
}

func TestRunCustomFeatureAndUnits(t *testing.T) {
	s, err := Parse([]byte(`{
  "units": {"length": "km"},
  "steps": [
    {"action": "feature", "id": "road", "feature": {"type": "LineString", "coordinates": [[0, 0], [2500, 0]]}},
    {"action": "feature", "feature": {"type": "Feature", "id": "spot", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {}}},
    {"action": "delete", "id": "spot"}
  ]
}`))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Run(context.Background(), planar(), s)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"0.00 km", "2.50 km", "2.50 km"}
	if diff := cmp.Diff(want, labelValues(res)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if res.Features.Features[0].ID != "road" {
		t.Errorf("expected feature id road, got %v", res.Features.Features[0].ID)
	}
}

func TestRunStopAndClear(t *testing.T) {
	s := &Script{Steps: []Step{
		{Action: ActionStart, Type: "Point"},
		{Action: ActionClick, At: []float64{1, 2}},
		{Action: ActionStart, Type: "LineString"},
		{Action: ActionClick, At: []float64{0, 0}},
		{Action: ActionStop},
	}}

	res, err := Run(context.Background(), planar(), s)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"1.000000 , 2.000000"}, labelValues(res)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	s.Steps = append(s.Steps, Step{Action: ActionClear})
	res, err = Run(context.Background(), planar(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Labels.Features) != 0 || len(res.Features.Features) != 0 {
		t.Error("clear left features behind")
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want error
	}{
		{"unknown action", Step{Action: "jump"}, ErrUnknownAction},
		{"unknown type", Step{Action: ActionStart, Type: "Circle"}, draw.ErrUnknownType},
		{"missing position", Step{Action: ActionClick}, nil},
		{"bad position", Step{Action: ActionClick, At: []float64{1}}, nil},
		{"missing feature", Step{Action: ActionFeature}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), planar(), &Script{Steps: []Step{tt.step}})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, planar(), &Script{Steps: []Step{{Action: ActionStop}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunAll(t *testing.T) {
	var scripts []*Script
	for i := 0; i < 8; i++ {
		scripts = append(scripts, &Script{
			Name: fmt.Sprintf("s%d", i),
			Steps: []Step{
				{Action: ActionStart, Type: "LineString"},
				{Action: ActionClick, Points: [][]float64{{0, 0}, {float64(i + 1), 0}}},
				{Action: ActionDblClick, At: []float64{float64(i + 1), 0}},
			},
		})
	}
	scripts = append(scripts, &Script{Name: "broken", Steps: []Step{{Action: "jump"}}})

	outcomes := RunAll(context.Background(), planar(), scripts, 3)
	if len(outcomes) != len(scripts) {
		t.Fatalf("expected %d outcomes, got %d", len(scripts), len(outcomes))
	}

	for i, o := range outcomes[:8] {
		if o.Err != nil {
			t.Fatalf("script %d: %v", i, o.Err)
		}
		got := labelValues(o.Result)
		want := fmt.Sprintf("%d.0 m", i+1)
		if got[len(got)-1] != want {
			t.Errorf("script %d: expected %s, got %v", i, want, got)
		}
	}
	if !errors.Is(outcomes[8].Err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction for broken script, got %v", outcomes[8].Err)
	}
}
