// Package replay drives a measure manager from a recorded script of pointer
// events and commands, without a map.
package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/draw"
	"github.com/woozymasta/dzmeasure/internal/measure"
)

// Step actions.
const (
	ActionStart      = "start"
	ActionClick      = "click"
	ActionMove       = "move"
	ActionDblClick   = "dblclick"
	ActionRightClick = "rightclick"
	ActionBack       = "back"
	ActionStop       = "stop"
	ActionClear      = "clear"
	ActionFeature    = "feature"
	ActionDelete     = "delete"
)

// ErrUnknownAction is returned for a step with an unsupported action.
var ErrUnknownAction = errors.New("unknown action")

// Script is a named sequence of steps.
type Script struct {
	Name  string        `yaml:"name,omitempty" json:"name,omitempty"`
	Units measure.Units `yaml:"units,omitempty" json:"units,omitempty"`
	Steps []Step        `yaml:"steps" json:"steps"`
}

// Step is one replayed action. Pointer actions take At, or Points to repeat
// the action at every position.
type Step struct {
	Action  string      `yaml:"action" json:"action"`
	Type    string      `yaml:"type,omitempty" json:"type,omitempty"`
	ID      string      `yaml:"id,omitempty" json:"id,omitempty"`
	At      []float64   `yaml:"at,omitempty" json:"at,omitempty"`
	Points  [][]float64 `yaml:"points,omitempty" json:"points,omitempty"`
	Feature interface{} `yaml:"feature,omitempty" json:"feature,omitempty"`
}

// Drawn is a feature committed by a digitizer during the replay.
type Drawn struct {
	ID   string    `json:"id"`
	Type draw.Type `json:"type"`
}

// Result is the state after the last step.
type Result struct {
	Name     string                     `json:"name,omitempty"`
	Drawn    []Drawn                    `json:"drawn"`
	Features *geojson.FeatureCollection `json:"features"`
	Labels   *geojson.FeatureCollection `json:"labels"`
}

// Parse decodes a YAML or JSON script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Run replays s on a fresh manager configured by cfg.
func Run(ctx context.Context, cfg *config.Config, s *Script) (*Result, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}

	opts, err := cfg.ManagerOptions()
	if err != nil {
		return nil, err
	}

	res := &Result{Name: s.Name}
	drawn := func(t draw.Type) func(string, orb.Geometry) {
		return func(id string, _ orb.Geometry) {
			res.Drawn = append(res.Drawn, Drawn{ID: id, Type: t})
		}
	}
	opts.Point.OnDrawn = drawn(draw.TypePoint)
	opts.LineString.OnDrawn = drawn(draw.TypeLineString)
	opts.Polygon.OnDrawn = drawn(draw.TypePolygon)

	host := draw.NewHeadlessHost()
	m := measure.NewManager(host, opts)
	if err := cfg.Apply(m); err != nil {
		return nil, err
	}
	if err := m.SetUnits(s.Units); err != nil {
		return nil, err
	}

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := apply(m, host, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}

	fc := geojson.NewFeatureCollection()
	for _, f := range m.Features() {
		fc.Append(f)
	}
	res.Features = fc
	res.Labels = m.Labels()

	log.Debug().
		Str("script", s.Name).
		Int("steps", len(s.Steps)).
		Int("drawn", len(res.Drawn)).
		Int("labels", len(res.Labels.Features)).
		Msg("Script replayed")

	return res, nil
}

func apply(m *measure.Manager, host *draw.HeadlessHost, step Step) error {
	pointer := func(kind draw.EventKind) error {
		positions, err := step.positions()
		if err != nil {
			return err
		}
		for _, p := range positions {
			host.Dispatch(draw.Event{Kind: kind, Pos: p})
		}
		return nil
	}

	switch step.Action {
	case ActionStart:
		return m.Start(draw.Type(step.Type))
	case ActionClick:
		return pointer(draw.Click)
	case ActionMove:
		return pointer(draw.Move)
	case ActionDblClick:
		return pointer(draw.DoubleClick)
	case ActionRightClick:
		return pointer(draw.RightClick)
	case ActionBack:
		m.Back()
	case ActionStop:
		m.Stop()
	case ActionClear:
		m.Clear()
	case ActionFeature:
		f, err := step.feature()
		if err != nil {
			return err
		}
		return m.SetFeature(f)
	case ActionDelete:
		m.DelFeature(step.ID)
	default:
		return ErrUnknownAction
	}
	return nil
}

func (s Step) positions() ([]orb.Point, error) {
	coords := s.Points
	if len(s.At) > 0 {
		coords = append([][]float64{s.At}, coords...)
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("no position")
	}

	ret := make([]orb.Point, 0, len(coords))
	for _, c := range coords {
		if len(c) != 2 {
			return nil, fmt.Errorf("position %v: expected [lon, lat]", c)
		}
		ret = append(ret, orb.Point{c[0], c[1]})
	}
	return ret, nil
}

// feature converts the decoded YAML or JSON value into a GeoJSON feature.
// A bare geometry is wrapped, using the step id as feature id.
func (s Step) feature() (*geojson.Feature, error) {
	if s.Feature == nil {
		return nil, fmt.Errorf("no feature")
	}

	data, err := json.Marshal(s.Feature)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	var f *geojson.Feature
	if probe.Type == "Feature" {
		f, err = geojson.UnmarshalFeature(data)
	} else {
		var g *geojson.Geometry
		g, err = geojson.UnmarshalGeometry(data)
		if err == nil {
			f = geojson.NewFeature(g.Geometry())
		}
	}
	if err != nil {
		return nil, err
	}

	if s.ID != "" {
		f.ID = s.ID
	}
	return f, nil
}
