package measure

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/dzmeasure/internal/draw"
	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/units"
)

// Automatic unit selections.
const (
	// AutoLength shows meters up to 1000 m and kilometers above.
	AutoLength = "MKM"
	// AutoArea shows square meters up to 1 km² and square kilometers above.
	AutoArea = "M2KM2"
)

// sourceCustom holds features set with SetFeature.
const sourceCustom = "custom"

// featureOrder is the fixed order features are measured in.
var featureOrder = []string{
	string(draw.TypePoint),
	string(draw.TypeLineString),
	string(draw.TypePolygon),
	sourceCustom,
}

// Units selects the displayed length and area unit. Empty fields keep the
// current value on SetUnits.
type Units struct {
	Length string `yaml:"length" json:"length"`
	Area   string `yaml:"area" json:"area"`
}

// Language holds the unit symbols and words printed in labels.
type Language struct {
	Ending string `yaml:"ending" json:"ending"`
	MM     string `yaml:"mm" json:"mm"`
	CM     string `yaml:"cm" json:"cm"`
	M      string `yaml:"m" json:"m"`
	KM     string `yaml:"km" json:"km"`
	M2     string `yaml:"m2" json:"m2"`
	KM2    string `yaml:"km2" json:"km2"`
	MU     string `yaml:"mu" json:"mu"`
}

// DefaultLanguage returns the English label texts.
func DefaultLanguage() Language {
	return Language{
		Ending: "Total",
		MM:     "mm",
		CM:     "cm",
		M:      "m",
		KM:     "km",
		M2:     "m²",
		KM2:    "km²",
		MU:     "mu",
	}
}

// merge fills the empty fields of l from def.
func (l Language) merge(def Language) Language {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Language{
		Ending: pick(l.Ending, def.Ending),
		MM:     pick(l.MM, def.MM),
		CM:     pick(l.CM, def.CM),
		M:      pick(l.M, def.M),
		KM:     pick(l.KM, def.KM),
		M2:     pick(l.M2, def.M2),
		KM2:    pick(l.KM2, def.KM2),
		MU:     pick(l.MU, def.MU),
	}
}

// Symbol returns the printed symbol of a unit.
func (l Language) Symbol(unit string) string {
	switch strings.ToUpper(unit) {
	case string(units.MM):
		return l.MM
	case string(units.CM):
		return l.CM
	case string(units.M):
		return l.M
	case string(units.KM):
		return l.KM
	case string(units.M2):
		return l.M2
	case string(units.KM2):
		return l.KM2
	case string(units.MU):
		return l.MU
	}
	return unit
}

// DefaultPrecisions are the decimal places per unit. Units not listed use 0.
func DefaultPrecisions() map[string]int {
	return map[string]int{
		string(units.M):   1,
		string(units.KM):  2,
		string(units.M2):  2,
		string(units.MU):  2,
		string(units.KM2): 2,
	}
}

// ManagerOptions configures a Manager. OnRender of the digitizer options is
// replaced by the manager.
type ManagerOptions struct {
	Point      draw.Options
	LineString draw.Options
	Polygon    draw.Options

	Projector *geo.Projector
	Language  *Language
}

// Manager draws features with a coordinator and keeps the label and
// polygon direction sources of the host in sync with every drawn and
// custom feature.
type Manager struct {
	*draw.Coordinator

	host        draw.Host
	id          string
	directionID string

	features        map[string]*geojson.FeatureCollection
	units           Units
	precisions      map[string]int
	polygonDistance bool
	segments        bool
	lang            Language
	projector       *geo.Projector

	labels *geojson.FeatureCollection
	err    error
}

// NewManager creates a manager on host with automatic units.
func NewManager(host draw.Host, opts ManagerOptions) *Manager {
	m := &Manager{
		host:            host,
		id:              uuid.NewString(),
		directionID:     uuid.NewString(),
		features:        make(map[string]*geojson.FeatureCollection),
		units:           Units{Length: AutoLength, Area: AutoArea},
		precisions:      DefaultPrecisions(),
		polygonDistance: true,
		segments:        true,
		lang:            DefaultLanguage(),
		projector:       opts.Projector,
		labels:          geojson.NewFeatureCollection(),
	}
	if opts.Language != nil {
		m.lang = opts.Language.merge(m.lang)
	}

	refresh := func(t draw.Type, fc *geojson.FeatureCollection) {
		m.features[string(t)] = fc
		m.Render()
	}
	opts.Point.OnRender = refresh
	opts.LineString.OnRender = refresh
	opts.Polygon.OnRender = refresh

	m.Coordinator = draw.NewCoordinator(host, draw.CoordinatorOptions{
		Point:      opts.Point,
		LineString: opts.LineString,
		Polygon:    opts.Polygon,
		OnClear: func() {
			m.features = make(map[string]*geojson.FeatureCollection)
			m.Render()
		},
	})

	return m
}

// ID is the host data source holding the labels.
func (m *Manager) ID() string { return m.id }

// DirectionID is the host data source holding the measured features for
// the polygon direction layer.
func (m *Manager) DirectionID() string { return m.directionID }

// SetFeature adds a custom feature or replaces the custom feature with the
// same id. Polygons get a "clockwise" property from their outer ring.
// Features that cannot be measured are rejected and not stored.
func (m *Manager) SetFeature(f *geojson.Feature) error {
	feature := geo.CloneFeature(f)
	if _, err := Compute(feature.Geometry, m.options()); err != nil {
		return fmt.Errorf("feature %s: %w", geo.FeatureID(f), err)
	}
	if feature.Properties == nil {
		feature.Properties = geojson.Properties{}
	}
	if poly, ok := feature.Geometry.(orb.Polygon); ok && len(poly) > 0 {
		feature.Properties["clockwise"] = geo.Clockwise(poly[0])
	}

	fc, ok := m.features[sourceCustom]
	if !ok {
		fc = geojson.NewFeatureCollection()
		m.features[sourceCustom] = fc
	}

	id := geo.FeatureID(f)
	replaced := false
	if id != "" {
		for i, existing := range fc.Features {
			if geo.FeatureID(existing) == id {
				fc.Features[i] = feature
				replaced = true
				break
			}
		}
	}
	if !replaced {
		fc.Append(feature)
	}

	m.Render()
	return nil
}

// DelFeature removes the feature with id from every group. It reports
// whether anything was removed.
func (m *Manager) DelFeature(id string) bool {
	removed := false

	// drawn features live in their digitizer, which re-renders on removal
	for _, t := range draw.Types {
		if m.Digitizer(t).RemoveFeature(id) {
			removed = true
		}
	}

	if fc, ok := m.features[sourceCustom]; ok {
		kept := fc.Features[:0:0]
		for _, f := range fc.Features {
			if geo.FeatureID(f) == id {
				removed = true
				continue
			}
			kept = append(kept, f)
		}
		fc.Features = kept
	}

	if removed {
		m.Render()
	}
	return removed
}

// SetUnits changes the displayed units. Empty fields are left as they are.
func (m *Manager) SetUnits(u Units) error {
	changed := false

	if u.Length != "" {
		v := strings.ToUpper(u.Length)
		if v != AutoLength {
			l, err := units.ParseLength(v)
			if err != nil {
				return fmt.Errorf("length unit: %w", err)
			}
			v = string(l)
		}
		m.units.Length = v
		changed = true
	}

	if u.Area != "" {
		v := strings.ToUpper(u.Area)
		if v != AutoArea {
			a, err := units.ParseArea(v)
			if err != nil {
				return fmt.Errorf("area unit: %w", err)
			}
			v = string(a)
		}
		m.units.Area = v
		changed = true
	}

	if changed {
		m.Render()
	}
	return nil
}

// Units returns the current unit selection.
func (m *Manager) Units() Units { return m.units }

// SetPrecision sets the decimal places printed for unit.
func (m *Manager) SetPrecision(unit string, digits int) {
	if digits < 0 {
		digits = 0
	}
	m.precisions[strings.ToUpper(unit)] = digits
	m.Render()
}

// ShowPolygonDistance toggles the boundary length labels of polygons.
func (m *Manager) ShowPolygonDistance(show bool) {
	m.polygonDistance = show
	m.Render()
}

// ShowSegment toggles the segment-center labels.
func (m *Manager) ShowSegment(show bool) {
	m.segments = show
	m.Render()
}

// ShowPolygonDirection toggles the polygon direction layer.
func (m *Manager) ShowPolygonDirection(show bool) {
	m.host.SetVisibility(m.directionID, show)
}

// Features returns every measured feature in measuring order.
func (m *Manager) Features() []*geojson.Feature {
	var ret []*geojson.Feature
	for _, key := range featureOrder {
		if fc, ok := m.features[key]; ok {
			for _, f := range fc.Features {
				ret = append(ret, geo.CloneFeature(f))
			}
		}
	}
	return ret
}

// Labels returns a copy of the last rendered label collection.
func (m *Manager) Labels() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range m.labels.Features {
		fc.Append(geo.CloneFeature(f))
	}
	return fc
}

// Err returns the error of the last Render, if it failed.
func (m *Manager) Err() error { return m.err }

// Render recomputes every label and publishes the label and direction
// sources. On error the previous labels stay in place.
func (m *Manager) Render() {
	features := m.Features()

	labels, err := ComputeFeatures(features, m.options())
	m.err = err
	if err != nil {
		log.Error().Err(err).Str("source", m.id).Msg("Failed to compute measurement labels")
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, l := range labels {
		if l.SegmentCenter && !m.segments {
			continue
		}
		fc.Append(l.Feature())
	}
	m.labels = fc

	direction := geojson.NewFeatureCollection()
	for _, f := range features {
		direction.Append(f)
	}

	m.host.SetData(m.id, m.Labels())
	m.host.SetData(m.directionID, direction)

	log.Trace().
		Str("source", m.id).
		Int("features", len(features)).
		Int("labels", len(fc.Features)).
		Msg("Measurement labels rendered")
}

func (m *Manager) options() *Options {
	return &Options{
		Projector: m.projector,
		LineString: LineStringOptions{
			Format: func(length float64, _ int, _, _ bool) string {
				return m.formatLength(length)
			},
		},
		Polygon: PolygonOptions{
			OmitLineStrings: !m.polygonDistance,
			LineString: LineStringOptions{
				OmitStart: true,
				Format: func(length float64, _ int, end, _ bool) string {
					v := m.formatLength(length)
					if end {
						return m.lang.Ending + ": " + v
					}
					return v
				},
			},
			Format: m.formatArea,
		},
	}
}

func (m *Manager) formatLength(meters float64) string {
	u := m.units.Length
	if u == AutoLength {
		u = string(units.M)
		if meters > 1000 {
			u = string(units.KM)
		}
	}
	v, err := units.ConvertLength(meters, units.M, units.Length(u))
	if err != nil {
		return ""
	}
	return m.format(v, u)
}

func (m *Manager) formatArea(squareMeters float64) string {
	u := m.units.Area
	if u == AutoArea {
		u = string(units.M2)
		if squareMeters > 1000000 {
			u = string(units.KM2)
		}
	}
	v, err := units.ConvertArea(squareMeters, units.M2, units.Area(u))
	if err != nil {
		return ""
	}
	return m.format(v, u)
}

func (m *Manager) format(v float64, unit string) string {
	return strconv.FormatFloat(v, 'f', m.precisions[unit], 64) + " " + m.lang.Symbol(unit)
}
