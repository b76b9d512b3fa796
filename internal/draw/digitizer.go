package draw

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/dzmeasure/internal/geo"
)

// DrawingCursor is the cursor style set while a digitizer is active.
const DrawingCursor = "crosshair"

// TipOptions holds the hint texts shown next to the pointer.
type TipOptions struct {
	BeforeDrawing string `yaml:"before_drawing" json:"before_drawing"`
	Drawing       string `yaml:"drawing" json:"drawing"`
}

// Options configures a digitizer.
type Options struct {
	// OnDrawn is called with every committed geometry.
	OnDrawn func(id string, g orb.Geometry)
	// OnRender is called with a fresh snapshot after every mutation.
	OnRender func(t Type, fc *geojson.FeatureCollection)
	// Tip shows drawing hints when set.
	Tip *TipOptions
	// Once stops the digitizer after the first committed geometry.
	Once bool
}

// Digitizer converts pointer events into geometries of one Type. Committed
// features accumulate until Clear.
type Digitizer struct {
	kind    Type
	id      string
	host    Host
	machine machine
	opts    Options

	sketch    sketch
	committed []*geojson.Feature
	release   func()
	previewOn bool
	newID     func() string
}

// NewPoint returns a digitizer committing one point per click.
func NewPoint(host Host, opts Options) *Digitizer {
	return newDigitizer(TypePoint, pointMachine{}, host, opts)
}

// NewLineString returns a line digitizer.
func NewLineString(host Host, opts Options) *Digitizer {
	return newDigitizer(TypeLineString, lineMachine{}, host, opts)
}

// NewPolygon returns a polygon digitizer.
func NewPolygon(host Host, opts Options) *Digitizer {
	return newDigitizer(TypePolygon, polygonMachine{}, host, opts)
}

// New returns the digitizer for t, or nil for an unknown type.
func New(t Type, host Host, opts Options) *Digitizer {
	switch t {
	case TypePoint:
		return NewPoint(host, opts)
	case TypeLineString:
		return NewLineString(host, opts)
	case TypePolygon:
		return NewPolygon(host, opts)
	}
	return nil
}

func newDigitizer(t Type, m machine, host Host, opts Options) *Digitizer {
	return &Digitizer{
		kind:    t,
		id:      uuid.NewString(),
		host:    host,
		machine: m,
		opts:    opts,
		newID:   uuid.NewString,
	}
}

// Type returns the geometry kind this digitizer produces.
func (d *Digitizer) Type() Type { return d.kind }

// ID is the host data source the digitizer publishes its features to.
func (d *Digitizer) ID() string { return d.id }

// PreviewID is the host data source of the polygon closing preview line.
func (d *Digitizer) PreviewID() string { return d.id + "_line_addion" }

// Active reports whether the digitizer holds input focus.
func (d *Digitizer) Active() bool { return d.release != nil }

// Drawing reports whether an in-progress feature exists.
func (d *Digitizer) Drawing() bool { return d.sketch.drawing() }

// Start acquires input focus, sets the drawing cursor and disables the
// host's double-click zoom. Starting an active digitizer is a no-op.
func (d *Digitizer) Start() {
	if d.Active() {
		return
	}

	d.release = d.host.Focus(d.Handle)
	d.host.SetCursor(DrawingCursor)
	d.host.DisableDoubleClickZoom()
	d.updateTip()

	log.Debug().Str("type", string(d.kind)).Str("source", d.id).Msg("Digitizer started")
}

// Stop discards any in-progress feature and releases input focus.
func (d *Digitizer) Stop() {
	if d.sketch.drawing() {
		log.Debug().
			Str("type", string(d.kind)).
			Str("feature", d.sketch.id).
			Msg("Discarding unfinished feature")
		d.sketch = sketch{}
		d.publish()
	}
	d.clearPreview()

	if d.release != nil {
		d.release()
		d.release = nil
	}
	d.host.SetCursor("")
	if d.opts.Tip != nil {
		d.host.SetTip("")
	}

	log.Debug().Str("type", string(d.kind)).Msg("Digitizer stopped")
}

// Clear removes committed and in-progress features. Whether the digitizer
// is active does not change.
func (d *Digitizer) Clear() {
	d.sketch = sketch{}
	d.committed = nil
	d.publish()
	d.clearPreview()
	d.updateTip()
}

// AddPoint feeds a programmatic click at p.
func (d *Digitizer) AddPoint(p orb.Point) {
	d.Handle(Event{Kind: Click, Pos: p})
}

// Back removes the last confirmed vertex of the in-progress feature, the
// same as a right-click on that vertex. Point digitizers ignore it.
func (d *Digitizer) Back() {
	p, ok := d.machine.undo(d.sketch)
	if !ok {
		return
	}
	d.Handle(Event{Kind: RightClick, Pos: p})
}

// RemoveFeature drops the committed feature with id. It reports whether a
// feature was removed.
func (d *Digitizer) RemoveFeature(id string) bool {
	for i, f := range d.committed {
		if geo.FeatureID(f) == id {
			d.committed = append(d.committed[:i:i], d.committed[i+1:]...)
			d.publish()
			return true
		}
	}
	return false
}

// Features returns a snapshot of the committed features plus the
// in-progress one.
func (d *Digitizer) Features() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range d.committed {
		fc.Append(geo.CloneFeature(f))
	}
	if f := d.inProgress(); f != nil {
		fc.Append(f)
	}
	return fc
}

// Handle applies one pointer event.
func (d *Digitizer) Handle(ev Event) {
	wasDrawing := d.sketch.drawing()

	next, intents := d.machine.step(d.sketch, ev, d.newID)
	d.sketch = next

	log.Trace().
		Str("type", string(d.kind)).
		Stringer("event", ev.Kind).
		Int("vertices", len(next.vertices)).
		Int("intents", len(intents)).
		Msg("Pointer event")

	if wasDrawing != next.drawing() {
		d.updateTip()
	}
	d.apply(intents)
}

func (d *Digitizer) apply(intents []intent) {
	for _, in := range intents {
		switch in.kind {
		case intentRender:
			d.publish()

		case intentDiscard:
			log.Debug().
				Str("type", string(d.kind)).
				Str("feature", in.id).
				Str("reason", in.reason).
				Msg("Feature discarded")
			d.publish()

		case intentPreview:
			d.setPreview(in.geometry)

		case intentCommit:
			f := geo.NewFeature(in.id, in.geometry)
			if poly, ok := in.geometry.(orb.Polygon); ok && len(poly) > 0 {
				f.Properties["clockwise"] = geo.Clockwise(poly[0])
			}
			d.committed = append(d.committed, f)
			log.Debug().
				Str("type", string(d.kind)).
				Str("feature", in.id).
				Msg("Feature drawn")

			if d.opts.OnDrawn != nil {
				d.opts.OnDrawn(in.id, orb.Clone(in.geometry))
			}
			d.publish()

			if d.opts.Once {
				d.Stop()
			}
		}
	}
}

func (d *Digitizer) inProgress() *geojson.Feature {
	if !d.sketch.drawing() {
		return nil
	}
	g := d.machine.geometry(d.sketch)
	if g == nil {
		return nil
	}

	f := geo.NewFeature(d.sketch.id, g)
	for k, v := range d.machine.properties(d.sketch) {
		f.Properties[k] = v
	}
	return f
}

// publish replaces the host data source and notifies OnRender. Each call
// builds a new collection, so receivers never observe later mutations.
func (d *Digitizer) publish() {
	d.host.SetData(d.id, d.Features())
	if d.opts.OnRender != nil {
		d.opts.OnRender(d.kind, d.Features())
	}
}

func (d *Digitizer) setPreview(g orb.Geometry) {
	if g == nil {
		d.clearPreview()
		return
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(g))
	d.host.SetData(d.PreviewID(), fc)
	d.previewOn = true
}

func (d *Digitizer) clearPreview() {
	if d.kind != TypePolygon {
		return
	}
	d.previewOn = false
	d.host.SetData(d.PreviewID(), geojson.NewFeatureCollection())
}

// Preview reports whether the closing preview line is shown.
func (d *Digitizer) Preview() bool { return d.previewOn }

func (d *Digitizer) updateTip() {
	if d.opts.Tip == nil || !d.Active() {
		return
	}
	if d.sketch.drawing() {
		d.host.SetTip(d.opts.Tip.Drawing)
		return
	}
	d.host.SetTip(d.opts.Tip.BeforeDrawing)
}
