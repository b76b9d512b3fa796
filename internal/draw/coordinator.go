package draw

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// ErrUnknownType is returned when starting a digitizer type the coordinator
// does not hold.
var ErrUnknownType = errors.New("unknown digitizer type")

// CoordinatorOptions configures the three digitizers and lifecycle hooks.
type CoordinatorOptions struct {
	Point      Options
	LineString Options
	Polygon    Options

	OnStart func()
	OnStop  func()
	OnClear func()
}

// Coordinator owns one digitizer per type and keeps at most one of them
// active.
type Coordinator struct {
	digitizers map[Type]*Digitizer
	current    Type
	opts       CoordinatorOptions
}

// NewCoordinator creates the point, line and polygon digitizers on host.
func NewCoordinator(host Host, opts CoordinatorOptions) *Coordinator {
	return &Coordinator{
		digitizers: map[Type]*Digitizer{
			TypePoint:      NewPoint(host, opts.Point),
			TypeLineString: NewLineString(host, opts.LineString),
			TypePolygon:    NewPolygon(host, opts.Polygon),
		},
		opts: opts,
	}
}

// Start stops the active digitizer, if any, and activates t.
func (c *Coordinator) Start(t Type) error {
	d, ok := c.digitizers[t]
	if !ok {
		return fmt.Errorf("start %q: %w", t, ErrUnknownType)
	}

	c.Stop()

	c.current = t
	d.Start()

	log.Debug().Str("type", string(t)).Msg("Coordinator switched digitizer")

	if c.opts.OnStart != nil {
		c.opts.OnStart()
	}
	return nil
}

// Stop deactivates the current digitizer.
func (c *Coordinator) Stop() {
	if d := c.Active(); d != nil {
		d.Stop()
	}
	c.current = ""

	if c.opts.OnStop != nil {
		c.opts.OnStop()
	}
}

// Clear clears all digitizers, active or not.
func (c *Coordinator) Clear() {
	for _, t := range Types {
		c.digitizers[t].Clear()
	}

	if c.opts.OnClear != nil {
		c.opts.OnClear()
	}
}

// Active returns the active digitizer, or nil. A digitizer that stopped
// itself, as Once digitizers do after a commit, is no longer current.
func (c *Coordinator) Active() *Digitizer {
	if c.current == "" {
		return nil
	}
	d := c.digitizers[c.current]
	if !d.Active() {
		c.current = ""
		return nil
	}
	return d
}

// Digitizer returns the digitizer for t, or nil.
func (c *Coordinator) Digitizer(t Type) *Digitizer {
	return c.digitizers[t]
}

// Back undoes the last vertex on the active digitizer.
func (c *Coordinator) Back() {
	if d := c.Active(); d != nil {
		d.Back()
	}
}

// AddPoint feeds a programmatic click to the active digitizer.
func (c *Coordinator) AddPoint(p orb.Point) {
	if d := c.Active(); d != nil {
		d.AddPoint(p)
	}
}
