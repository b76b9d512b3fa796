// Package draw turns pointer events on a map surface into point, line and
// polygon geometries.
//
// All state transitions run synchronously on the caller's goroutine. A
// digitizer is not safe for concurrent use, and OnDrawn/OnRender callbacks
// must not call Start or Stop on the digitizer that invoked them.
package draw

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// EventKind identifies a pointer gesture.
type EventKind int

// Pointer gestures delivered by the host.
const (
	Click EventKind = iota
	DoubleClick
	RightClick
	Move
)

var eventNames = map[EventKind]string{
	Click:       "click",
	DoubleClick: "dblclick",
	RightClick:  "contextmenu",
	Move:        "mousemove",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is a pointer gesture at a geographic position.
type Event struct {
	Kind EventKind
	Pos  orb.Point
}

// Host is the map surface a digitizer draws on.
type Host interface {
	// Focus routes pointer events to handler until release is called.
	Focus(handler func(Event)) (release func())
	SetCursor(cursor string)
	DisableDoubleClickZoom()
	// SetData replaces the whole content of a data source.
	SetData(source string, fc *geojson.FeatureCollection)
	SetVisibility(source string, visible bool)
	SetTip(text string)
}

// HeadlessHost is an in-memory Host. It keeps the last collection set on
// every source and forwards dispatched events to the focused handler.
type HeadlessHost struct {
	Cursor          string
	DoubleClickZoom bool
	Tip             string

	sources    map[string]*geojson.FeatureCollection
	hidden     map[string]bool
	handler    func(Event)
	focusToken int
}

// NewHeadlessHost returns a host with double-click zoom enabled and no data.
func NewHeadlessHost() *HeadlessHost {
	return &HeadlessHost{
		DoubleClickZoom: true,
		sources:         make(map[string]*geojson.FeatureCollection),
		hidden:          make(map[string]bool),
	}
}

// Focus implements Host. A new focus replaces the previous one; releasing a
// replaced focus is a no-op.
func (h *HeadlessHost) Focus(handler func(Event)) func() {
	h.focusToken++
	token := h.focusToken
	h.handler = handler

	return func() {
		if h.focusToken == token {
			h.handler = nil
		}
	}
}

// Focused reports whether some handler currently holds input focus.
func (h *HeadlessHost) Focused() bool {
	return h.handler != nil
}

// Dispatch delivers ev to the focused handler, if any.
func (h *HeadlessHost) Dispatch(ev Event) {
	if h.handler != nil {
		h.handler(ev)
	}
}

// SetCursor implements Host.
func (h *HeadlessHost) SetCursor(cursor string) {
	h.Cursor = cursor
}

// DisableDoubleClickZoom implements Host.
func (h *HeadlessHost) DisableDoubleClickZoom() {
	h.DoubleClickZoom = false
}

// SetData implements Host.
func (h *HeadlessHost) SetData(source string, fc *geojson.FeatureCollection) {
	h.sources[source] = fc
}

// SetVisibility implements Host.
func (h *HeadlessHost) SetVisibility(source string, visible bool) {
	h.hidden[source] = !visible
}

// SetTip implements Host.
func (h *HeadlessHost) SetTip(text string) {
	h.Tip = text
}

// Data returns the last collection set on source, or nil.
func (h *HeadlessHost) Data(source string) *geojson.FeatureCollection {
	return h.sources[source]
}

// Visible reports whether source is shown. Sources are visible by default.
func (h *HeadlessHost) Visible(source string) bool {
	return !h.hidden[source]
}
