// Package snapshot renders measured features and their labels into a
// raster image.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/woozymasta/dzmeasure/internal/geo"
)

const (
	DefaultWidth   = 1024
	DefaultHeight  = 768
	DefaultPadding = 32
	// MaxSize bounds both canvas dimensions.
	MaxSize = 4096

	lineWidth  = 3
	pointSize  = 5
	haloRadius = 1
)

// label text sizes follow the map layer: segments small, areas large
const (
	sizeSegment = 12
	sizeLine    = 14
	sizeArea    = 16
)

var (
	colorBackground = color.NRGBA{R: 0xf4, G: 0xf4, B: 0xf1, A: 0xff}
	colorFill       = color.NRGBA{R: 0x38, G: 0x87, B: 0xbe, A: 0x55}
	colorStroke     = color.NRGBA{R: 0x38, G: 0x87, B: 0xbe, A: 0xff}
	colorPoint      = color.NRGBA{R: 0xe5, G: 0x5e, B: 0x0e, A: 0xff}
	colorText       = color.Black
	colorSegment    = color.NRGBA{R: 0xff, A: 0xff}
	colorHalo       = color.White
)

// Options configures Render.
type Options struct {
	// Background is scaled to the canvas when set.
	Background image.Image
	Width      int
	Height     int
	Padding    int
	// NoSegments hides the segment-center labels.
	NoSegments bool
}

func (o Options) size() (w, h, pad int) {
	w, h, pad = o.Width, o.Height, o.Padding
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	w, h = min(w, MaxSize), min(h, MaxSize)
	if pad <= 0 || 2*pad >= w || 2*pad >= h {
		pad = DefaultPadding
		if 2*pad >= w || 2*pad >= h {
			pad = 0
		}
	}
	return w, h, pad
}

// Render draws features with an equirectangular projection fitted to the
// canvas, then the labels on top of them.
func Render(features, labels *geojson.FeatureCollection, opts Options) (*image.RGBA, error) {
	w, h, pad := opts.size()

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if opts.Background != nil {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), opts.Background, opts.Background.Bounds(), draw.Src, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)
	}

	var all []*geojson.Feature
	if features != nil {
		all = append(all, features.Features...)
	}
	if labels != nil {
		all = append(all, labels.Features...)
	}
	if len(all) == 0 {
		return dst, nil
	}

	c := newCanvas(dst, fit(all, w, h, pad))
	defer c.close()

	if features != nil {
		for _, f := range features.Features {
			if err := c.geometry(f.Geometry); err != nil {
				return nil, fmt.Errorf("render feature %s: %w", geo.FeatureID(f), err)
			}
		}
	}

	if labels != nil {
		for _, l := range labels.Features {
			p, ok := l.Geometry.(orb.Point)
			if !ok {
				continue
			}
			center, _ := l.Properties["center"].(bool)
			if center && opts.NoSegments {
				continue
			}
			if err := c.text(p, l.Properties.MustString("value", ""), l.Properties.MustString("type", ""), center); err != nil {
				return nil, err
			}
		}
	}

	return dst, nil
}

// transform maps lon/lat to pixels.
type transform struct {
	minX, maxY float64
	scale      float64
	offX, offY float64
}

func (t transform) apply(p orb.Point) (float32, float32) {
	return float32(t.offX + (p[0]-t.minX)*t.scale), float32(t.offY + (t.maxY-p[1])*t.scale)
}

func fit(features []*geojson.Feature, w, h, pad int) transform {
	var (
		b     orb.Bound
		found bool
	)
	for _, f := range features {
		if f.Geometry == nil {
			continue
		}
		if !found {
			b, found = f.Geometry.Bound(), true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}

	innerW, innerH := float64(w-2*pad), float64(h-2*pad)
	dx, dy := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]

	scale := 1.0
	switch {
	case dx > 0 && dy > 0:
		scale = math.Min(innerW/dx, innerH/dy)
	case dx > 0:
		scale = innerW / dx
	case dy > 0:
		scale = innerH / dy
	}

	// center the content inside the padded area
	return transform{
		minX:  b.Min[0],
		maxY:  b.Max[1],
		scale: scale,
		offX:  float64(pad) + (innerW-dx*scale)/2,
		offY:  float64(pad) + (innerH-dy*scale)/2,
	}
}

type canvas struct {
	dst   *image.RGBA
	r     *vector.Rasterizer
	faces map[float64]font.Face
	t     transform
}

func newCanvas(dst *image.RGBA, t transform) *canvas {
	b := dst.Bounds()
	return &canvas{
		dst:   dst,
		r:     vector.NewRasterizer(b.Dx(), b.Dy()),
		faces: make(map[float64]font.Face),
		t:     t,
	}
}

func (c *canvas) paint(col color.Color) {
	c.r.Draw(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{})
	b := c.dst.Bounds()
	c.r.Reset(b.Dx(), b.Dy())
}

func (c *canvas) geometry(g orb.Geometry) error {
	switch g := g.(type) {
	case orb.Point:
		c.point(g)
	case orb.MultiPoint:
		for _, p := range g {
			c.point(p)
		}
	case orb.LineString:
		c.stroke(g)
	case orb.MultiLineString:
		for _, l := range g {
			c.stroke(l)
		}
	case orb.Polygon:
		c.polygon(g)
	case orb.MultiPolygon:
		for _, p := range g {
			c.polygon(p)
		}
	case orb.Collection:
		for _, sub := range g {
			if err := c.geometry(sub); err != nil {
				return err
			}
		}
	default:
		return geo.Unsupported(g)
	}
	return nil
}

func (c *canvas) polygon(poly orb.Polygon) {
	for _, ring := range poly {
		if len(ring) < 3 {
			continue
		}
		for i, p := range ring {
			x, y := c.t.apply(p)
			if i == 0 {
				c.r.MoveTo(x, y)
				continue
			}
			c.r.LineTo(x, y)
		}
		c.r.ClosePath()
	}
	c.paint(colorFill)

	for _, ring := range poly {
		c.stroke(ring)
	}
}

// stroke draws every segment as a quad of lineWidth pixels.
func (c *canvas) stroke(line []orb.Point) {
	for i := 1; i < len(line); i++ {
		x0, y0 := c.t.apply(line[i-1])
		x1, y1 := c.t.apply(line[i])

		dx, dy := x1-x0, y1-y0
		length := float32(math.Hypot(float64(dx), float64(dy)))
		if length == 0 {
			continue
		}
		nx, ny := -dy/length*lineWidth/2, dx/length*lineWidth/2

		c.r.MoveTo(x0+nx, y0+ny)
		c.r.LineTo(x1+nx, y1+ny)
		c.r.LineTo(x1-nx, y1-ny)
		c.r.LineTo(x0-nx, y0-ny)
		c.r.ClosePath()
	}
	c.paint(colorStroke)

	for _, p := range line {
		c.vertex(p, lineWidth)
	}
	c.paint(colorStroke)
}

func (c *canvas) point(p orb.Point) {
	c.vertex(p, pointSize)
	c.paint(colorPoint)
}

// vertex adds an octagon of radius r around p to the current path.
func (c *canvas) vertex(p orb.Point, r float64) {
	x, y := c.t.apply(p)
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		vx, vy := x+float32(r*math.Cos(a)), y+float32(r*math.Sin(a))
		if i == 0 {
			c.r.MoveTo(vx, vy)
			continue
		}
		c.r.LineTo(vx, vy)
	}
	c.r.ClosePath()
}

func (c *canvas) text(p orb.Point, value, kind string, center bool) error {
	if value == "" {
		return nil
	}

	size, col := float64(sizeLine), color.Color(colorText)
	switch {
	case center:
		size, col = sizeSegment, colorSegment
	case kind == "Polygon":
		size = sizeArea
	}

	face, err := c.face(size)
	if err != nil {
		return err
	}

	// centered on the anchor like a symbol layer
	x, y := c.t.apply(p)
	width := font.MeasureString(face, value)
	dot := fixed.Point26_6{
		X: fixed.Int26_6(x*64) - width/2,
		Y: fixed.Int26_6(y*64) + face.Metrics().Ascent/2,
	}

	d := &font.Drawer{Dst: c.dst, Face: face, Src: image.NewUniform(colorHalo)}
	for ox := -haloRadius; ox <= haloRadius; ox++ {
		for oy := -haloRadius; oy <= haloRadius; oy++ {
			if ox == 0 && oy == 0 {
				continue
			}
			d.Dot = dot.Add(fixed.P(ox, oy))
			d.DrawString(value)
		}
	}

	d.Src = image.NewUniform(col)
	d.Dot = dot
	d.DrawString(value)

	return nil
}

var (
	fontOnce  sync.Once
	fontErr   error
	labelFont *opentype.Font
)

// face returns the Go Regular face of the given pixel size. Faces are not
// safe for concurrent use, so every canvas keeps its own.
func (c *canvas) face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		labelFont, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("parse label font: %w", fontErr)
	}

	if f, ok := c.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(labelFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	c.faces[size] = f
	return f, nil
}

func (c *canvas) close() {
	for _, f := range c.faces {
		_ = f.Close()
	}
}
