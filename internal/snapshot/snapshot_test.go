package snapshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	xwebp "golang.org/x/image/webp"

	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/measure"
)

func collection(geoms ...orb.Geometry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, g := range geoms {
		fc.Append(geojson.NewFeature(g))
	}
	return fc
}

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func TestRenderPolygon(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}

	img, err := Render(collection(square), nil, Options{Width: 200, Height: 100, Padding: 10})
	if err != nil {
		t.Fatal(err)
	}

	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("unexpected size %v", b)
	}
	if !sameColor(img.At(0, 0), colorBackground) {
		t.Errorf("corner is not background: %v", img.At(0, 0))
	}
	// the square is fitted to 80x80 pixels centered on the canvas
	if c := img.At(100, 50); sameColor(c, colorBackground) {
		t.Errorf("center is not filled: %v", c)
	}
	if !sameColor(img.At(20, 50), colorBackground) {
		t.Errorf("pixel left of the square is painted: %v", img.At(20, 50))
	}
}

func TestRenderLabels(t *testing.T) {
	line := orb.LineString{{0, 0}, {0.01, 0}}
	labels, err := measure.ComputeMeasurement(line, &measure.Options{Projector: geo.NewProjector(geo.Planar)})
	if err != nil {
		t.Fatal(err)
	}

	plain, err := Render(collection(line), nil, Options{Width: 300, Height: 200})
	if err != nil {
		t.Fatal(err)
	}
	labeled, err := Render(collection(line), labels, Options{Width: 300, Height: 200})
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(plain.Pix, labeled.Pix) {
		t.Error("labels did not change the image")
	}
}

func TestRenderEmptyAndUnsupported(t *testing.T) {
	img, err := Render(nil, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != DefaultWidth || b.Dy() != DefaultHeight {
		t.Errorf("unexpected default size %v", b)
	}

	_, err = Render(collection(orb.Bound{Max: orb.Point{1, 1}}), nil, Options{})
	var unsupported *geo.UnsupportedGeometryTypeError
	if !errors.As(err, &unsupported) {
		t.Errorf("expected UnsupportedGeometryTypeError, got %v", err)
	}
}

func TestRenderClampsSize(t *testing.T) {
	w, h, _ := Options{Width: 60000, Height: 10}.size()
	if w != MaxSize || h != 10 {
		t.Errorf("expected %dx10, got %dx%d", MaxSize, w, h)
	}
}

func TestRenderBackground(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range bg.Pix {
		bg.Pix[i] = 0xff
	}

	img, err := Render(collection(orb.Point{0, 0}), nil, Options{Width: 64, Height: 64, Background: bg})
	if err != nil {
		t.Fatal(err)
	}
	if r, g, b, _ := img.At(1, 1).RGBA(); r < 0xf000 || g < 0xf000 || b < 0xf000 {
		t.Errorf("background not scaled to canvas: %v", img.At(1, 1))
	}
}

func TestEncode(t *testing.T) {
	img, err := Render(collection(orb.Point{0, 0}), nil, Options{Width: 32, Height: 16})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, EncodeOptions{Format: FormatPNG}); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("png bounds mismatch: %v", decoded.Bounds())
	}

	buf.Reset()
	if err := Encode(&buf, img, EncodeOptions{Lossless: true}); err != nil {
		t.Fatal(err)
	}
	decoded, err = xwebp.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 32 || decoded.Bounds().Dy() != 16 {
		t.Errorf("webp bounds mismatch: %v", decoded.Bounds())
	}

	if err := Encode(&buf, img, EncodeOptions{Format: "gif"}); err == nil {
		t.Error("expected error for unsupported format")
	}
	if ct := (EncodeOptions{Format: "PNG"}).ContentType(); ct != "image/png" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestLoadBackground(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.png")

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	img, err := LoadBackground(context.Background(), nil, path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBackground(context.Background(), nil, path); err == nil {
		t.Error("expected decode error")
	}
}
