package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/woozymasta/dzmeasure/internal/source"
)

// Image formats.
const (
	FormatWebP = "webp"
	FormatPNG  = "png"
)

// DefaultQuality is the lossy WebP quality.
const DefaultQuality = 85

// EncodeOptions configures Encode.
type EncodeOptions struct {
	Format   string
	Quality  float32
	Lossless bool
}

// ContentType returns the MIME type of the configured format.
func (o EncodeOptions) ContentType() string {
	if o.format() == FormatPNG {
		return "image/png"
	}
	return "image/webp"
}

func (o EncodeOptions) format() string {
	if o.Format == "" {
		return FormatWebP
	}
	return strings.ToLower(o.Format)
}

// Encode writes img as WebP (default) or PNG.
func Encode(w io.Writer, img image.Image, opts EncodeOptions) error {
	switch opts.format() {
	case FormatWebP:
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = DefaultQuality
		}
		return webp.Encode(w, img, &webp.Options{Lossless: opts.Lossless, Quality: quality})
	case FormatPNG:
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format %q", opts.Format)
	}
}

// LoadBackground reads and decodes a base image from a file or URL. JPEG,
// PNG, BMP, TIFF and WebP are accepted.
func LoadBackground(ctx context.Context, client *http.Client, src string) (image.Image, error) {
	data, err := source.Read(ctx, client, src)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	log.Debug().
		Str("source", src).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Background image decoded")
	return img, nil
}
