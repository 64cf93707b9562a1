// Package export writes rendered overlays out as image files: PNG and JPEG
// stills, thumbnails, numbered frame sequences of an animation, and SVG
// documents rasterised through headless Chrome.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/overhuman/overlay/internal/anim"
	"github.com/overhuman/overlay/internal/canvas"
	"github.com/overhuman/overlay/internal/palette"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	SVG  Format = "svg"
)

// DefaultJPEGQuality is used when no quality is given.
const DefaultJPEGQuality = 90

var ErrUnsupportedFormat = errors.New("export: unsupported format")

// ParseFormat resolves a format name or file extension ("jpg", ".png").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromPath picks the format from a file extension, defaulting to PNG.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return PNG
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// EncodeJPEG writes img as JPEG. quality <= 0 uses DefaultJPEGQuality.
// Transparent pixels come out black; callers wanting a backdrop flatten first.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

// Encode writes img in the raster format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return EncodePNG(w, img)
	case JPEG:
		return EncodeJPEG(w, img, 0)
	}
	return fmt.Errorf("%w: %q is not a raster format", ErrUnsupportedFormat, f)
}

// Thumbnail scales img to width pixels, keeping the aspect ratio.
func Thumbnail(img image.Image, width int) *image.NRGBA {
	if width <= 0 {
		width = 320
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// Flatten composites img over an opaque background colour.
func Flatten(img image.Image, bg string) *image.NRGBA {
	b := img.Bounds()
	backdrop := imaging.New(b.Dx(), b.Dy(), hexNRGBA(bg))
	return imaging.Overlay(backdrop, img, image.Pt(0, 0), 1)
}

// hexNRGBA parses an opaque colour; unparsable input is black.
func hexNRGBA(s string) color.NRGBA {
	c, err := palette.Parse(s)
	if err != nil {
		return color.NRGBA{A: 255}
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// WriteFile encodes img into path, creating its directory.
func WriteFile(path string, img image.Image, f Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Capture advances frames at fps starting from start and snapshots surface
// after each frame, until no frame is pending or limit frames were taken.
// The animation must have been registered against frames before the call.
func Capture(ctx context.Context, frames *anim.ManualFrames, surface *canvas.Raster, start time.Time, fps, limit int) ([]*image.RGBA, error) {
	if fps <= 0 {
		fps = 60
	}
	step := time.Second / time.Duration(fps)

	var shots []*image.RGBA
	for i := 1; frames.Pending() > 0 && (limit <= 0 || len(shots) < limit); i++ {
		if err := ctx.Err(); err != nil {
			return shots, err
		}
		frames.Advance(start.Add(time.Duration(i) * step))
		shots = append(shots, surface.Snapshot())
	}
	return shots, nil
}

// WriteFrames writes each frame as <dir>/<prefix>-0001.png and so on, and
// returns the written paths in order.
func WriteFrames(dir, prefix string, frames []*image.RGBA) ([]string, error) {
	if prefix == "" {
		prefix = "frame"
	}
	paths := make([]string, 0, len(frames))
	for i, img := range frames {
		path := filepath.Join(dir, fmt.Sprintf("%s-%04d.png", prefix, i+1))
		if err := WriteFile(path, img, PNG); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
