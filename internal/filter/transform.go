package filter

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
)

// TransformFor returns the per-pixel transform for mode
func TransformFor(mode FilterMode) (PixelTransform, error) {
	switch mode {
	case ModeGrayscale:
		return Grayscale, nil
	case ModeInvert:
		return Invert, nil
	case ModeSepia:
		return Sepia, nil
	default:
		return nil, fmt.Errorf("unsupported filter mode: %q", mode)
	}
}

// Grayscale reduces a pixel to its Rec. 601 luminance, keeping alpha.
func Grayscale(c color.NRGBA) color.NRGBA {
	y := clamp(0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B))
	return color.NRGBA{R: y, G: y, B: y, A: c.A}
}

// Invert replaces each channel with its complement, keeping alpha.
func Invert(c color.NRGBA) color.NRGBA {
	return color.NRGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A}
}

// Sepia applies the classic sepia tone matrix, keeping alpha.
func Sepia(c color.NRGBA) color.NRGBA {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	return color.NRGBA{
		R: clamp(0.393*r + 0.769*g + 0.189*b),
		G: clamp(0.349*r + 0.686*g + 0.168*b),
		B: clamp(0.272*r + 0.534*g + 0.131*b),
		A: c.A,
	}
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// applyTransform copies src into a fresh NRGBA buffer and transforms it in row
// bands on the pool. Bands run inline once the pool is closed.
func applyTransform(src image.Image, transform PixelTransform, pool *WorkerPool) *image.NRGBA {
	dst := imaging.Clone(src)
	height := dst.Bounds().Dy()
	if height == 0 {
		return dst
	}

	bands := 1
	if pool != nil {
		bands = pool.Workers()
	}
	rowsPerBand := (height + bands - 1) / bands

	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += rowsPerBand {
		y0 := y0 // per-iteration copy; go directive is 1.21 (pre-1.22 loopvar semantics)
		y1 := min(y0+rowsPerBand, height)

		wg.Add(1)
		job := func() {
			defer wg.Done()
			transformRows(dst, transform, y0, y1)
		}
		if pool == nil || !pool.Submit(job) {
			job()
		}
	}
	wg.Wait()

	return dst
}

func transformRows(img *image.NRGBA, transform PixelTransform, y0, y1 int) {
	width := img.Bounds().Dx()
	for y := y0; y < y1; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for i := 0; i < len(row); i += 4 {
			out := transform(color.NRGBA{R: row[i], G: row[i+1], B: row[i+2], A: row[i+3]})
			row[i], row[i+1], row[i+2], row[i+3] = out.R, out.G, out.B, out.A
		}
	}
}
