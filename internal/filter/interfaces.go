package filter

import (
	"context"
	"image/color"
)

// ImageFilter turns a remote image into a filtered local file
type ImageFilter interface {
	// FilterImageFromURL returns the absolute path of a newly created file.
	// The caller owns the file and must delete it.
	FilterImageFromURL(ctx context.Context, imageURL string) (string, error)
}

// Fetcher retrieves raw image bytes
type Fetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// PixelTransform maps one pixel to its filtered value. It must depend only on its input.
type PixelTransform func(c color.NRGBA) color.NRGBA
