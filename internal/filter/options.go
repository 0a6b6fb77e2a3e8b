package filter

import (
	"fmt"
	"os"
	"strings"
)

// FilterMode selects the per-pixel transform
type FilterMode string

const (
	ModeGrayscale FilterMode = "grayscale"
	ModeInvert    FilterMode = "invert"
	ModeSepia     FilterMode = "sepia"
)

// ParseFilterMode normalizes a configured mode name
func ParseFilterMode(name string) (FilterMode, error) {
	mode := FilterMode(strings.ToLower(strings.TrimSpace(name)))
	switch mode {
	case ModeGrayscale, ModeInvert, ModeSepia:
		return mode, nil
	case "greyscale":
		return ModeGrayscale, nil
	default:
		return "", fmt.Errorf("unsupported filter mode: %q", name)
	}
}

// FilterOptions configures the filter pipeline
type FilterOptions struct {
	Mode FilterMode

	// Output
	JPEGQuality int
	TempDir     string

	// Decoded images larger than this are rejected before allocation
	MaxPixels int64
}

// DefaultOptions returns default filter options
func DefaultOptions() FilterOptions {
	return FilterOptions{
		Mode:        ModeGrayscale,
		JPEGQuality: 90,
		TempDir:     os.TempDir(),
		MaxPixels:   50_000_000,
	}
}

// WithMode returns options using the given transform
func (opts FilterOptions) WithMode(mode FilterMode) FilterOptions {
	opts.Mode = mode
	return opts
}

// WithJPEGQuality returns options with a custom output quality
func (opts FilterOptions) WithJPEGQuality(quality int) FilterOptions {
	opts.JPEGQuality = quality
	return opts
}

// WithTempDir returns options writing filtered files under dir
func (opts FilterOptions) WithTempDir(dir string) FilterOptions {
	opts.TempDir = dir
	return opts
}

// WithMaxPixels returns options with a custom decoded size limit
func (opts FilterOptions) WithMaxPixels(maxPixels int64) FilterOptions {
	opts.MaxPixels = maxPixels
	return opts
}
