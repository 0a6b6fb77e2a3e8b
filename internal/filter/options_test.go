package filter

import (
	"os"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Mode != ModeGrayscale {
		t.Errorf("Expected grayscale mode by default, got %q", opts.Mode)
	}
	if opts.JPEGQuality != 90 {
		t.Errorf("Expected JPEGQuality to be 90, got %d", opts.JPEGQuality)
	}
	if opts.TempDir != os.TempDir() {
		t.Errorf("Expected TempDir %q, got %q", os.TempDir(), opts.TempDir)
	}
	if opts.MaxPixels != 50_000_000 {
		t.Errorf("Expected MaxPixels to be 50000000, got %d", opts.MaxPixels)
	}
}

func TestOptionBuilders(t *testing.T) {
	base := DefaultOptions()
	opts := base.WithMode(ModeSepia).WithJPEGQuality(75).WithTempDir("/tmp/x").WithMaxPixels(10)

	if opts.Mode != ModeSepia || opts.JPEGQuality != 75 || opts.TempDir != "/tmp/x" || opts.MaxPixels != 10 {
		t.Errorf("Unexpected options: %+v", opts)
	}
	if base.Mode != ModeGrayscale {
		t.Error("Expected builders not to modify the receiver")
	}
}

func TestParseFilterMode(t *testing.T) {
	tests := []struct {
		input    string
		expected FilterMode
		wantErr  bool
	}{
		{"grayscale", ModeGrayscale, false},
		{" Greyscale ", ModeGrayscale, false},
		{"INVERT", ModeInvert, false},
		{"sepia", ModeSepia, false},
		{"", "", true},
		{"blur", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseFilterMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFilterMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if mode != tt.expected {
				t.Errorf("ParseFilterMode(%q) = %q, want %q", tt.input, mode, tt.expected)
			}
		})
	}
}
