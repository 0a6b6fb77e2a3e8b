package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	// Extra decoders on top of the jpeg/png/gif/bmp/tiff set imaging registers
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/image-filter-go/internal/errors"
	"github.com/anime-shed/image-filter-go/internal/logger"
	"github.com/anime-shed/image-filter-go/internal/observer"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// URLImageFilter fetches, decodes, transforms and re-encodes images into uniquely named temp files
type URLImageFilter struct {
	fetcher   Fetcher
	transform PixelTransform
	pool      *WorkerPool
	options   FilterOptions
	publisher *observer.EventPublisher
}

// NewImageFilter creates the pipeline. The temp directory is created if missing.
// pool and publisher may be nil.
func NewImageFilter(fetcher Fetcher, pool *WorkerPool, publisher *observer.EventPublisher, options FilterOptions) (*URLImageFilter, error) {
	transform, err := TransformFor(options.Mode)
	if err != nil {
		return nil, err
	}
	if options.JPEGQuality < 1 || options.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg quality must be between 1 and 100 (got %d)", options.JPEGQuality)
	}

	tempDir, err := filepath.Abs(options.TempDir)
	if err != nil {
		return nil, fmt.Errorf("invalid temp dir %q: %w", options.TempDir, err)
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	options.TempDir = tempDir

	return &URLImageFilter{
		fetcher:   fetcher,
		transform: transform,
		pool:      pool,
		options:   options,
		publisher: publisher,
	}, nil
}

// FilterImageFromURL implements ImageFilter. A file exists at the returned path
// only when err is nil.
func (f *URLImageFilter) FilterImageFromURL(ctx context.Context, imageURL string) (string, error) {
	start := time.Now()
	log := logger.FromContext(ctx).WithField("url", imageURL)

	f.publisher.NotifyObservers(ctx, observer.FilterEvent{
		EventType: observer.FilterStarted,
		ImageURL:  imageURL,
	})

	data, err := f.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeFetch) {
			err = apperrors.NewFetchError("failed to fetch image", err)
		}
		f.fail(ctx, observer.ImageFetchFailed, imageURL, start, err)
		return "", err
	}
	f.publisher.NotifyObservers(ctx, observer.FilterEvent{
		EventType: observer.ImageFetched,
		ImageURL:  imageURL,
		Success:   true,
		Metadata:  map[string]interface{}{"bytes": len(data)},
	})

	img, err := f.decode(data)
	if err != nil {
		f.fail(ctx, observer.FilterFailed, imageURL, start, err)
		return "", err
	}

	filtered := applyTransform(img, f.transform, f.pool)

	path, err := f.writeTempFile(filtered)
	if err != nil {
		f.fail(ctx, observer.FilterFailed, imageURL, start, err)
		return "", err
	}

	log.WithFields(logrus.Fields{
		"path":   path,
		"mode":   f.options.Mode,
		"width":  filtered.Bounds().Dx(),
		"height": filtered.Bounds().Dy(),
	}).Debug("Filtered image written")
	f.publisher.NotifyObservers(ctx, observer.FilterEvent{
		EventType:      observer.FilterCompleted,
		ImageURL:       imageURL,
		Path:           path,
		ProcessingTime: time.Since(start),
		Success:        true,
	})

	return path, nil
}

func (f *URLImageFilter) decode(data []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("unsupported or corrupt image data", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > f.options.MaxPixels {
		return nil, apperrors.NewDecodeError(
			fmt.Sprintf("%s image of %dx%d exceeds the limit of %d pixels", format, cfg.Width, cfg.Height, f.options.MaxPixels), nil)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, apperrors.NewDecodeError("decoded image is empty", nil)
	}
	return img, nil
}

// writeTempFile encodes img as JPEG into a new file. O_EXCL guarantees the
// file belongs to this call alone; partial files are removed on failure.
func (f *URLImageFilter) writeTempFile(img image.Image) (string, error) {
	path := filepath.Join(f.options.TempDir, fmt.Sprintf("filtered.%s.jpg", uuid.NewString()))

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", apperrors.NewWriteError("failed to create temporary file", err)
	}

	encodeErr := imaging.Encode(file, img, imaging.JPEG, imaging.JPEGQuality(f.options.JPEGQuality))
	closeErr := file.Close()
	if err := errors.Join(encodeErr, closeErr); err != nil {
		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.WithError(removeErr).WithField("path", path).Warn("Failed to remove partial temporary file")
		}
		return "", apperrors.NewWriteError("failed to write temporary file", err)
	}

	return path, nil
}

func (f *URLImageFilter) fail(ctx context.Context, eventType observer.EventType, imageURL string, start time.Time, err error) {
	f.publisher.NotifyObservers(ctx, observer.FilterEvent{
		EventType:      eventType,
		ImageURL:       imageURL,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}
