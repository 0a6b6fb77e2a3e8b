package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/anime-shed/image-filter-go/internal/logger"
	"github.com/anime-shed/image-filter-go/internal/observer"
)

// Reaper deletes local temporary files.
type Reaper interface {
	DeleteLocalFiles(ctx context.Context, paths []string) error
}

// TempFileReaper removes files from local ephemeral storage.
type TempFileReaper struct {
	publisher *observer.EventPublisher
}

// NewTempFileReaper creates a reaper; publisher may be nil.
func NewTempFileReaper(publisher *observer.EventPublisher) *TempFileReaper {
	return &TempFileReaper{publisher: publisher}
}

// DeleteLocalFiles attempts every path. Already-missing files count as deleted;
// other failures are logged and joined into the returned error without stopping
// the remaining deletions.
func (r *TempFileReaper) DeleteLocalFiles(ctx context.Context, paths []string) error {
	var errs []error

	for _, path := range paths {
		if path == "" {
			continue
		}

		err := os.Remove(path)
		switch {
		case err == nil:
			logger.FromContext(ctx).WithField("path", path).Debug("Temporary file deleted")
			r.publisher.NotifyObservers(ctx, observer.FilterEvent{
				EventType: observer.TempFileReaped,
				Path:      path,
				Success:   true,
			})
		case errors.Is(err, fs.ErrNotExist):
			logger.FromContext(ctx).WithField("path", path).Debug("Temporary file already gone, skipping delete")
		default:
			logger.FromContext(ctx).WithError(err).WithField("path", path).Warn("Failed to delete temporary file")
			r.publisher.NotifyObservers(ctx, observer.FilterEvent{
				EventType:    observer.TempFileReapFailed,
				Path:         path,
				ErrorMessage: err.Error(),
			})
			errs = append(errs, fmt.Errorf("delete %s: %w", path, err))
		}
	}

	return errors.Join(errs...)
}

// DeleteLocalFiles removes paths with a reaper that publishes no events.
func DeleteLocalFiles(ctx context.Context, paths ...string) error {
	return NewTempFileReaper(nil).DeleteLocalFiles(ctx, paths)
}
