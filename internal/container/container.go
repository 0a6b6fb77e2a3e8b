package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/image-filter-go/internal/config"
	"github.com/anime-shed/image-filter-go/internal/factory"
	"github.com/anime-shed/image-filter-go/internal/filter"
	"github.com/anime-shed/image-filter-go/internal/logger"
	"github.com/anime-shed/image-filter-go/internal/observer"
	"github.com/anime-shed/image-filter-go/internal/storage"
	"github.com/anime-shed/image-filter-go/internal/transport"
	"github.com/anime-shed/image-filter-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	publisher    *observer.EventPublisher
	metrics      *observer.MetricsObserver
	imageFetcher storage.ImageFetcher
	workerPool   *filter.WorkerPool
	imageFilter  filter.ImageFilter
	reaper       storage.Reaper
	handler      http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	components := factory.NewComponentFactory(cfg)

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	imageFetcher, err := components.StorageFactory.CreateStorage(factory.StorageTypeFor(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create image fetcher: %w", err)
	}

	options, err := components.FilterFactory.CreateOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create filter options: %w", err)
	}

	workerPool := filter.NewWorkerPool(cfg.FilterWorkers)
	imageFilter, err := filter.NewImageFilter(imageFetcher, workerPool, publisher, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create image filter: %w", err)
	}
	workerPool.Start()

	reaper := storage.NewTempFileReaper(publisher)
	handler := transport.NewHandler(imageFilter, reaper, validation.NewURLValidator(), publisher, cfg.RequestTimeout)

	return &Container{
		config:       cfg,
		publisher:    publisher,
		metrics:      metrics,
		imageFetcher: imageFetcher,
		workerPool:   workerPool,
		imageFilter:  imageFilter,
		reaper:       reaper,
		handler:      handler.Router(),
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Metrics returns the pipeline counters together with the worker pool stats
func (c *Container) Metrics() map[string]interface{} {
	metrics := c.metrics.GetMetrics()

	stats := c.workerPool.GetStats()
	metrics["pool_workers"] = stats.Workers
	metrics["pool_total_jobs"] = stats.TotalJobs
	metrics["pool_completed_jobs"] = stats.CompletedJobs
	metrics["pool_active_workers"] = stats.ActiveWorkers

	return metrics
}

// Close stops the worker pool and waits for queued bands to finish.
// In-flight requests must have drained first.
func (c *Container) Close() {
	c.workerPool.Close()
	c.workerPool.Wait()
}
