package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FilterEvent represents a step of the filter pipeline
type FilterEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ImageURL       string                 `json:"image_url,omitempty"`
	Path           string                 `json:"path,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	FilterStarted      EventType = "filter_started"
	ImageFetched       EventType = "image_fetched"
	ImageFetchFailed   EventType = "image_fetch_failed"
	FilterCompleted    EventType = "filter_completed"
	FilterFailed       EventType = "filter_failed"
	FileSent           EventType = "file_sent"
	SendFailed         EventType = "send_failed"
	TempFileReaped     EventType = "temp_file_reaped"
	TempFileReapFailed EventType = "temp_file_reap_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event FilterEvent)
	GetObserverName() string
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event FilterEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.ImageURL != "" {
		fields["image_url"] = event.ImageURL
	}
	if event.Path != "" {
		fields["path"] = event.Path
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case FilterStarted, ImageFetched, TempFileReaped:
		entry.Debug("Filter pipeline step")
	case FilterCompleted:
		entry.Info("Image filtered")
	case FileSent:
		entry.Info("Filtered image sent")
	case ImageFetchFailed, FilterFailed:
		entry.Error("Image filtering failed")
	case SendFailed:
		entry.Error("Sending filtered image failed")
	case TempFileReapFailed:
		entry.Warn("Temporary file could not be deleted")
	default:
		entry.Info("Filter event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver counts pipeline events in process and mirrors them to OTel counters.
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalFilters        int64
	successfulFilters   int64
	failedFilters       int64
	filesSent           int64
	sendFailures        int64
	filesReaped         int64
	reapFailures        int64
	totalProcessingTime time.Duration

	events metric.Int64Counter
}

// NewMetricsObserver creates a new metrics observer using the global meter provider.
func NewMetricsObserver() *MetricsObserver {
	o := &MetricsObserver{}
	meter := otel.GetMeterProvider().Meter("image-filter-go")
	if ctr, err := meter.Int64Counter("filter_pipeline_events_total",
		metric.WithDescription("Filter pipeline events by type")); err == nil {
		o.events = ctr
	} else {
		logrus.WithError(err).Warn("OTel counter unavailable, keeping in-process metrics only")
	}
	return o
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event FilterEvent) {
	if o.events != nil {
		o.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", string(event.EventType))))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case FilterStarted:
		o.totalFilters++
	case FilterCompleted:
		o.successfulFilters++
		o.totalProcessingTime += event.ProcessingTime
	case FilterFailed, ImageFetchFailed:
		o.failedFilters++
	case FileSent:
		o.filesSent++
	case SendFailed:
		o.sendFailures++
	case TempFileReaped:
		o.filesReaped++
	case TempFileReapFailed:
		o.reapFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulFilters > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulFilters)
	}

	return map[string]interface{}{
		"total_filters":         o.totalFilters,
		"successful_filters":    o.successfulFilters,
		"failed_filters":        o.failedFilters,
		"files_sent":            o.filesSent,
		"send_failures":         o.sendFailures,
		"files_reaped":          o.filesReaped,
		"reap_failures":         o.reapFailures,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
	}
}

// EventPublisher fans events out to subscribed observers
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	sync      bool
}

// NewEventPublisher creates a publisher that notifies observers concurrently.
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// NewSyncEventPublisher creates a publisher that notifies observers in the caller's goroutine.
func NewSyncEventPublisher() *EventPublisher {
	p := NewEventPublisher()
	p.sync = true
	return p
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// NotifyObservers notifies all observers of an event. A nil publisher is a no-op.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event FilterEvent) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		if p.sync {
			notify(ctx, observer, event)
			continue
		}
		go notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event FilterEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
