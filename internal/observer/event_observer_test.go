package observer

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []EventType
}

func (r *recordingObserver) OnEvent(ctx context.Context, event FilterEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.EventType)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event FilterEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                         { return "panicking" }

func TestMetricsObserver_Counts(t *testing.T) {
	o := NewMetricsObserver()
	ctx := context.Background()

	o.OnEvent(ctx, FilterEvent{EventType: FilterStarted})
	o.OnEvent(ctx, FilterEvent{EventType: FilterCompleted, ProcessingTime: 40 * time.Millisecond})
	o.OnEvent(ctx, FilterEvent{EventType: FilterStarted})
	o.OnEvent(ctx, FilterEvent{EventType: ImageFetchFailed})
	o.OnEvent(ctx, FilterEvent{EventType: FileSent})
	o.OnEvent(ctx, FilterEvent{EventType: TempFileReaped})
	o.OnEvent(ctx, FilterEvent{EventType: TempFileReapFailed})

	m := o.GetMetrics()
	expected := map[string]int64{
		"total_filters":      2,
		"successful_filters": 1,
		"failed_filters":     1,
		"files_sent":         1,
		"send_failures":      0,
		"files_reaped":       1,
		"reap_failures":      1,
	}
	for key, want := range expected {
		if got := m[key].(int64); got != want {
			t.Errorf("Expected %s=%d, got %d", key, want, got)
		}
	}
	if m["avg_processing_time"].(time.Duration) != 40*time.Millisecond {
		t.Errorf("Unexpected average processing time %v", m["avg_processing_time"])
	}
}

func TestSyncEventPublisher_NotifiesInOrder(t *testing.T) {
	p := NewSyncEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(panickingObserver{})
	p.Subscribe(rec)

	p.NotifyObservers(context.Background(), FilterEvent{EventType: FilterStarted})
	p.NotifyObservers(context.Background(), FilterEvent{EventType: FilterCompleted})

	if len(rec.events) != 2 || rec.events[0] != FilterStarted || rec.events[1] != FilterCompleted {
		t.Errorf("Unexpected events %v", rec.events)
	}
}

func TestEventPublisher_Async(t *testing.T) {
	p := NewEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(rec)

	p.NotifyObservers(context.Background(), FilterEvent{EventType: TempFileReaped})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec.mu.Lock()
		n := len(rec.events)
		rec.mu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("Expected async observer to receive the event")
}

func TestNilPublisher_IsNoop(t *testing.T) {
	var p *EventPublisher
	p.NotifyObservers(context.Background(), FilterEvent{EventType: FilterStarted})
}

func TestLoggingObserver_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	o := NewLoggingObserver(l)
	o.OnEvent(context.Background(), FilterEvent{
		EventType:    SendFailed,
		Path:         "/tmp/filtered.x.jpg",
		ErrorMessage: "broken pipe",
	})

	out := buf.String()
	for _, want := range []string{`"event_type":"send_failed"`, `"path":"/tmp/filtered.x.jpg"`, `"error":"broken pipe"`, `"level":"error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %s, got %s", want, out)
		}
	}
}
