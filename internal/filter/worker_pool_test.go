package filter

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewWorkerPool(t *testing.T) {
	pool := NewWorkerPool(4)
	if pool == nil {
		t.Fatal("Expected non-nil worker pool")
	}
	if pool.Workers() != 4 {
		t.Errorf("Expected 4 workers, got %d", pool.Workers())
	}
}

func TestNewWorkerPool_ZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool.Workers() != runtime.NumCPU() {
		t.Errorf("Expected %d workers, got %d", runtime.NumCPU(), pool.Workers())
	}
}

func TestWorkerPool_Submit(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	var counter int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		if !pool.Submit(func() {
			mu.Lock()
			counter++
			mu.Unlock()
		}) {
			t.Fatal("Expected Submit to accept job on a running pool")
		}
	}

	pool.Wait()

	if counter != 5 {
		t.Errorf("Expected counter to be 5, got %d", counter)
	}

	stats := pool.GetStats()
	if stats.TotalJobs != 5 || stats.CompletedJobs != 5 {
		t.Errorf("Expected 5 total and completed jobs, got %+v", stats)
	}
	if stats.ActiveWorkers != 0 {
		t.Errorf("Expected no active workers after Wait, got %d", stats.ActiveWorkers)
	}
}

func TestWorkerPool_Concurrent(t *testing.T) {
	pool := NewWorkerPool(3)
	pool.Start()
	defer pool.Close()

	var sum atomic.Int64
	var wg sync.WaitGroup

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 1; i <= 25; i++ {
				value := int64(i)
				pool.Submit(func() { sum.Add(value) })
			}
		}()
	}
	wg.Wait()
	pool.Wait()

	if sum.Load() != 4*325 {
		t.Errorf("Expected sum %d, got %d", 4*325, sum.Load())
	}
}

func TestWorkerPool_StartOnce(t *testing.T) {
	pool := NewWorkerPool(2)

	pool.Start()
	pool.Start()
	defer pool.Close()

	done := make(chan struct{})
	pool.Submit(func() { close(done) })
	<-done
}

func TestWorkerPool_SubmitBeforeStart(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	if pool.Submit(func() {}) {
		t.Error("Expected Submit to refuse jobs before Start")
	}
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	pool.Close()
	pool.Close()

	if pool.Submit(func() {}) {
		t.Error("Expected Submit to refuse jobs after Close")
	}
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	pool.Submit(func() { panic("boom") })

	ran := false
	pool.Submit(func() { ran = true })
	pool.Wait()

	if !ran {
		t.Error("Expected worker to keep running after a panicking job")
	}
}
