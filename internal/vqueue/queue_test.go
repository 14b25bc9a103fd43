package vqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/mixflow/internal/shared"
)

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (r *recordingAlerter) Alert(level, title, message string, details map[string]any, dedupeKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, dedupeKey)
}

func (r *recordingAlerter) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.alerts...)
}

func testConfig() Config {
	return Config{
		MaxConcurrent:   2,
		MaxWaiting:      2,
		WaitTimeout:     500 * time.Millisecond,
		DispatchBatch:   4,
		DispatchStagger: time.Millisecond,
		StressThreshold: time.Second,
		StressCooldown:  100 * time.Millisecond,
	}
}

func TestSubmit(t *testing.T) {
	t.Run("runs immediately with free slot", func(t *testing.T) {
		q := New(testConfig(), nil, nil)
		defer q.Close()

		ran := false
		err := q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
			ran = true
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ran {
			t.Error("task should have run")
		}
	})

	t.Run("propagates task error", func(t *testing.T) {
		q := New(testConfig(), nil, nil)
		defer q.Close()

		boom := errors.New("boom")
		err := q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected task error, got %v", err)
		}

		status := q.Status()
		if status.Failed != 1 {
			t.Errorf("expected 1 failed task, got %d", status.Failed)
		}
	})

	t.Run("admission bound holds", func(t *testing.T) {
		q := New(testConfig(), nil, nil)
		defer q.Close()

		var current, peak int64
		release := make(chan struct{})
		var wg sync.WaitGroup

		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
					n := atomic.AddInt64(&current, 1)
					for {
						old := atomic.LoadInt64(&peak)
						if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
							break
						}
					}
					<-release
					atomic.AddInt64(&current, -1)
					return nil
				})
			}()
		}

		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		if p := atomic.LoadInt64(&peak); p > 2 {
			t.Errorf("admission bound violated: %d tasks ran concurrently", p)
		}
	})

	t.Run("rejects beyond waiting capacity", func(t *testing.T) {
		q := New(testConfig(), nil, nil)
		defer q.Close()

		release := make(chan struct{})
		var wg sync.WaitGroup

		// 2 running + 2 waiting fills the queue.
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
					<-release
					return nil
				})
			}()
		}

		waitForStatus(t, q, func(s HealthSnapshot) bool {
			return s.Running == 2 && s.Waiting == 2
		})

		err := q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
			return nil
		})
		if !errors.Is(err, shared.ErrQueueAtCapacity) {
			t.Errorf("expected ErrQueueAtCapacity, got %v", err)
		}

		close(release)
		wg.Wait()
	})

	t.Run("skip queue rejects immediately at capacity", func(t *testing.T) {
		q := New(testConfig(), nil, nil)
		defer q.Close()

		release := make(chan struct{})
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
					<-release
					return nil
				})
			}()
		}

		waitForStatus(t, q, func(s HealthSnapshot) bool { return s.Running == 2 })

		start := time.Now()
		err := q.Submit(context.Background(), SubmitOptions{SkipQueue: true}, func(ctx context.Context) error {
			return nil
		})
		if !errors.Is(err, shared.ErrQueueSkipped) {
			t.Errorf("expected ErrQueueSkipped, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("skip rejection should be immediate, took %v", elapsed)
		}

		close(release)
		wg.Wait()
	})

	t.Run("wait timeout", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxConcurrent = 1
		cfg.WaitTimeout = 50 * time.Millisecond
		q := New(cfg, nil, nil)
		defer q.Close()

		release := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
				<-release
				return nil
			})
		}()

		waitForStatus(t, q, func(s HealthSnapshot) bool { return s.Running == 1 })

		err := q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
			return nil
		})
		if !errors.Is(err, shared.ErrQueueWaitTimeout) {
			t.Errorf("expected ErrQueueWaitTimeout, got %v", err)
		}

		close(release)
		wg.Wait()
	})

	t.Run("caller cancellation while waiting", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxConcurrent = 1
		q := New(cfg, nil, nil)
		defer q.Close()

		release := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
				<-release
				return nil
			})
		}()

		waitForStatus(t, q, func(s HealthSnapshot) bool { return s.Running == 1 })

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- q.Submit(ctx, SubmitOptions{}, func(ctx context.Context) error {
				return nil
			})
		}()

		waitForStatus(t, q, func(s HealthSnapshot) bool { return s.Waiting == 1 })
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("canceled waiter never returned")
		}

		close(release)
		wg.Wait()
	})

	t.Run("waiters dispatched after release", func(t *testing.T) {
		cfg := testConfig()
		cfg.MaxConcurrent = 1
		q := New(cfg, nil, nil)
		defer q.Close()

		release := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
				<-release
				return nil
			})
		}()

		waitForStatus(t, q, func(s HealthSnapshot) bool { return s.Running == 1 })

		done := make(chan error, 1)
		go func() {
			done <- q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
				return nil
			})
		}()

		waitForStatus(t, q, func(s HealthSnapshot) bool { return s.Waiting == 1 })
		close(release)

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("waiter should run after release, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("waiter never dispatched")
		}
		wg.Wait()
	})
}

func TestStressLifecycle(t *testing.T) {
	alerter := &recordingAlerter{}
	q := New(testConfig(), nil, alerter)
	defer q.Close()

	// Feed the rolling window with slow completions. Slots are claimed
	// first so complete's release bookkeeping stays balanced.
	for i := 0; i < latencyWindow; i++ {
		q.mu.Lock()
		q.running++
		q.mu.Unlock()
		q.complete(10*time.Second, nil)
	}

	status := q.Status()
	if !status.UnderStress {
		t.Fatal("queue should be under stress")
	}
	if status.Score > 60 {
		t.Errorf("stressed queue should score poorly, got %d", status.Score)
	}

	keys := alerter.keys()
	if len(keys) != 1 || keys[0] != "vqueue-stress" {
		t.Errorf("expected one stress alert, got %v", keys)
	}

	// Recovery fires after the cooldown with no further feed.
	deadline := time.Now().Add(2 * time.Second)
	for q.Status().UnderStress {
		if time.Now().After(deadline) {
			t.Fatal("queue never recovered from stress")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatus(t *testing.T) {
	t.Run("idle queue scores 100", func(t *testing.T) {
		q := New(testConfig(), nil, nil)
		defer q.Close()

		status := q.Status()
		if status.Score != 100 {
			t.Errorf("expected score 100, got %d", status.Score)
		}
		if status.Running != 0 || status.Waiting != 0 {
			t.Errorf("expected idle snapshot, got %+v", status)
		}
	})

	t.Run("counts processed tasks", func(t *testing.T) {
		q := New(testConfig(), nil, nil)
		defer q.Close()

		for i := 0; i < 3; i++ {
			q.Submit(context.Background(), SubmitOptions{}, func(ctx context.Context) error {
				return nil
			})
		}

		if status := q.Status(); status.Processed != 3 {
			t.Errorf("expected 3 processed, got %d", status.Processed)
		}
	})
}

// waitForStatus polls the queue until cond holds or the deadline passes.
func waitForStatus(t *testing.T, q *Queue, cond func(HealthSnapshot) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond(q.Status()) {
		if time.Now().After(deadline) {
			t.Fatalf("condition never met, status %+v", q.Status())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
