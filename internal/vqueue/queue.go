// package vqueue implements the admission-controlled verification queue.
//
// The queue guards access to a scarce, slow remote ranking service: a fixed
// number of concurrent slots, a bounded FIFO waiting list, a rolling latency
// window that drives stress mode, and health telemetry. Admission failures
// are distinct sentinels so the caller can tell "never ran" apart from
// capacity pressure or an explicit skip.
package vqueue

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/desertthunder/mixflow/internal/telemetry"
)

// latencyWindow is the number of recent task durations the stress detector
// averages over.
const latencyWindow = 20

// Alerter receives stress notifications. Implemented by health.Reporter;
// a nil Alerter disables alerts.
type Alerter interface {
	Alert(level, title, message string, details map[string]any, dedupeKey string)
}

// Config tunes queue admission and stress detection.
type Config struct {
	MaxConcurrent   int           // Concurrent slots (reference 16)
	MaxWaiting      int           // FIFO waiting list bound (reference 200)
	WaitTimeout     time.Duration // Max time a task waits for a slot (reference 30s)
	DispatchBatch   int           // Waiters released per slot free-up (reference 4)
	DispatchStagger time.Duration // Delay between batched dispatches (reference 100ms)
	StressThreshold time.Duration // Rolling mean latency that enters stress (reference 8s)
	StressCooldown  time.Duration // Automatic stress recovery delay (reference 30s)
}

// withDefaults fills zero fields with the reference constants.
func (c Config) withDefaults() Config {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 16
	}
	if c.MaxWaiting <= 0 {
		c.MaxWaiting = 200
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 30 * time.Second
	}
	if c.DispatchBatch <= 0 {
		c.DispatchBatch = 4
	}
	if c.DispatchStagger <= 0 {
		c.DispatchStagger = 100 * time.Millisecond
	}
	if c.StressThreshold <= 0 {
		c.StressThreshold = 8 * time.Second
	}
	if c.StressCooldown <= 0 {
		c.StressCooldown = 30 * time.Second
	}
	return c
}

// SubmitOptions modifies admission for a single task.
type SubmitOptions struct {
	// SkipQueue fails immediately with [shared.ErrQueueSkipped] when the
	// task cannot run right now, instead of waiting for a slot.
	SkipQueue bool
}

// HealthSnapshot is a point-in-time view of queue health.
type HealthSnapshot struct {
	Running     int           `json:"running"`
	Waiting     int           `json:"waiting"`
	AvgLatency  time.Duration `json:"avg_latency"`
	UnderStress bool          `json:"under_stress"`
	Processed   uint64        `json:"processed"`
	Failed      uint64        `json:"failed"`
	Score       int           `json:"score"` // 0-100, higher is healthier
}

type waiter struct {
	ready chan struct{}
}

// Queue is a bounded-concurrency scheduler. Construct with [New]; the zero
// value is not usable. All mutable state sits behind one mutex.
type Queue struct {
	cfg     Config
	logger  *log.Logger
	alerter Alerter

	mu        sync.Mutex
	running   int
	waiting   []*waiter
	latencies []time.Duration
	stress    bool
	recovery  *time.Timer
	processed uint64
	failed    uint64
}

// New creates a Queue with the given config, logger, and optional alerter.
func New(cfg Config, logger *log.Logger, alerter Alerter) *Queue {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Queue{
		cfg:     cfg.withDefaults(),
		logger:  shared.WithLogger(logger, "component", "vqueue"),
		alerter: alerter,
	}
}

// SetAlerter replaces the stress alerter. Useful when the alerter itself
// observes the queue and cannot exist before it.
func (q *Queue) SetAlerter(a Alerter) {
	q.mu.Lock()
	q.alerter = a
	q.mu.Unlock()
}

// Submit runs fn under a concurrency slot, waiting for one if necessary.
//
// Admission failures are returned without running fn: [shared.ErrQueueSkipped]
// when opts.SkipQueue is set and the task cannot start immediately,
// [shared.ErrQueueAtCapacity] when the waiting list is full,
// [shared.ErrQueueWaitTimeout] when no slot frees up within the wait budget,
// and ctx's error when the caller cancels while waiting. Otherwise Submit
// returns fn's error.
func (q *Queue) Submit(ctx context.Context, opts SubmitOptions, fn func(context.Context) error) error {
	telemetry.QueueSubmitted.Inc()

	q.mu.Lock()
	if opts.SkipQueue && (len(q.waiting) > 0 || q.running >= q.cfg.MaxConcurrent) {
		q.mu.Unlock()
		telemetry.QueueRejected.WithLabelValues("skipped").Inc()
		return shared.ErrQueueSkipped
	}

	if q.running < q.cfg.MaxConcurrent {
		q.running++
		telemetry.QueueRunningGauge.Set(float64(q.running))
		q.mu.Unlock()
		return q.run(ctx, fn)
	}

	if len(q.waiting) >= q.cfg.MaxWaiting {
		q.mu.Unlock()
		telemetry.QueueRejected.WithLabelValues("capacity").Inc()
		return shared.ErrQueueAtCapacity
	}

	w := &waiter{ready: make(chan struct{})}
	q.waiting = append(q.waiting, w)
	telemetry.QueueDepthGauge.Set(float64(len(q.waiting)))
	q.mu.Unlock()

	timer := time.NewTimer(q.cfg.WaitTimeout)
	defer timer.Stop()

	select {
	case <-w.ready:
		return q.run(ctx, fn)
	case <-timer.C:
		if q.removeWaiter(w) {
			telemetry.QueueRejected.WithLabelValues("wait_timeout").Inc()
			return shared.ErrQueueWaitTimeout
		}
		// A dispatcher granted the slot while the timer fired; the slot
		// is reserved for us, so run.
		<-w.ready
		return q.run(ctx, fn)
	case <-ctx.Done():
		if q.removeWaiter(w) {
			telemetry.QueueRejected.WithLabelValues("canceled").Inc()
			return ctx.Err()
		}
		<-w.ready
		return q.run(ctx, fn)
	}
}

// run executes fn while holding a slot, then releases the slot and feeds the
// stress detector.
func (q *Queue) run(ctx context.Context, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	q.complete(time.Since(start), err)
	return err
}

// removeWaiter takes w off the waiting list. Returns false when w was
// already dispatched.
func (q *Queue) removeWaiter(w *waiter) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, candidate := range q.waiting {
		if candidate == w {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			telemetry.QueueDepthGauge.Set(float64(len(q.waiting)))
			return true
		}
	}
	return false
}

// complete releases the slot, records the task duration, updates stress
// state, and dispatches waiting tasks into the freed capacity.
func (q *Queue) complete(duration time.Duration, err error) {
	q.mu.Lock()

	q.running--
	if err != nil {
		q.failed++
	} else {
		q.processed++
	}

	q.latencies = append(q.latencies, duration)
	if len(q.latencies) > latencyWindow {
		q.latencies = q.latencies[1:]
	}

	enteredStress := false
	if mean := q.meanLatencyLocked(); mean > q.cfg.StressThreshold && !q.stress {
		q.stress = true
		enteredStress = true
		telemetry.QueueStressGauge.Set(1)
		q.recovery = time.AfterFunc(q.cfg.StressCooldown, q.recover)
	}

	dispatched := q.dispatchLocked()
	telemetry.QueueRunningGauge.Set(float64(q.running))
	telemetry.QueueDepthGauge.Set(float64(len(q.waiting)))
	mean := q.meanLatencyLocked()
	alerter := q.alerter
	q.mu.Unlock()

	if enteredStress {
		q.logger.Warn("entering stress mode", "mean_latency", mean, "threshold", q.cfg.StressThreshold)
		if alerter != nil {
			alerter.Alert("warning", "Verification queue under stress",
				"rolling mean latency exceeded the stress threshold",
				map[string]any{
					"mean_latency_ms": mean.Milliseconds(),
					"threshold_ms":    q.cfg.StressThreshold.Milliseconds(),
				},
				"vqueue-stress")
		}
	}

	if dispatched > 0 {
		q.logger.Debug("dispatched waiting tasks", "count", dispatched)
	}
}

// dispatchLocked releases up to DispatchBatch waiters into free slots,
// staggering all but the first to avoid a thundering herd against the
// remote service. Slots are reserved at pop time. Caller holds q.mu.
func (q *Queue) dispatchLocked() int {
	n := 0
	for n < q.cfg.DispatchBatch && q.running < q.cfg.MaxConcurrent && len(q.waiting) > 0 {
		w := q.waiting[0]
		q.waiting = q.waiting[1:]
		q.running++

		if n == 0 {
			close(w.ready)
		} else {
			delay := time.Duration(n) * q.cfg.DispatchStagger
			time.AfterFunc(delay, func() { close(w.ready) })
		}
		n++
	}
	return n
}

// recover exits stress mode after the cooldown.
func (q *Queue) recover() {
	q.mu.Lock()
	wasStressed := q.stress
	q.stress = false
	q.latencies = q.latencies[:0]
	q.mu.Unlock()

	if wasStressed {
		telemetry.QueueStressGauge.Set(0)
		q.logger.Info("recovered from stress mode")
	}
}

// meanLatencyLocked averages the rolling window. Caller holds q.mu.
func (q *Queue) meanLatencyLocked() time.Duration {
	if len(q.latencies) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range q.latencies {
		sum += d
	}
	return sum / time.Duration(len(q.latencies))
}

// Status computes a point-in-time health snapshot.
//
// The score starts at 100 and loses up to 20 points for waiting-list
// fullness, up to 15 for running-slot fullness, up to 25 for the latency
// ratio against the stress threshold, and a flat 15 while in stress mode.
func (q *Queue) Status() HealthSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	mean := q.meanLatencyLocked()

	score := 100.0
	score -= 20 * float64(len(q.waiting)) / float64(q.cfg.MaxWaiting)
	score -= 15 * float64(q.running) / float64(q.cfg.MaxConcurrent)

	ratio := float64(mean) / float64(q.cfg.StressThreshold)
	if ratio > 1 {
		ratio = 1
	}
	score -= 25 * ratio

	if q.stress {
		score -= 15
	}
	if score < 0 {
		score = 0
	}

	return HealthSnapshot{
		Running:     q.running,
		Waiting:     len(q.waiting),
		AvgLatency:  mean,
		UnderStress: q.stress,
		Processed:   q.processed,
		Failed:      q.failed,
		Score:       int(score),
	}
}

// Close cancels the pending stress recovery timer. Waiting tasks still
// drain normally.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.recovery != nil {
		q.recovery.Stop()
	}
}
