// Package health watches the verification queue and raises deduplicated
// alerts through a pluggable sink.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixflow/internal/shared"
	"github.com/desertthunder/mixflow/internal/vqueue"
)

// Severity ranks an alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ParseSeverity maps a level string onto a Severity, unknown levels
// rank as warnings.
func ParseSeverity(level string) Severity {
	switch Severity(level) {
	case SeverityCritical, SeverityError, SeverityWarning, SeverityInfo:
		return Severity(level)
	default:
		return SeverityWarning
	}
}

// Alert is one deliverable event.
type Alert struct {
	ID        string         `json:"id"`
	Severity  Severity       `json:"severity"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// QueueStatuser exposes the queue snapshot the reporter evaluates.
// [vqueue.Queue] satisfies it.
type QueueStatuser interface {
	Status() vqueue.HealthSnapshot
}

// Report is one periodic evaluation of engine health.
type Report struct {
	Timestamp time.Time             `json:"timestamp"`
	Status    string                `json:"status"`
	Queue     vqueue.HealthSnapshot `json:"queue"`
	ErrorRate float64               `json:"error_rate"`
}

// Config tunes the evaluation cadence and alert deduplication.
type Config struct {
	Interval     time.Duration
	DedupeWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.DedupeWindow <= 0 {
		c.DedupeWindow = 5 * time.Minute
	}
	return c
}

// Reporter periodically evaluates queue health and forwards alerts,
// suppressing repeats within the dedupe window. It is the alert target
// for queue stress and verifier quota events.
type Reporter struct {
	queue  QueueStatuser
	sink   Sink
	cfg    Config
	logger *log.Logger
	// errorRate optionally reports the recent sort failure ratio in
	// [0, 1].
	errorRate func() float64

	mu       sync.Mutex
	lastSent map[string]time.Time

	stop chan struct{}
	done chan struct{}
}

// New builds a Reporter. A nil sink falls back to [NoopSink].
func New(queue QueueStatuser, sink Sink, cfg Config, logger *log.Logger) *Reporter {
	if sink == nil {
		sink = NoopSink{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Reporter{
		queue:    queue,
		sink:     sink,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		lastSent: make(map[string]time.Time),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SetErrorRateFunc wires an error-rate source into periodic evaluation.
// Must be called before Start.
func (r *Reporter) SetErrorRateFunc(fn func() float64) {
	r.errorRate = fn
}

// Start launches the evaluation loop. Stop terminates it.
func (r *Reporter) Start() {
	go r.loop()
}

// Stop terminates the evaluation loop and waits for it to exit.
func (r *Reporter) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Reporter) loop() {
	defer close(r.done)
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.check()
		}
	}
}

// Evaluate produces the current health report.
func (r *Reporter) Evaluate() Report {
	snapshot := r.queue.Status()

	rate := 0.0
	if r.errorRate != nil {
		rate = r.errorRate()
	}

	status := "healthy"
	switch {
	case snapshot.Score < 50 || rate >= 0.5:
		status = "critical"
	case snapshot.Score < 80 || snapshot.UnderStress || rate >= 0.2:
		status = "degraded"
	}

	return Report{
		Timestamp: time.Now(),
		Status:    status,
		Queue:     snapshot,
		ErrorRate: rate,
	}
}

// check runs one evaluation and raises alerts for unhealthy states.
func (r *Reporter) check() {
	report := r.Evaluate()

	switch report.Status {
	case "critical":
		r.Alert(string(SeverityError), "Engine health critical",
			"Verification throughput is severely degraded.",
			map[string]any{"score": report.Queue.Score, "error_rate": report.ErrorRate},
			"health-critical")
	case "degraded":
		r.Alert(string(SeverityWarning), "Engine health degraded",
			"Verification queue is under pressure.",
			map[string]any{"score": report.Queue.Score, "waiting": report.Queue.Waiting},
			"health-degraded")
	}
}

// Alert delivers one event through the sink unless an alert with the
// same dedupe key fired within the dedupe window. Delivery failures are
// logged and never propagate.
func (r *Reporter) Alert(level, title, message string, details map[string]any, dedupeKey string) {
	if !r.shouldSend(dedupeKey) {
		r.logger.Debug("suppressing duplicate alert", "key", dedupeKey)
		return
	}

	alert := Alert{
		ID:        shared.GenerateID(),
		Severity:  ParseSeverity(level),
		Title:     title,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
	r.logger.Log(severityLogLevel(alert.Severity), title, "message", message, "alert_id", alert.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := r.sink.Deliver(ctx, alert); err != nil {
		r.logger.Warn("alert delivery failed", "alert_id", alert.ID, "error", err)
	}
}

func (r *Reporter) shouldSend(key string) bool {
	if key == "" {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.lastSent[key]; ok && time.Since(last) < r.cfg.DedupeWindow {
		return false
	}
	r.lastSent[key] = time.Now()
	return true
}

func severityLogLevel(severity Severity) log.Level {
	switch severity {
	case SeverityCritical, SeverityError:
		return log.ErrorLevel
	case SeverityWarning:
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}
