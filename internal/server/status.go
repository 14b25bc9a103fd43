package server

import (
	"encoding/json"
	"net/http"

	"github.com/desertthunder/mixflow/internal/health"
	"github.com/desertthunder/mixflow/internal/vqueue"
)

// QueueStatuser exposes the queue snapshot served by the status
// endpoints.
type QueueStatuser interface {
	Status() vqueue.HealthSnapshot
}

// HealthEvaluator produces the full engine health report.
type HealthEvaluator interface {
	Evaluate() health.Report
}

// StatusHandler serves read-only queue and health snapshots.
// Implements the Handler interface for registration with a Router.
type StatusHandler struct {
	queue    QueueStatuser
	reporter HealthEvaluator
}

// NewStatusHandler creates a StatusHandler over the given queue and
// reporter.
func NewStatusHandler(queue QueueStatuser, reporter HealthEvaluator) *StatusHandler {
	return &StatusHandler{queue: queue, reporter: reporter}
}

// Routes returns the HTTP routes this handler serves.
func (h *StatusHandler) Routes() []string {
	return []string{"/status/queue", "/status/health"}
}

// ServeHTTP dispatches status requests. Only GET is allowed, the
// endpoints never mutate engine state.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/status/queue":
		h.writeJSON(w, h.queue.Status())
	case "/status/health":
		h.writeJSON(w, h.reporter.Evaluate())
	default:
		http.NotFound(w, r)
	}
}

func (h *StatusHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
