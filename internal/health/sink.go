package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "Mixflow/0.1.0"

// Sink delivers alerts to an external channel.
type Sink interface {
	Deliver(ctx context.Context, alert Alert) error
}

// NtfySink posts alerts to an ntfy topic. Severity maps onto ntfy
// priorities so phones buzz for the alerts that warrant it.
type NtfySink struct {
	endpoint string
	client   *http.Client
}

// NewNtfySink builds a sink for the given topic URL.
func NewNtfySink(endpoint string, timeout time.Duration) *NtfySink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NtfySink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (n *NtfySink) Deliver(ctx context.Context, alert Alert) error {
	if n == nil || n.client == nil {
		return nil
	}

	message := alert.Message
	if len(alert.Details) > 0 {
		var builder strings.Builder
		builder.WriteString(message)
		for key, value := range alert.Details {
			builder.WriteString(fmt.Sprintf("\n%s: %v", key, value))
		}
		message = builder.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if alert.Title != "" {
		req.Header.Set("Title", alert.Title)
	}
	req.Header.Set("Tags", strings.Join([]string{"mixflow", string(alert.Severity)}, ","))
	if priority := ntfyPriority(alert.Severity); priority != "default" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func ntfyPriority(severity Severity) string {
	switch severity {
	case SeverityCritical:
		return "urgent"
	case SeverityError:
		return "high"
	case SeverityInfo:
		return "low"
	default:
		return "default"
	}
}

// NoopSink discards alerts. Used when no topic is configured.
type NoopSink struct{}

func (NoopSink) Deliver(context.Context, Alert) error { return nil }
