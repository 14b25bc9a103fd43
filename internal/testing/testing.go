// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mixflow/internal/services"
	"github.com/desertthunder/mixflow/internal/shared"
)

// MockRanker is a test double for [services.Ranker] with scriptable responses.
type MockRanker struct {
	mu        sync.Mutex
	Responses map[string]*services.RankResponse // keyed by model name
	Errs      map[string]error                  // keyed by model name
	Calls     []string                          // model names in call order
}

func (m *MockRanker) Rank(ctx context.Context, model string, timeout time.Duration, sample []services.SampleEntry) (*services.RankResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, model)
	m.mu.Unlock()

	if err, ok := m.Errs[model]; ok && err != nil {
		return nil, err
	}
	if resp, ok := m.Responses[model]; ok {
		return resp, nil
	}
	return &services.RankResponse{Acceptable: true}, nil
}

// CallCount returns how many times Rank has been invoked.
func (m *MockRanker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockResolver is a test double for [services.Resolver].
type MockResolver struct {
	mu      sync.Mutex
	Results map[string]string // keyed by "title|artist"
	Err     error
	calls   int
}

func (m *MockResolver) ResolveTrack(ctx context.Context, title, artist string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if id, ok := m.Results[title+"|"+artist]; ok {
		return id, nil
	}
	return "", shared.ErrTrackNotFound
}

func (m *MockResolver) Name() string { return "mock" }

// Calls returns how many times ResolveTrack has been invoked.
func (m *MockResolver) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
