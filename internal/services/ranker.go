// Ranking provider client for order verification
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/mixflow/internal/shared"
)

// RankService calls the external ranking provider over HTTP.
type RankService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRankService creates a ranking provider client.
func NewRankService(baseURL, apiKey string, client *http.Client) *RankService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &RankService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: client,
	}
}

type rankRequest struct {
	Model  string        `json:"model"`
	Sample []SampleEntry `json:"sample"`
}

// Rank submits a sample for review with the named model.
//
// Error mapping: HTTP 429 returns [shared.ErrRateLimited], HTTP 402/403
// returns [shared.ErrQuotaExhausted], a deadline expiry returns
// [shared.ErrTimeout], and any other failure wraps [shared.ErrAPIRequest].
func (r *RankService) Rank(ctx context.Context, model string, timeout time.Duration, sample []SampleEntry) (*RankResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(rankRequest{Model: model, Sample: sample})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/rank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: model %s after %v", shared.ErrTimeout, model, timeout)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: model %s", shared.ErrRateLimited, model)
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrQuotaExhausted, resp.StatusCode, body)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, body)
	}

	var rankResp RankResponse
	if err := json.Unmarshal(body, &rankResp); err != nil {
		return nil, fmt.Errorf("%w: invalid response body: %v", shared.ErrAPIRequest, err)
	}

	return &rankResp, nil
}
