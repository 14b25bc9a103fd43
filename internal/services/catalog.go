// Catalog resolver client for cross-platform track lookup
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/mixflow/internal/shared"
)

// CatalogService resolves tracks against a target platform's catalog via the
// catalog proxy.
type CatalogService struct {
	baseURL    string
	platform   string
	httpClient *http.Client
}

// NewCatalogService creates a catalog resolver for the named target platform.
func NewCatalogService(baseURL, platform string, client *http.Client) *CatalogService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &CatalogService{
		baseURL:    baseURL,
		platform:   platform,
		httpClient: client,
	}
}

// Name returns the target platform name.
func (c *CatalogService) Name() string { return c.platform }

type resolveResponse struct {
	ID string `json:"id"`
}

// ResolveTrack searches the target platform for the best match of
// title/artist and returns its platform-native identifier.
//
// A miss returns [shared.ErrTrackNotFound]; other failures wrap
// [shared.ErrAPIRequest].
func (c *CatalogService) ResolveTrack(ctx context.Context, title, artist string) (string, error) {
	params := url.Values{}
	params.Set("platform", c.platform)
	params.Set("title", title)
	params.Set("artist", artist)

	fullURL := c.baseURL + "/v1/catalog/resolve?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s - %s on %s", shared.ErrTrackNotFound, artist, title, c.platform)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, body)
	}

	var resolved resolveResponse
	if err := json.Unmarshal(body, &resolved); err != nil {
		return "", fmt.Errorf("%w: invalid response body: %v", shared.ErrAPIRequest, err)
	}
	if resolved.ID == "" {
		return "", fmt.Errorf("%w: empty identifier for %s - %s", shared.ErrTrackNotFound, artist, title)
	}

	return resolved.ID, nil
}
