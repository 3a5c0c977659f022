package testevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/futurepaul/popow/internal/domain/types"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request bound to ctx.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// fetchView reads GET /view from the ranking service.
func (c *HTTPClient) fetchView(ctx context.Context, baseURL string) (types.View, error) {
	var v types.View
	resp, err := c.Get(ctx, baseURL+"/view")
	if err != nil {
		return v, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return v, fmt.Errorf("read /view: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return v, fmt.Errorf("GET /view: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decode /view: %w", err)
	}
	return v, nil
}
