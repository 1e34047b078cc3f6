package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fetcher is the external posts source. One bulk fetch, no upstream
// pagination assumed.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]Post, error)
}

type HTTPFetcher struct {
	url    string
	client *http.Client
}

func NewHTTPFetcher(url string) *HTTPFetcher {
	return &HTTPFetcher{
		url: url,
		client: &http.Client{
			// bound worst-case latency; the upstream has no SLA we control
			Timeout: 10 * time.Second,
		},
	}
}

func (f *HTTPFetcher) FetchAll(ctx context.Context) ([]Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)

	if err != nil {
		return nil, fmt.Errorf("build posts request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)

	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch posts: unexpected status %d", resp.StatusCode)
	}

	var items []Post

	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	return items, nil
}
