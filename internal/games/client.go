package games

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	"gamepulse/internal/models"
)

const (
	requestTimeout = 10 * time.Second
	maxAttempts    = 3
)

// Client fetches finished games from the quiz backend's REST API.
type Client struct {
	gamesURL string
	apiKey   string
	client   *http.Client
}

// NewClient builds a games client for the given endpoint URL.
func NewClient(gamesURL, apiKey string) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		gamesURL: gamesURL,
		apiKey:   apiKey,
		client:   &http.Client{Transport: transport, Timeout: requestTimeout},
	}
}

// FetchGames retrieves one page of finished games. Transient failures are
// retried with jittered backoff before the last error is returned.
func (c *Client) FetchGames(ctx context.Context, limit, offset int) (models.GamesSnapshot, error) {
	url := fmt.Sprintf("%s?limit=%d&offset=%d", c.gamesURL, limit, offset)

	retry := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retry.Duration()):
			case <-ctx.Done():
				return models.GamesSnapshot{}, ctx.Err()
			}
		}

		snapshot, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return snapshot, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return models.GamesSnapshot{}, fmt.Errorf("fetch games: %w", lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (models.GamesSnapshot, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.GamesSnapshot{}, false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.GamesSnapshot{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return models.GamesSnapshot{}, true, fmt.Errorf("http %d", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return models.GamesSnapshot{}, false, fmt.Errorf("http %d", resp.StatusCode)
	}

	var snapshot models.GamesSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return models.GamesSnapshot{}, false, fmt.Errorf("decode games: %w", err)
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now().UTC()
	}
	return snapshot, false, nil
}
