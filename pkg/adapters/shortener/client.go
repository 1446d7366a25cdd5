// Package shortener wraps the external URL-shortening service. It is strictly
// best effort: whatever goes wrong, the caller gets a usable URL back.
package shortener

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/ports"
)

const maxBodySize = 8 << 10

type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient takes the api-create style endpoint, e.g.
// https://tinyurl.com/api-create.php. The long URL is passed as ?url=.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Shorten returns the shortened URL, or longURL unchanged on any failure.
func (c *Client) Shorten(ctx context.Context, longURL string) string {
	if c.endpoint == "" {
		return longURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint+"?url="+url.QueryEscape(longURL), nil)
	if err != nil {
		return longURL
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("Shortener unreachable, sharing long URL: %v", err)
		return longURL
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Shortener returned %d, sharing long URL", resp.StatusCode)
		return longURL
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return longURL
	}

	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http://") && !strings.HasPrefix(short, "https://") {
		return longURL
	}
	return short
}

var _ ports.Shortener = (*Client)(nil)
