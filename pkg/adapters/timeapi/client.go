// Package timeapi fetches the authoritative current instant from an external
// time service, so expiry judgments don't trust the local device clock.
package timeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/sibincbaby/vouchzy/pkg/ports"
)

// The service replies with a diagnostic text blob; the only contract is that
// it contains a decimal unix-seconds field like "ts=1717200000".
var tsPattern = regexp.MustCompile(`\bts=(\d+)`)

const maxBodySize = 64 << 10

type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Now fetches and extracts the current UTC instant. Any failure is returned
// as an error; the expiry oracle then falls back to the local clock.
func (c *Client) Now(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return time.Time{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("time service returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return time.Time{}, err
	}

	m := tsPattern.FindSubmatch(body)
	if m == nil {
		return time.Time{}, fmt.Errorf("no ts field in time service response")
	}
	sec, err := strconv.ParseInt(string(m[1]), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse ts field: %w", err)
	}

	return time.Unix(sec, 0).UTC(), nil
}

var _ ports.TimeSource = (*Client)(nil)
