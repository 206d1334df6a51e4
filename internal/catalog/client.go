package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// Client talks to the remote music catalog using a browser session's cookies.
type Client struct {
	SnapshotURL string
	TrackURL    string
	Origin      string
	DataRoute   string
	TrackRoute  string
	UserAgent   string
	cookies     []*http.Cookie
	httpClient  *http.Client
}

// Options configures a Client. Zero fields are left empty, except Timeout
// which falls back to 30 seconds.
type Options struct {
	SnapshotURL string
	TrackURL    string
	Origin      string
	DataRoute   string
	TrackRoute  string
	UserAgent   string
	Cookies     map[string]string
	Timeout     time.Duration
}

// StatusError is returned when a mutation call does not answer 200.
type StatusError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Method, e.StatusCode, e.Body)
}

// NewClient creates a new catalog client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Sorted so requests are reproducible.
	names := make([]string, 0, len(opts.Cookies))
	for name := range opts.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: opts.Cookies[name]})
	}

	return &Client{
		SnapshotURL: opts.SnapshotURL,
		TrackURL:    opts.TrackURL,
		Origin:      opts.Origin,
		DataRoute:   opts.DataRoute,
		TrackRoute:  opts.TrackRoute,
		UserAgent:   opts.UserAgent,
		cookies:     cookies,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Snapshot fetches the library page data and returns the raw body. The status
// code is not checked: an error page simply fails to parse later on.
func (c *Client) Snapshot(ctx context.Context) ([]byte, error) {
	snapshotURL, err := withDataRoute(c.SnapshotURL, c.DataRoute)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, snapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Referer", c.SnapshotURL)
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Snapshot returned non-200 status", "status", resp.StatusCode, "bytes", len(body))
	}

	return body, nil
}

// UpdateTitle renames a track. It succeeds only on HTTP 200.
func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	return c.mutate(ctx, http.MethodPatch, map[string]string{
		"id":    id,
		"title": title,
	})
}

// DeleteTrack removes a track. It succeeds only on HTTP 200.
func (c *Client) DeleteTrack(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, map[string]string{
		"id": id,
	})
}

func (c *Client) mutate(ctx context.Context, method string, payload map[string]string) error {
	trackURL, err := withDataRoute(c.TrackURL, c.TrackRoute)
	if err != nil {
		return fmt.Errorf("invalid track URL: %w", err)
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, trackURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.Origin)
	req.Header.Set("Referer", c.SnapshotURL)
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, StatusCode: resp.StatusCode, Body: string(body)}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) decorate(req *http.Request) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
}

// withDataRoute adds the _data query parameter selecting the data route.
func withDataRoute(rawURL, route string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if route != "" {
		q := u.Query()
		q.Set("_data", route)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
