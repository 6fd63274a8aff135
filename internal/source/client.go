// Package source implements the HTTP client for a book-source aggregation
// API (legado-style web service). It is the upstream content collaborator of
// the reading engine: catalog fetches, chapter content fetches and shelf
// search all go through here. Timeout and retry policy live in this package;
// the reading session only sees the final success or failure.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/mrlokans/reader/internal/reading"
)

const (
	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
	retryDelay     = 500 * time.Millisecond
)

// ErrNotFound is returned when the upstream has no data for the request.
var ErrNotFound = errors.New("source: not found")

// Client talks to the book-source aggregation API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	monitor    *QualityMonitor
}

// NewClient creates a client for the aggregation API at baseURL. The quality
// monitor records request latencies and feeds the prefetch scheduler; pass
// nil to disable the signal.
func NewClient(baseURL string, monitor *QualityMonitor) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		monitor: monitor,
	}
}

// envelope is the JSON wrapper every aggregation API endpoint uses.
type envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	ErrorMsg  string          `json:"errorMsg"`
	Data      json.RawMessage `json:"data"`
}

// BookInfo is an upstream search/detail result.
type BookInfo struct {
	BookURL       string `json:"bookUrl"`
	Name          string `json:"name"`
	Author        string `json:"author"`
	CoverURL      string `json:"coverUrl"`
	Intro         string `json:"intro"`
	Kind          string `json:"kind"`
	LatestChapter string `json:"latestChapterTitle"`
	Origin        string `json:"origin"`
	OriginName    string `json:"originName"`
}

// chapterEntry mirrors the upstream catalog entry shape.
type chapterEntry struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Statically verify the client satisfies the reading engine's contract.
var _ reading.Fetcher = (*Client)(nil)

// ChapterList fetches the ordered catalog for a book. forceRefresh bypasses
// the upstream catalog cache.
func (c *Client) ChapterList(ctx context.Context, bookURL string, forceRefresh bool) ([]reading.Chapter, error) {
	params := url.Values{}
	params.Set("url", bookURL)
	if forceRefresh {
		params.Set("refresh", "1")
	}

	var entries []chapterEntry
	if err := c.getJSON(ctx, "/getChapterList", params, &entries); err != nil {
		return nil, err
	}

	chapters := make([]reading.Chapter, len(entries))
	for i, e := range entries {
		chapters[i] = reading.Chapter{Index: e.Index, Title: e.Title}
	}
	return chapters, nil
}

// ChapterContent fetches the raw text of one chapter.
func (c *Client) ChapterContent(ctx context.Context, bookURL string, index int) (string, error) {
	params := url.Values{}
	params.Set("url", bookURL)
	params.Set("index", strconv.Itoa(index))

	var text string
	if err := c.getJSON(ctx, "/getBookContent", params, &text); err != nil {
		return "", err
	}
	return text, nil
}

// SearchBooks queries the upstream source ecosystem for books matching key.
func (c *Client) SearchBooks(ctx context.Context, key string) ([]BookInfo, error) {
	params := url.Values{}
	params.Set("key", key)

	var books []BookInfo
	if err := c.getJSON(ctx, "/searchBook", params, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// BookInfo fetches upstream metadata for a single book.
func (c *Client) BookInfo(ctx context.Context, bookURL string) (*BookInfo, error) {
	params := url.Values{}
	params.Set("url", bookURL)

	var info BookInfo
	if err := c.getJSON(ctx, "/getBookInfo", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// getJSON performs a GET against an API endpoint, retrying transient
// failures, and unmarshals the envelope's data field into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()

	return retry.Do(
		func() error {
			return c.doRequest(ctx, endpoint, out)
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.monitor != nil {
		c.monitor.Record(time.Since(start))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return retry.Unrecoverable(ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &statusError{code: resp.StatusCode}
	case resp.StatusCode >= 500:
		return &statusError{code: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return retry.Unrecoverable(&statusError{code: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return retry.Unrecoverable(fmt.Errorf("parse response: %w", err))
	}
	if !env.IsSuccess {
		msg := env.ErrorMsg
		if msg == "" {
			msg = "source request failed"
		}
		return retry.Unrecoverable(errors.New(msg))
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("parse response data: %w", err))
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, http.StatusText(e.code))
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Network-level errors (timeouts, resets) are worth one more try.
	return true
}
