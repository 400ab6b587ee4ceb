package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"ceni-cache/config"
	"ceni-cache/utils"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrRetriesExhausted is returned when every retry attempt for a request has
// failed. Extractors treat it as a stop signal, never as a fatal error.
var ErrRetriesExhausted = errors.New("fetch: retries exhausted")

// ErrNotFound is returned for 404 responses. Vero's numbered page sequence
// ends with a 404 rather than an empty page.
var ErrNotFound = errors.New("fetch: not found")

// Client is the HTTP fetch collaborator: retries with backoff, a per-request
// timeout, and a politeness delay between consecutive requests to the same
// host. Requests to different hosts never wait on each other.
type Client struct {
	http   *resty.Client
	logger *utils.Logger

	mu         sync.Mutex
	nextSlot   map[string]time.Time
	politeness time.Duration
}

// NewClient builds a Client from the run configuration.
func NewClient(cfg *config.Config, logger *utils.Logger) *Client {
	c := resty.New()
	c.SetHeader("User-Agent", userAgent)
	c.SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second)
	c.SetRetryCount(cfg.MaxRetries)
	c.SetRetryWaitTime(1 * time.Second)
	c.SetRetryMaxWaitTime(10 * time.Second)
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= http.StatusInternalServerError
	})

	return &Client{
		http:       c,
		logger:     logger,
		politeness: time.Duration(cfg.PolitenessMs) * time.Millisecond,
		nextSlot:   make(map[string]time.Time),
	}
}

// Text fetches url and returns the response body as a string.
func (c *Client) Text(url string) (string, error) {
	body, err := c.get(url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Bytes fetches url and returns the raw response body.
func (c *Client) Bytes(url string) ([]byte, error) {
	return c.get(url)
}

// Head issues a HEAD request and returns the status code. Used to probe
// guessed PDF URLs without downloading them.
func (c *Client) Head(url string) (int, error) {
	c.wait(url)
	resp, err := c.http.R().Head(url)
	if err != nil {
		return 0, fmt.Errorf("head %s: %w (%v)", url, ErrRetriesExhausted, err)
	}
	return resp.StatusCode(), nil
}

func (c *Client) get(url string) ([]byte, error) {
	c.wait(url)

	resp, err := c.http.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w (%v)", url, ErrRetriesExhausted, err)
	}
	if resp.IsError() {
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return nil, fmt.Errorf("fetch %s: %w", url, ErrNotFound)
		case resp.StatusCode() >= http.StatusInternalServerError:
			return nil, fmt.Errorf("fetch %s: status %d: %w", url, resp.StatusCode(), ErrRetriesExhausted)
		default:
			return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode())
		}
	}
	return resp.Body(), nil
}

// wait enforces the politeness delay between consecutive requests to one
// host. The next start slot for the host is reserved under the lock and the
// sleep happens outside it, so requests to other hosts proceed immediately
// and concurrent requests to the same host queue one delay apart.
func (c *Client) wait(rawURL string) {
	host := hostOf(rawURL)

	c.mu.Lock()
	start := c.nextSlot[host]
	if now := time.Now(); start.Before(now) {
		start = now
	}
	c.nextSlot[host] = start.Add(c.politeness)
	c.mu.Unlock()

	if d := time.Until(start); d > 0 {
		time.Sleep(d)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
