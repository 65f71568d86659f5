// Package apiclient talks to the e-commerce gateway on behalf of one
// visitor, attaching the session bearer token and reporting 401s as
// ErrUnauthorized instead of reacting to them.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Skotchmaster/storefront/internal/logging"
)

const (
	DefaultTimeout = 10 * time.Second

	maxBody = 4 << 20
)

type TokenSource interface {
	AccessToken() string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	tokens     TokenSource
}

func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = NewHTTPClient()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		breaker:    newBreaker("gateway"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Status < http.StatusInternalServerError
			}
			// A caller that went away says nothing about gateway health.
			if errors.Is(err, context.Canceled) {
				return true
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Default().Warn("breaker_state_change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// WithTokens returns a client that authorizes requests with ts. The
// underlying transport and breaker are shared.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, nil, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any, header http.Header) error {
	return c.Do(ctx, http.MethodPost, path, nil, in, header, out)
}

func (c *Client) PutJSON(ctx context.Context, path string, query url.Values, in, out any) error {
	return c.Do(ctx, http.MethodPut, path, query, in, nil, out)
}

func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in any, header http.Header, out any) error {
	l := logging.FromContext(ctx).With("upstream", "gateway", "method", method, "path", path)

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			if tok := c.tokens.AccessToken(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("do request: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Message: ExtractMessage(b)}
		}
		return b, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			l.Warn("gateway_breaker_open", "error", err)
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		var se *StatusError
		if errors.As(err, &se) {
			l.Info("gateway_status", "status", se.Status)
		} else {
			l.Error("gateway_error", "error", err)
		}
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], body...)
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
