package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/session"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"

	maxBody = 1 << 20
)

var ErrMalformedResponse = errors.New("malformed auth response")

// Error is a non-2xx answer from the auth service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth service status %d", e.Status)
	}
	return fmt.Sprintf("auth service status %d: %s", e.Status, e.Message)
}

func (e *Error) ServiceMessage() string { return e.Message }

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(gatewayURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(gatewayURL, "/"),
		httpClient: hc,
	}
}

type loginData struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	TokenType    string          `json:"tokenType"`
	ExpiresIn    int64           `json:"expiresIn"`
	User         json.RawMessage `json:"user"`
}

type loginReply struct {
	Success *bool     `json:"success"`
	Message string    `json:"message"`
	Data    loginData `json:"data"`
}

func (c *Client) Login(ctx context.Context, cred session.Credentials) (session.Grant, error) {
	body, err := c.post(ctx, loginPath, cred)
	if err != nil {
		return session.Grant{}, err
	}

	var reply loginReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return session.Grant{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if reply.Success != nil && !*reply.Success {
		return session.Grant{}, &Error{Status: http.StatusOK, Message: reply.Message}
	}

	d := reply.Data
	if d.AccessToken == "" || len(d.User) == 0 {
		return session.Grant{}, fmt.Errorf("%w: missing token or user", ErrMalformedResponse)
	}
	var u session.User
	if err := json.Unmarshal(d.User, &u); err != nil {
		return session.Grant{}, fmt.Errorf("%w: user: %v", ErrMalformedResponse, err)
	}

	return session.Grant{
		AccessToken:  d.AccessToken,
		RefreshToken: d.RefreshToken,
		User:         u,
	}, nil
}

func (c *Client) Register(ctx context.Context, r session.Registration) (session.RegisterOutcome, error) {
	body, err := c.post(ctx, registerPath, r)
	if err != nil {
		return session.RegisterOutcome{}, err
	}
	reply, err := parseRegisterReply(body)
	if err != nil {
		return session.RegisterOutcome{}, err
	}
	return reply.outcome(), nil
}

func (c *Client) post(ctx context.Context, path string, in any) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Message: apiclient.ExtractMessage(body)}
	}
	return body, nil
}
