package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Authority defines the integrations backend operations the connector relies on.
// This interface is implemented by *Client and can be used for testing.
type Authority interface {
	RequestAuthorizationURL(ctx context.Context, userID, orgID string) (string, error)
	ExchangeForCredentials(ctx context.Context, userID, orgID string) (Credentials, error)
	FetchItems(ctx context.Context, creds Credentials) ([]Item, error)
}

// Ensure Client implements Authority at compile time.
var _ Authority = (*Client)(nil)

// Client talks to the integrations backend over HTTP.
type Client struct {
	baseURL   *url.URL
	provider  string
	http      *http.Client
	userAgent string
	timeouts  Timeouts
}

// Timeouts bounds each backend call independently.
type Timeouts struct {
	Authorize   time.Duration
	Credentials time.Duration
	Items       time.Duration
}

const (
	defaultBaseURL   = "http://localhost:8000"
	defaultProvider  = "hubspot"
	defaultUserAgent = "hublink/0.1"

	// DefaultAuthorizeTimeout bounds the authorize call.
	DefaultAuthorizeTimeout = 10 * time.Second
	// DefaultCredentialsTimeout bounds the credentials call.
	DefaultCredentialsTimeout = 10 * time.Second
	// DefaultItemsTimeout bounds the item fetch, which pages through every object type.
	DefaultItemsTimeout = 30 * time.Second

	maxBodyBytes = 32 << 20
)

// DefaultTimeouts returns the per-call budgets used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Authorize:   DefaultAuthorizeTimeout,
		Credentials: DefaultCredentialsTimeout,
		Items:       DefaultItemsTimeout,
	}
}

// Option customises a Client.
type Option func(*Client)

// WithProvider sets the provider path segment (default "hubspot").
func WithProvider(provider string) Option {
	return func(c *Client) {
		if p := strings.ToLower(strings.TrimSpace(provider)); p != "" {
			c.provider = p
		}
	}
}

// WithTimeouts overrides the per-call budgets. Zero fields keep their defaults.
func WithTimeouts(t Timeouts) Option {
	return func(c *Client) {
		if t.Authorize > 0 {
			c.timeouts.Authorize = t.Authorize
		}
		if t.Credentials > 0 {
			c.timeouts.Credentials = t.Credentials
		}
		if t.Items > 0 {
			c.timeouts.Items = t.Items
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient builds a Client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		provider:  defaultProvider,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		timeouts:  DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Provider returns the provider path segment the client targets.
func (c *Client) Provider() string {
	return c.provider
}

// Timeouts returns the effective per-call budgets.
func (c *Client) Timeouts() Timeouts {
	return c.timeouts
}

// RequestAuthorizationURL asks the backend to start an authorization and
// returns the provider consent URL. An empty string with a nil error means the
// backend answered but supplied no URL.
func (c *Client) RequestAuthorizationURL(ctx context.Context, userID, orgID string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("org_id", orgID)

	body, err := c.postForm(ctx, c.endpoint("authorize"), form, c.timeouts.Authorize)
	if err != nil {
		return "", err
	}
	return decodeAuthorizationURL(body), nil
}

// ExchangeForCredentials fetches the credentials the backend stored after the
// provider redirected back to it. A body that is not a JSON object yields nil
// credentials; callers decide whether what came back is usable.
func (c *Client) ExchangeForCredentials(ctx context.Context, userID, orgID string) (Credentials, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("org_id", orgID)

	body, err := c.postForm(ctx, c.endpoint("credentials"), form, c.timeouts.Credentials)
	if err != nil {
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return nil, nil
	}
	return creds, nil
}

// FetchItems retrieves the integration items visible to creds. The result is
// never nil.
func (c *Client) FetchItems(ctx context.Context, creds Credentials) ([]Item, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	encoded, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	form := url.Values{}
	form.Set("credentials", string(encoded))

	body, err := c.postForm(ctx, c.endpoint("get_"+c.provider+"_items"), form, c.timeouts.Items)
	if err != nil {
		return nil, err
	}
	items := []Item{}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return items, nil
	}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (c *Client) endpoint(action string) string {
	return "/integrations/" + c.provider + "/" + action
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, path, timeout, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, transportError(ctx, path, timeout, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(body),
		}
	}
	return body, nil
}

func transportError(ctx context.Context, path string, timeout time.Duration, err error) error {
	netErr := &NetworkError{Path: path, Err: err}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		netErr.Timeout = timeout
	}
	return netErr
}

// parseDetail extracts the human-readable message from a {"detail": "..."}
// error body. Non-string details (validation error lists) are ignored.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}

func decodeAuthorizationURL(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return trimmed
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
