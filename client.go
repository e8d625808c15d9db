package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultAPIBaseURL is used when no base URL is configured.
const DefaultAPIBaseURL = "http://localhost:5001"

// DefaultHTTPTimeout is the single client-wide timeout; a timeout surfaces as
// a generic network failure, not distinguished from other transport errors.
const DefaultHTTPTimeout = 15 * time.Second

// Client is the portal's REST client. It attaches the bearer token whenever
// the store has one, and treats a 403 whose body mentions "verify your email"
// as an authority-revoked signal: clear the store, fire the revocation hook.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	store         SessionStore
	logger        Logger
	onAuthRevoked func()
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient injects a custom *http.Client (useful for tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClientLogger overrides the default logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAuthRevokedHandler registers the hook fired after the store is cleared
// on an authority-revoked response. The web shell uses it to force a full
// navigation to the login route.
func WithAuthRevokedHandler(fn func()) ClientOption {
	return func(c *Client) {
		c.onAuthRevoked = fn
	}
}

// NewClient returns a Client for the given backend base URL.
func NewClient(baseURL string, store SessionStore, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		store:      store,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes the response into out when non-nil.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// apiEnvelope is the error body shape the backend uses; some endpoints put
// the message under "error", others under "message".
type apiEnvelope struct {
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e apiEnvelope) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if token, _, ok := c.store.Session(); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerrors.Wrap(err, ErrNetworkFailure.Category, ErrNetworkFailure.Message).
			WithTextCode(ErrNetworkFailure.TextCode).
			WithMetadata(map[string]any{"path": path})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerrors.Wrap(err, ErrNetworkFailure.Category, "unable to read response body").
			WithTextCode(ErrNetworkFailure.TextCode)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.errorFromResponse(path, resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to decode response body").
				WithMetadata(map[string]any{"path": path})
		}
	}

	return nil
}

// errorFromResponse maps a failed response to the client error taxonomy. The
// server-provided message, when present, rides along as api_message metadata
// so auth actions can surface it verbatim.
func (c *Client) errorFromResponse(path string, status int, data []byte) error {
	var envelope apiEnvelope
	// a non-JSON body degrades to the generic fallback message
	_ = json.Unmarshal(data, &envelope)
	message := envelope.text()

	if status == http.StatusForbidden && strings.Contains(strings.ToLower(message), "verify your email") {
		c.logger.Info("authority revoked by server, clearing session", "path", path)
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("unable to clear revoked session", "error", err)
		}
		if c.onAuthRevoked != nil {
			c.onAuthRevoked()
		}
		return c.richError(ErrAuthRevoked, path, status, message)
	}

	var base *goerrors.Error
	switch {
	case status == http.StatusUnauthorized:
		base = ErrUnauthorized
	case status == http.StatusForbidden:
		base = ErrForbidden
	case status == http.StatusUnprocessableEntity:
		base = ErrValidationFailed
	case status >= http.StatusInternalServerError:
		base = ErrServerFailure
	case len(envelope.Fields) > 0:
		base = ErrValidationFailed
	default:
		base = ErrValidationFailed
	}

	err := c.richError(base, path, status, message)
	if len(envelope.Fields) > 0 {
		err = err.WithMetadata(map[string]any{"fields": envelope.Fields})
	}
	return err
}

func (c *Client) richError(base *goerrors.Error, path string, status int, message string) *goerrors.Error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	if message != "" {
		clone.Message = message
	}
	return clone.WithMetadata(map[string]any{
		"path":        path,
		"status":      status,
		"api_message": message,
	})
}

// joinQuery appends url.Values to a path when any are set.
func joinQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
