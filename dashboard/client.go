package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/botline"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Interface compliance checks.
var (
	_ botline.ChatService = (*Client)(nil)
	_ botline.AuthService = (*Client)(nil)
)

// Client talks to the dashboard API on behalf of the user whose token is held
// in the AuthStore.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      botline.AuthStore
	logger     *zap.Logger
	timeout    time.Duration
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client. Its Timeout, if any, also applies
// to streams; prefer WithTimeout for REST calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds each REST call. Zero disables the bound. Streams are
// never bounded by it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a new [Client] reading and writing credentials in store,
// which must not be nil.
func New(store botline.AuthStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    botline.DefaultBaseURL,
		httpClient: http.DefaultClient,
		store:      store,
		logger:     zap.NewNop(),
		timeout:    botline.DefaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Error is a failed REST call reported by the platform.
type Error struct {
	Code    int // HTTP status
	Message string
}

func (e *Error) Error() string {
	if e.Code >= 300 {
		return fmt.Sprintf("dashboard: HTTP %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("dashboard: %s", e.Message)
}

// setHeaders attaches the headers shared by REST calls and streams and
// returns the request id.
func (c *Client) setHeaders(req *http.Request) string {
	id := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, id)
	if tok := botline.Token(c.store); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return id
}

// do performs a REST call. in, when non-nil, is sent as the JSON body; the
// envelope's data field is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	id := c.setHeaders(req)
	log := c.logger.With(zap.String("request_id", id), zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("request failed", zap.Error(err))
		return fmt.Errorf("dashboard: %w", err)
	}
	defer resp.Body.Close()
	log.Debug("response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.store.Delete(botline.KeyAccessToken, botline.KeyUsername); err != nil {
			log.Warn("clear credentials", zap.Error(err))
		}
		return fmt.Errorf("dashboard: %s %s: %w", method, path, botline.ErrUnauthorized)
	}

	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("dashboard: read response: %w", err)
	}
	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	var env apiEnvelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && success {
			return fmt.Errorf("dashboard: decode response: %w", err)
		}
	}

	if !success || !env.ok() {
		msg := env.Message
		if msg == "" && !success {
			msg = http.StatusText(resp.StatusCode)
		}
		if msg == "" {
			msg = "request failed"
		}
		return &Error{Code: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("dashboard: decode data: %w", err)
	}
	return nil
}

// IsUnauthorized reports whether err came from an HTTP 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, botline.ErrUnauthorized)
}
