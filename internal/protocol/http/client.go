package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/artpar/postbox/internal/core"
)

// Client executes request definitions over HTTP.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
}

// Config holds HTTP client configuration.
type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
}

// Option is a function that configures the Client.
type Option func(*Client)

// NewClient creates a new HTTP client with the given options.
// Without WithTimeout, requests run until the caller's context ends.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{},
		config: Config{
			FollowRedirect: true,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom HTTP transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithNoRedirects disables automatic redirect following.
func WithNoRedirects() Option {
	return func(c *Client) {
		c.config.FollowRedirect = false
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
}

// WithCookieJar keeps cookies between sends in jar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCookieJar returns an in-memory jar that respects public suffixes.
func NewCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// SendError is returned when a request could not be completed. Response is
// the error-shaped envelope to show in place of a real response.
type SendError struct {
	Response core.Response
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Send resolves req against env, executes it and returns the normalized
// response. Any failure is reported as a *SendError.
func (c *Client) Send(ctx context.Context, req core.RequestConfig, env *core.Environment) (core.Response, error) {
	resolved := core.ResolveRequest(req, env)
	startTime := time.Now()

	resp, err := c.do(ctx, resolved, startTime)
	if err != nil {
		elapsed := time.Since(startTime).Milliseconds()
		c.logger.Debug("request failed", "method", resolved.Method, "url", resolved.URL, "error", err)
		sendErr := &SendError{
			Response: core.NewNetworkErrorResponse(err.Error(), elapsed),
			Err:      err,
		}
		return sendErr.Response, sendErr
	}

	c.logger.Debug("request completed",
		"method", resolved.Method,
		"url", resolved.URL,
		"status", resp.Status,
		"duration_ms", resp.ResponseTime,
		"size", resp.Size,
	)
	return resp, nil
}

func (c *Client) do(ctx context.Context, resolved core.ResolvedRequest, startTime time.Time) (core.Response, error) {
	httpReq, err := toHTTPRequest(ctx, resolved)
	if err != nil {
		return core.Response{}, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.Response{}, err
	}
	defer httpResp.Body.Close()

	elapsed := time.Since(startTime).Milliseconds()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return core.Response{}, fmt.Errorf("failed to read response body: %w", err)
	}

	return fromHTTPResponse(httpResp, bodyBytes, elapsed), nil
}

// toHTTPRequest converts a resolved request to an http.Request.
func toHTTPRequest(ctx context.Context, resolved core.ResolvedRequest) (*http.Request, error) {
	var bodyReader io.Reader
	if resolved.HasBody {
		bodyReader = strings.NewReader(resolved.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(resolved.Method), resolved.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range resolved.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, nil
}

// fromHTTPResponse builds the response envelope. Header names are lower-cased
// and repeated values joined with ", ".
func fromHTTPResponse(httpResp *http.Response, bodyBytes []byte, elapsed int64) core.Response {
	headers := make(map[string]string, len(httpResp.Header))
	for key, values := range httpResp.Header {
		headers[strings.ToLower(key)] = strings.Join(values, ", ")
	}

	data := decodeBody(httpResp.Header.Get("Content-Type"), bodyBytes)

	return core.Response{
		Status:       httpResp.StatusCode,
		StatusText:   statusText(httpResp),
		Headers:      headers,
		Data:         data,
		ResponseTime: elapsed,
		Size:         core.SerializedSize(data),
	}
}

// decodeBody parses JSON bodies and falls back to text.
func decodeBody(contentType string, body []byte) any {
	if strings.Contains(contentType, "application/json") {
		var data any
		if err := json.Unmarshal(body, &data); err == nil {
			return data
		}
	}
	return string(body)
}

// statusText returns the reason phrase without the status code.
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
