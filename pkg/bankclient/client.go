/**
 * @description
 * This package provides the request façade for the banking API under test.
 * Every operation issues one HTTP call and returns the raw exchange; non-2xx
 * statuses are data for the caller to assert on, never errors.
 *
 * @dependencies
 * - go.uber.org/zap: request/response tracing.
 *
 * @notes
 * - Only transport failures produce an error: *domain.RequestTimeoutError when
 *   the per-call timeout fires, *domain.TransportError otherwise.
 * - A Client is read-only after construction and safe for concurrent use.
 */
package bankclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/transfa/bank-api-harness/internal/domain"
	"github.com/transfa/bank-api-harness/pkg/logger"
	"go.uber.org/zap"
)

// maxLoggedBody caps request and response bodies in trace logs.
const maxLoggedBody = 512

// Observer receives the latency of every completed call. route is the
// templated path (e.g. /users/{id}) so label cardinality stays bounded.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8083/api.
	BaseURL string
	// Token is sent as a bearer credential when non-empty.
	Token   string
	Timeout time.Duration
	// Trace enables request/response logging.
	Trace      bool
	Logger     *zap.Logger
	Observer   Observer
	HTTPClient *http.Client
}

// Client is a client for the banking API.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	observer   Observer
}

// NewClient creates a new banking API client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	log := zap.NewNop()
	if opts.Trace && opts.Logger != nil {
		log = opts.Logger.Named("bankclient")
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		token:      strings.TrimSpace(opts.Token),
		timeout:    timeout,
		httpClient: httpClient,
		logger:     log,
		observer:   opts.Observer,
	}
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response is the uniform result of every façade call.
type Response struct {
	domain.Exchange
	Header http.Header
}

// Body returns the raw response body.
func (r *Response) Body() []byte {
	return []byte(r.ResponseBody)
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal([]byte(r.ResponseBody), v); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.Method, r.Endpoint, err)
	}
	return nil
}

// Context returns a copy of the exchange for attaching to failures.
func (r *Response) Context() *domain.Exchange {
	ex := r.Exchange
	return &ex
}

func (c *Client) do(ctx context.Context, method, route, path string, payload any) (*Response, error) {
	endpoint := c.baseURL + path

	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s %s payload: %w", method, path, err)
		}
	}

	var body io.Reader
	if reqBody != nil {
		body = bytes.NewReader(reqBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &domain.TransportError{Method: method, Endpoint: endpoint, RequestBody: string(reqBody), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Info("sending request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.String("body", logger.Truncate(string(reqBody), maxLoggedBody)),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		c.logger.Warn("request failed", zap.String("method", method), zap.String("endpoint", endpoint), zap.Duration("elapsed", elapsed), zap.Error(err))
		if isTimeout(err) {
			return nil, &domain.RequestTimeoutError{Method: method, Endpoint: endpoint, RequestBody: string(reqBody), Timeout: c.timeout, Err: err}
		}
		return nil, &domain.TransportError{Method: method, Endpoint: endpoint, RequestBody: string(reqBody), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		if isTimeout(err) {
			return nil, &domain.RequestTimeoutError{Method: method, Endpoint: endpoint, RequestBody: string(reqBody), Timeout: c.timeout, Err: err}
		}
		return nil, &domain.TransportError{Method: method, Endpoint: endpoint, RequestBody: string(reqBody), Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Info("received response",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
		zap.String("body", logger.Truncate(string(respBody), maxLoggedBody)),
	)
	if c.observer != nil {
		c.observer.ObserveRequest(method, route, resp.StatusCode, elapsed)
	}

	return &Response{
		Exchange: domain.Exchange{
			Method:       method,
			Endpoint:     endpoint,
			RequestBody:  string(reqBody),
			StatusCode:   resp.StatusCode,
			ResponseBody: string(respBody),
			Elapsed:      elapsed,
		},
		Header: resp.Header.Clone(),
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
