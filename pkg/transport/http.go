package transport

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/vango-dev/spendsync/internal/errors"
	"github.com/vango-dev/spendsync/pkg/api"
)

// maxResponseSize bounds the response body read from the API.
const maxResponseSize = 8 << 20

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithRetry sets the first retry delay and the total time spent retrying.
// A maxElapsed of zero disables retries.
func WithRetry(initial, maxElapsed time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.initialInterval = initial
		t.maxElapsed = maxElapsed
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(t *HTTPTransport) {
		t.header.Add(key, value)
	}
}

// WithHTTPLogger sets the logger used to report retries.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(t *HTTPTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// HTTPTransport sends commands as JSON POST requests.
type HTTPTransport struct {
	baseURL         *url.URL
	client          *http.Client
	header          http.Header
	logger          *slog.Logger
	initialInterval time.Duration
	maxElapsed      time.Duration
}

// NewHTTP creates a transport for the API at baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) (*HTTPTransport, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New("S101").
			WithDetailf("api base URL %q must be an absolute http(s) URL", baseURL).
			Wrap(err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	t := &HTTPTransport{
		baseURL:         u,
		client:          &http.Client{Timeout: 30 * time.Second},
		header:          make(http.Header),
		logger:          slog.Default(),
		initialInterval: 200 * time.Millisecond,
		maxElapsed:      5 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Endpoint returns the URL a command is posted to.
func (t *HTTPTransport) Endpoint(command api.Command) string {
	u := *t.baseURL
	u.Path = u.Path + "/api/" + url.PathEscape(string(command))
	return u.String()
}

// Write implements api.Transport.
func (t *HTTPTransport) Write(ctx context.Context, req api.Request) (*api.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.New("S200").WithDetail("request could not be encoded").Wrap(err)
	}
	endpoint := t.Endpoint(req.Command)

	var resp *api.Response
	attempt := 0
	op := func() error {
		attempt++
		r, err := t.do(ctx, endpoint, req.ID, body)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, wait time.Duration) {
		t.logger.Warn("retrying command",
			"command", req.Command,
			"request_id", req.ID,
			"attempt", attempt,
			"wait", wait,
			"error", err)
	}

	if err := backoff.RetryNotify(op, t.policy(ctx), notify); err != nil {
		return nil, errors.FromError(err, "S200")
	}
	return resp, nil
}

func (t *HTTPTransport) policy(ctx context.Context) backoff.BackOff {
	if t.maxElapsed <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.initialInterval
	b.MaxElapsedTime = t.maxElapsed
	return backoff.WithContext(b, ctx)
}

// do performs one attempt. Errors wrapped in backoff.Permanent are not
// retried.
func (t *HTTPTransport) do(ctx context.Context, endpoint, requestID string, body []byte) (*api.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(errors.New("S200").Wrap(err))
	}
	for k, vs := range t.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(errors.New("S200").Wrap(ctx.Err()))
		}
		return nil, errors.New("S200").Wrap(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.New("S201").Wrap(err)
	}

	if httpResp.StatusCode >= 500 {
		return nil, errors.New("S200").WithDetailf("server responded %s", httpResp.Status)
	}

	var resp api.Response
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil {
			if httpResp.StatusCode != http.StatusOK {
				// Non-JSON error page: the status is the code.
				return &api.Response{JSONCode: httpResp.StatusCode, Message: httpResp.Status}, nil
			}
			return nil, backoff.Permanent(errors.New("S201").Wrap(err))
		}
	}
	if resp.JSONCode == 0 {
		resp.JSONCode = httpResp.StatusCode
	}
	return &resp, nil
}
