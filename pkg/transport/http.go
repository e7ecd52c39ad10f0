package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/lightbase/lbclient/pkg/lberr"
)

// RequestIDHeader carries a per-call id so server logs can be matched with
// client logs. Retries of one call share the id.
const RequestIDHeader = "X-Request-ID"

// HTTP is the Transport talking to a LightBase server over HTTP. It is safe
// for concurrent use.
type HTTP struct {
	cfg     Config
	baseURL string
	client  *http.Client
	logger  hclog.Logger
	metrics *Metrics
}

var _ Transport = (*HTTP)(nil)

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithLogger sets the logger. Requests are logged at Debug, retries at Warn.
func WithLogger(l hclog.Logger) Option {
	return func(t *HTTP) { t.logger = l }
}

// WithHTTPClient replaces the client built from the Config.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTP) { t.client = c }
}

// WithMetrics records every attempt in m.
func WithMetrics(m *Metrics) Option {
	return func(t *HTTP) { t.metrics = m }
}

// NewHTTP returns an HTTP transport for cfg. Unset fields take the values of
// DefaultConfig.
func NewHTTP(cfg Config, opts ...Option) (*HTTP, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}

	t := &HTTP{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = cfg.NewHTTPClient()
	}
	return t, nil
}

// BaseURL returns the server root the transport sends to.
func (t *HTTP) BaseURL() string {
	return t.baseURL
}

// URL returns the absolute URL of req.
func (t *HTTP) URL(req *Request) string {
	u := t.baseURL + EscapePath(req.Path)
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// Do sends req. For idempotent methods (GET, PUT, DELETE) network failures
// and 5xx answers are retried up to MaxRetries times with exponential
// backoff. POST is sent once since the server may have applied it before
// failing.
func (t *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request: %w", lberr.ErrInvalidArgument)
	}
	if req.Method == "" {
		r := *req
		r.Method = http.MethodGet
		req = &r
	}

	endpoint := t.URL(req)
	requestID := uuid.NewString()
	res := resource(req)

	var resp *Response
	op := func() error {
		r, err := t.send(ctx, req, endpoint, requestID, res)
		if err == nil {
			resp = r
			return nil
		}
		if ctx.Err() != nil || !retryable(req.Method, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		t.metrics.retry(req.Method, res)
		t.logger.Warn("retrying request",
			"method", req.Method,
			"url", endpoint,
			"request_id", requestID,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(op, t.backOff(ctx), notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *HTTP) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.RetryDelay
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(t.cfg.MaxRetries)), ctx)
}

func retryable(method string, err error) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
	default:
		return false
	}
	var te *lberr.TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Status == 0 || te.Status >= http.StatusInternalServerError
}

func (t *HTTP) send(ctx context.Context, req *Request, endpoint, requestID, res string) (*Response, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("error encoding request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.cfg.UserAgent)
	httpReq.Header.Set(RequestIDHeader, requestID)
	for k, v := range t.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		t.metrics.observe(req.Method, res, 0, time.Since(start))
		t.logger.Debug("request failed",
			"method", req.Method,
			"url", endpoint,
			"duration", time.Since(start),
			"request_id", requestID,
			"error", err,
		)
		return nil, &lberr.TransportError{Method: req.Method, URL: endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	t.metrics.observe(req.Method, res, httpResp.StatusCode, duration)
	t.logger.Debug("request",
		"method", req.Method,
		"url", endpoint,
		"status", httpResp.StatusCode,
		"duration", duration,
		"request_id", requestID,
	)
	if err != nil {
		return nil, &lberr.TransportError{
			Method: req.Method,
			URL:    endpoint,
			Status: httpResp.StatusCode,
			Err:    fmt.Errorf("error reading response body: %w", err),
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &lberr.TransportError{
			Method: req.Method,
			URL:    endpoint,
			Status: httpResp.StatusCode,
			Body:   data,
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// encodeBody builds the request body. It is called once per attempt since
// readers cannot be rewound.
func encodeBody(req *Request) (io.Reader, string, error) {
	if req.File == nil {
		if len(req.Form) == 0 {
			return nil, "", nil
		}
		return strings.NewReader(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(req.Form))
	for k := range req.Form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range req.Form[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", err
			}
		}
	}

	part, err := w.CreateFormFile(req.File.Field, req.File.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.File.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
