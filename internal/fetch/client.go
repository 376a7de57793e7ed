package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceAttributeRequestID = "fetch.request_id"
	TraceAttributeMethod    = "http.request.method"
	TraceAttributeURL       = "url.full"
	TraceAttributeStatus    = "http.response.status_code"
)

var tracer = otel.Tracer("github.com/roach88/jk/internal/fetch")

// Request configures one call.
type Request struct {
	// Method defaults to GET.
	Method string

	// Headers are added to the request. Client headers are applied first.
	Headers http.Header

	// Body is sent as is when it is a string or []byte. Any other non-nil
	// value is encoded as JSON, and Content-Type is set to
	// application/json unless Headers already names a content type.
	Body any
}

// Client sends requests. The zero value is not usable; call New.
type Client struct {
	http    *http.Client
	base    *url.URL
	headers http.Header
	logger  *slog.Logger

	// transport is the default transport, closed by CloseIdleConnections.
	transport *http.Transport
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client is nil")
		}
		c.http = hc
		c.transport = nil
		return nil
	}
}

// WithBaseURL resolves relative request URLs against raw.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if !u.IsAbs() {
			return fmt.Errorf("invalid base URL %q: not absolute", raw)
		}
		c.base = u
		return nil
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) error {
		for k, vs := range h {
			for _, v := range vs {
				c.headers.Add(k, v)
			}
		}
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) error {
		if l != nil {
			c.logger = l
		}
		return nil
	}
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	c := &Client{
		http:      &http.Client{Transport: otelhttp.NewTransport(transport)},
		headers:   http.Header{},
		logger:    slog.Default(),
		transport: transport,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CloseIdleConnections closes idle keep-alive connections.
func (c *Client) CloseIdleConnections() {
	if c.transport != nil {
		c.transport.CloseIdleConnections()
		return
	}
	c.http.CloseIdleConnections()
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, target string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, target, Request{Method: http.MethodGet, Headers: headers})
}

// Head sends a HEAD request.
func (c *Client) Head(ctx context.Context, target string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, target, Request{Method: http.MethodHead, Headers: headers})
}

// Delete sends a DELETE request with an optional body.
func (c *Client) Delete(ctx context.Context, target string, body any, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, target, Request{Method: http.MethodDelete, Headers: headers, Body: body})
}

// Patch sends a PATCH request.
func (c *Client) Patch(ctx context.Context, target string, body any, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, target, Request{Method: http.MethodPatch, Headers: headers, Body: body})
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, target string, body any, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, target, Request{Method: http.MethodPost, Headers: headers, Body: body})
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, target string, body any, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, target, Request{Method: http.MethodPut, Headers: headers, Body: body})
}

// Do sends r to target and returns the response unmodified. Transport
// failures are returned as *RequestError; status codes are left to the
// caller.
func (c *Client) Do(ctx context.Context, target string, r Request) (resp *http.Response, err error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	requestID := newRequestID()
	log := c.logger.With("request_id", requestID, "method", method)

	ctx, span := tracer.Start(ctx, "fetch "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(TraceAttributeRequestID, requestID),
			attribute.String(TraceAttributeMethod, method),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	fail := func(u string, cause error) error {
		log.Error("fetch failed", "url", u, "error", cause)
		return &RequestError{Method: method, URL: u, RequestID: requestID, Err: cause}
	}

	u, err := c.resolve(target)
	if err != nil {
		return nil, fail(target, err)
	}
	span.SetAttributes(attribute.String(TraceAttributeURL, u.String()))

	body, isJSON, err := encodeBody(r.Body)
	if err != nil {
		return nil, fail(u.String(), err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fail(u.String(), err)
	}
	addHeaders(req.Header, c.headers)
	addHeaders(req.Header, r.Headers)
	if isJSON && !hasHeader(r.Headers, "Content-Type") && !hasHeader(c.headers, "Content-Type") {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("fetch request", "url", u.String())
	start := time.Now()

	resp, err = c.http.Do(req)
	if err != nil {
		return nil, fail(u.String(), err)
	}

	span.SetAttributes(attribute.Int(TraceAttributeStatus, resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
	}
	log.Debug("fetch response",
		"url", u.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

func (c *Client) resolve(target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("url %q is not absolute and no base URL is set", target)
	}
	return u, nil
}

// encodeBody returns the request body and whether it was JSON-encoded.
func encodeBody(body any) (io.Reader, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case string:
		return strings.NewReader(b), false, nil
	case []byte:
		return bytes.NewReader(b), false, nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, false, fmt.Errorf("encode body: %w", err)
	}
	return bytes.NewReader(data), true, nil
}

// hasHeader matches header names case-insensitively, so maps built by
// hand without canonical keys are still found.
func hasHeader(h http.Header, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func addHeaders(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
