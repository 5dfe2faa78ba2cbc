package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/connect/packages/core/config"
	"github.com/google/uuid"
)

var errNoResponse = errors.New("transport returned no response")

// Observer is notified once per call, after pretreatment. statusCode is 0 when
// no response was received.
type Observer interface {
	Observe(method string, statusCode int, duration time.Duration, err error)
}

// Client is the request façade. It owns one instance layer, fixed at
// construction, and is safe for concurrent use.
type Client struct {
	domain          string
	layer           config.Layer
	base            *config.Layer
	transport       Transport
	logger          *slog.Logger
	observer        Observer
	requestIDHeader string
	pretreat        PretreatFunc
}

// PretreatFunc turns a raw response into the call's outcome. messageKey is the
// effective layer's message key. Pretreat is the default.
type PretreatFunc func(resp *Response, messageKey string) (*Result, error)

type Option func(*Client)

// New creates a client for domain. Without WithTransport it sends through a
// NetTransport with default settings.
func New(domain string, opts ...Option) *Client {
	c := &Client{
		domain:   domain,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		pretreat: Pretreat,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewNetTransport()
	}
	return c
}

// WithLayer sets the instance layer.
func WithLayer(l config.Layer) Option {
	return func(c *Client) {
		c.layer = l.Clone()
	}
}

// WithBaseLayer makes the client use a copy of l instead of the process-wide
// defaults, isolating it from later config.SetDefaults calls.
func WithBaseLayer(l config.Layer) Option {
	return func(c *Client) {
		base := l.Clone()
		c.base = &base
	}
}

func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithRequestID sets header to a fresh UUID on every request that does not already carry it.
func WithRequestID(header string) Option {
	return func(c *Client) {
		c.requestIDHeader = header
	}
}

// WithPretreat replaces the response pretreatment for every verb. A hook that
// wants the default behavior for some responses can call Pretreat itself.
func WithPretreat(fn PretreatFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.pretreat = fn
		}
	}
}

func (c *Client) Domain() string {
	return c.domain
}

// Layer returns a copy of the instance layer.
func (c *Client) Layer() config.Layer {
	return c.layer.Clone()
}

func (c *Client) Get(ctx context.Context, path string, params any, overrides ...config.Layer) (*Result, error) {
	return c.do(ctx, MethodGet, path, params, overrides)
}

func (c *Client) Post(ctx context.Context, path string, params Params, overrides ...config.Layer) (*Result, error) {
	return c.do(ctx, MethodPost, path, params, overrides)
}

func (c *Client) Put(ctx context.Context, path string, params Params, overrides ...config.Layer) (*Result, error) {
	return c.do(ctx, MethodPut, path, params, overrides)
}

func (c *Client) Patch(ctx context.Context, path string, params Params, overrides ...config.Layer) (*Result, error) {
	return c.do(ctx, MethodPatch, path, params, overrides)
}

func (c *Client) Delete(ctx context.Context, path string, params any, overrides ...config.Layer) (*Result, error) {
	return c.do(ctx, MethodDelete, path, params, overrides)
}

func (c *Client) Head(ctx context.Context, path string, params any, overrides ...config.Layer) (*Result, error) {
	return c.do(ctx, MethodHead, path, params, overrides)
}

func (c *Client) Options(ctx context.Context, path string, params any, overrides ...config.Layer) (*Result, error) {
	return c.do(ctx, MethodOptions, path, params, overrides)
}

// Do performs a call for an arbitrary verb. The verb methods are thin wrappers around it.
func (c *Client) Do(ctx context.Context, verb Verb, path string, params any, overrides ...config.Layer) (*Result, error) {
	return c.do(ctx, verb, path, params, overrides)
}

func (c *Client) do(ctx context.Context, verb Verb, path string, params any, overrides []config.Layer) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	effective := c.effectiveLayer(overrides)
	if err := effective.Validate(); err != nil {
		return nil, err
	}

	req, err := BuildRequest(verb, c.domain, path, params, effective)
	if err != nil {
		return nil, err
	}
	if c.requestIDHeader != "" && req.Header(c.requestIDHeader) == "" {
		req.SetHeader(c.requestIDHeader, uuid.New().String())
	}

	c.logger.DebugContext(ctx, "sending request", "method", req.Method, "url", req.URL)
	start := time.Now()

	resp, err := c.transport.Send(ctx, req)
	if err == nil && resp == nil {
		err = errNoResponse
	}
	if err != nil {
		err = &TransportError{Method: req.Method, URL: req.URL, Cause: err}
		c.finish(ctx, req, 0, start, err)
		return nil, err
	}

	defer resp.Close()

	result, err := c.pretreat(resp, effective.GetMessageKey())
	if err != nil {
		err = annotate(err, req)
	} else if result != nil {
		result.Method, result.URL = req.Method, req.URL
	}
	c.finish(ctx, req, resp.StatusCode, start, err)
	return result, err
}

// effectiveLayer merges global (or base), instance and call layers in that order.
// The global layer is loaded once per call.
func (c *Client) effectiveLayer(overrides []config.Layer) config.Layer {
	var outer config.Layer
	if c.base != nil {
		outer = *c.base
	} else {
		outer = config.Defaults()
	}

	effective := config.Merge(outer, c.layer)
	for _, o := range overrides {
		effective = config.Merge(effective, o)
	}
	return effective
}

func (c *Client) finish(ctx context.Context, req *Request, status int, start time.Time, err error) {
	duration := time.Since(start)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed",
			"method", req.Method, "url", req.URL, "status", status, "duration", duration, "error", err)
	} else {
		c.logger.DebugContext(ctx, "request completed",
			"method", req.Method, "url", req.URL, "status", status, "duration", duration)
	}
	if c.observer != nil {
		c.observer.Observe(req.Method, status, duration, err)
	}
}
