package apicall

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient"
	"github.com/kbukum/apicall/httpclient/nethttp"
	"github.com/kbukum/apicall/httpclient/xhr"
	"github.com/kbukum/apicall/logger"
	"github.com/kbukum/apicall/observability"
)

// Options describes a single call.
type Options = httpclient.Options

// Response is the canonical result of a completed call.
type Response = httpclient.Response

// DefaultOptions returns a fresh copy of the package defaults template.
func DefaultOptions() Options {
	return httpclient.DefaultOptions()
}

// Client dispatches calls to one backend with a defaults template.
// A Client is safe for concurrent use.
type Client struct {
	backend  httpclient.Backend
	defaults Options
	log      *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDefaults replaces the defaults template. It is copied, so later
// changes to the caller's maps do not leak into the client.
func WithDefaults(o Options) Option {
	return func(c *Client) {
		c.defaults = o.WithDefaults(httpclient.DefaultOptions())
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for cfg, building the backend it names.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(&cfg.Logging, "apicall")
	b, err := newBackend(&cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.Observability.Enabled() {
		var iopts []observability.InstrumentOption
		if !cfg.Observability.Tracing {
			iopts = append(iopts, observability.WithTracer(nil))
		}
		if !cfg.Observability.Metrics {
			iopts = append(iopts, observability.WithMetrics(nil))
		}
		b = observability.Instrument(b, iopts...)
	}

	defaults := httpclient.DefaultOptions()
	maps.Copy(defaults.Headers, cfg.Headers)
	cfg.Auth.ApplyTo(&defaults)

	all := append([]Option{WithLogger(log), WithDefaults(defaults)}, opts...)
	return NewWithBackend(b, all...), nil
}

func newBackend(cfg *Config, log *logger.Logger) (httpclient.Backend, error) {
	name := cfg.Backend
	if name == "" {
		name = platformBackend
	}

	switch name {
	case BackendServer:
		return nethttp.New(cfg.serverConfig(),
			nethttp.WithLogger(log.WithComponent("apicall.nethttp")))
	case BackendBrowser:
		factory, err := browserFactory(cfg)
		if err != nil {
			return nil, err
		}
		xopts := []xhr.Option{xhr.WithLogger(log.WithComponent("apicall.xhr"))}
		if cfg.AcceptAnyStatus {
			xopts = append(xopts, xhr.WithAcceptAnyStatus())
		}
		return xhr.New(factory, xopts...), nil
	default:
		return nil, errors.InvalidInput("backend", "unknown backend "+name)
	}
}

// NewWithBackend creates a client over an explicit backend.
func NewWithBackend(b httpclient.Backend, opts ...Option) *Client {
	c := &Client{
		backend:  b,
		defaults: httpclient.DefaultOptions(),
		log:      logger.Get("apicall"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the backend calls are sent through.
func (c *Client) Backend() httpclient.Backend { return c.backend }

// Defaults returns a copy of the defaults template.
func (c *Client) Defaults() Options {
	return Options{}.WithDefaults(c.defaults)
}

// Call sends a request to url. opts may be nil; set fields override the
// defaults template. The backend's result is returned unchanged.
func (c *Client) Call(ctx context.Context, url string, opts *Options) (*Response, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	req, err := httpclient.Prepare(url, o.WithDefaults(c.defaults))
	if err != nil {
		c.log.Debug("call rejected", logger.ErrorFields("prepare", err))
		return nil, err
	}

	start := time.Now()
	resp, err := c.backend.Do(ctx, req)

	fields := logger.CallFields(c.backend.Name(), req.Method.String(), req.URL)
	fields[logger.FieldBodyKind] = req.Kind.String()
	fields[logger.FieldDuration] = time.Since(start).Milliseconds()
	if resp != nil {
		fields[logger.FieldStatus] = resp.StatusCode
	}
	if err != nil {
		fields[logger.FieldError] = err.Error()
	}
	c.log.Debug("call finished", fields)

	return resp, err
}

var (
	defaultOnce   sync.Once
	defaultMu     sync.RWMutex
	defaultClient *Client
	defaultErr    error
)

// Default returns the process-wide client used by Call, building it from a
// zero Config on first use.
func Default() (*Client, error) {
	defaultOnce.Do(func() {
		c, err := New(Config{})
		defaultMu.Lock()
		if defaultClient == nil {
			defaultClient, defaultErr = c, err
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultClient, defaultErr
}

// SetDefault replaces the process-wide client.
func SetDefault(c *Client) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defaultClient, defaultErr = c, nil
	defaultMu.Unlock()
}

// Call sends a request with the process-wide client.
func Call(ctx context.Context, url string, opts *Options) (*Response, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	return c.Call(ctx, url, opts)
}
