package nethttp

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient"
	"github.com/kbukum/apicall/logger"
)

// Name is the backend name reported in logs and telemetry.
const Name = "server"

// Backend sends requests through an *http.Client.
type Backend struct {
	client    *http.Client
	chunkSize int
	log       *logger.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithHTTPClient replaces the client built from Config. Redirect, timeout and
// TLS settings of Config are then ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(b *Backend) { b.client = c }
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(l *logger.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// New creates a server backend.
func New(cfg Config, opts ...Option) (*Backend, error) {
	cfg.ApplyDefaults()
	client, err := NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		client:    client,
		chunkSize: cfg.ChunkSize,
		log:       logger.Get("apicall.nethttp"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewHTTPClient builds the *http.Client described by cfg: a cloned default
// transport with cfg's TLS settings, its timeout and redirect policy.
func NewHTTPClient(cfg Config) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}

// Name returns "server".
func (b *Backend) Name() string { return Name }

// Do sends req and returns the completed response. Non-2xx statuses are not
// errors; only transport, encoding and parse failures are.
func (b *Backend) Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, errors.InvalidInput("url", err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.InvalidInput("url", "scheme must be http or https")
	}

	body, length, contentType, err := requestBody(req)
	if err != nil {
		return nil, err
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method.String(), req.URL, body)
	if err != nil {
		return nil, errors.InvalidInput("url", err.Error())
	}
	applyHeaders(hreq, req.Headers)
	if contentType != "" {
		deleteHeader(hreq.Header, "Content-Type")
		hreq.Header.Set("Content-Type", contentType)
	}
	if length >= 0 {
		hreq.ContentLength = length
	}

	start := time.Now()
	b.log.Debug("sending request", logger.CallFields(Name, req.Method.String(), req.URL))

	resp, err := b.client.Do(hreq)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := b.readBody(resp.Body, resp.ContentLength, req)
	if err != nil {
		return nil, classify(ctx, err)
	}

	headers := httpclient.FromHTTPHeader(resp.Header)
	payload := httpclient.NewPayload(resp.StatusCode, statusMessage(resp), headers,
		raw, httpclient.DecodeText(raw, resp.Header.Get("Content-Type")))

	b.log.Debug("request completed", logger.Fields(
		logger.FieldMethod, req.Method.String(),
		logger.FieldURL, req.URL,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldBytes, len(raw),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	return httpclient.BuildResponse(payload)
}

// requestBody picks the body for req. length is -1 when unknown; contentType
// is empty when the caller's headers decide.
func requestBody(req *httpclient.Request) (io.Reader, int64, string, error) {
	switch req.Kind {
	case httpclient.BodyJSON:
		return bytes.NewReader(req.JSON), int64(len(req.JSON)), httpclient.JSONContentType, nil
	case httpclient.BodyMultipart:
		data, ct, err := req.EncodeMultipart()
		if err != nil {
			return nil, 0, "", err
		}
		return bytes.NewReader(data), int64(len(data)), ct, nil
	case httpclient.BodyRaw:
		r, n := req.RawReader()
		if r == nil {
			return nil, 0, "", errors.InvalidInput("regular_body", "unsupported body type")
		}
		return r, n, "", nil
	default:
		return nil, 0, "", nil
	}
}

// applyHeaders copies headers onto hreq keeping the caller's spelling.
func applyHeaders(hreq *http.Request, headers map[string]string) {
	for name, value := range headers {
		if strings.EqualFold(name, "Host") {
			hreq.Host = value
			continue
		}
		if strings.EqualFold(name, "Content-Length") {
			continue
		}
		deleteHeader(hreq.Header, name)
		hreq.Header[name] = []string{value}
	}
}

func deleteHeader(h http.Header, name string) {
	for k := range h {
		if strings.EqualFold(k, name) {
			delete(h, k)
		}
	}
}

// maxPreallocate caps the buffer sized from a declared Content-Length.
const maxPreallocate = 1 << 20

// readBody reads the body in chunks, reporting progress after each one when
// the expected size is known. expected is only trusted as a progress
// denominator.
func (b *Backend) readBody(r io.Reader, expected int64, req *httpclient.Request) ([]byte, error) {
	var out bytes.Buffer
	if expected > 0 {
		out.Grow(int(min(expected, maxPreallocate)))
	}
	buf := make([]byte, b.chunkSize)
	var received int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
			received += int64(n)
			req.Report(received, expected)
		}
		if err == io.EOF {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// statusMessage strips the numeric code from resp.Status.
func statusMessage(resp *http.Response) string {
	if _, msg, ok := strings.Cut(resp.Status, " "); ok && msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}

func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); stderrors.Is(ctxErr, context.DeadlineExceeded) {
		return errors.Timeout(err)
	}
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return errors.Timeout(err)
	}
	return errors.Transport(err)
}
