package xhr

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient"
	"github.com/kbukum/apicall/logger"
)

// Name is the backend name reported in logs and telemetry.
const Name = "browser"

// Backend sends requests through XMLHttpRequest objects.
type Backend struct {
	factory         Factory
	acceptAnyStatus bool
	responseType    string
	log             *logger.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithAcceptAnyStatus reports every completed status as success, like the
// server backend does.
func WithAcceptAnyStatus() Option {
	return func(b *Backend) { b.acceptAnyStatus = true }
}

// WithResponseType sets the response type requested from every object.
func WithResponseType(t string) Option {
	return func(b *Backend) { b.responseType = t }
}

// WithLogger sets the logger for per-call output and setup failures.
func WithLogger(l *logger.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// New creates a browser backend that gets its request objects from factory.
func New(factory Factory, opts ...Option) *Backend {
	b := &Backend{
		factory: factory,
		log:     logger.Get("apicall.xhr"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns "browser".
func (b *Backend) Name() string { return Name }

// Do sends req and waits for the DONE ready state or ctx cancellation.
func (b *Backend) Do(ctx context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	x := b.factory()
	start := time.Now()

	if err := x.Open(req.Method.String(), req.URL); err != nil {
		return nil, b.setupFailed("open", req, err)
	}

	body, err := b.configure(x, req)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var once sync.Once
	x.OnReadyStateChange(func() {
		if x.ReadyState() == Done {
			once.Do(func() { close(done) })
		}
	})

	b.log.Debug("sending request", logger.CallFields(Name, req.Method.String(), req.URL))

	if err := x.Send(body); err != nil {
		return nil, b.setupFailed("send", req, err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		x.Abort()
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Timeout(ctx.Err())
		}
		return nil, errors.Transport(ctx.Err())
	}

	resp, err := b.complete(x)
	if resp != nil {
		b.log.Debug("request completed", logger.Fields(
			logger.FieldMethod, req.Method.String(),
			logger.FieldURL, req.URL,
			logger.FieldStatus, resp.StatusCode,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
	}
	return resp, err
}

// configure sets headers, response type and the progress listener, and
// returns the body to send.
func (b *Backend) configure(x XMLHttpRequest, req *httpclient.Request) (any, error) {
	var body any

	switch req.Kind {
	case httpclient.BodyJSON:
		if err := x.SetRequestHeader("Content-Type", httpclient.JSONContentType); err != nil {
			return nil, b.setupFailed("headers", req, err)
		}
		body = string(req.JSON)
	case httpclient.BodyMultipart:
		data, ct, err := req.EncodeMultipart()
		if err != nil {
			return nil, b.setupFailed("encode", req, err)
		}
		if !hasHeader(req.Headers, "Content-Type") {
			if err := x.SetRequestHeader("Content-Type", ct); err != nil {
				return nil, b.setupFailed("headers", req, err)
			}
		}
		body = data
	case httpclient.BodyRaw:
		data, err := rawBody(req)
		if err != nil {
			return nil, b.setupFailed("body", req, err)
		}
		body = data
	}

	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := x.SetRequestHeader(name, req.Headers[name]); err != nil {
			return nil, b.setupFailed("headers", req, err)
		}
	}

	if b.responseType != "" {
		x.SetResponseType(b.responseType)
	}

	if req.Progress != nil {
		x.OnUploadProgress(func(e ProgressEvent) {
			if e.LengthComputable {
				req.Report(e.Loaded, e.Total)
			}
		})
	}
	return body, nil
}

// complete turns a DONE object into a response.
func (b *Backend) complete(x XMLHttpRequest) (*httpclient.Response, error) {
	status := x.Status()
	if status == 0 {
		return nil, errors.Transport(fmt.Errorf("network error"))
	}

	headers := httpclient.ParseHeaderText(x.GetAllResponseHeaders())

	var resp *httpclient.Response
	if x.ResponseType() == ResponseTypeJSON {
		v := x.Response()
		text, _ := json.Marshal(v)
		resp = httpclient.NewResponse(httpclient.NewPayload(status, x.StatusText(), headers, text, ""))
		resp.SetJSON(v)
	} else {
		var raw []byte
		var text string
		switch r := x.Response().(type) {
		case string:
			raw, text = []byte(r), r
		case []byte:
			raw = r
			text = httpclient.DecodeText(r, headerValue(headers, "Content-Type"))
		}
		var err error
		resp, err = httpclient.BuildResponse(httpclient.NewPayload(status, x.StatusText(), headers, raw, text))
		if err != nil {
			return nil, err
		}
	}

	if !b.acceptAnyStatus && !resp.OK {
		return resp, errors.Status(status, x.StatusText())
	}
	return resp, nil
}

func (b *Backend) setupFailed(stage string, req *httpclient.Request, err error) error {
	fields := logger.CallFields(Name, req.Method.String(), req.URL)
	fields["stage"] = stage
	b.log.WithError(err).Error("request setup failed", fields)
	if e, ok := errors.As(err); ok && e.Code != errors.ErrCodeSetup {
		return errors.Setup(stage, err).WithDetail("cause_code", string(e.Code))
	}
	return errors.Setup(stage, err)
}

func rawBody(req *httpclient.Request) (any, error) {
	switch v := req.Raw.(type) {
	case string, []byte:
		return v, nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, err
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported body type %T", req.Raw)
	}
}

func hasHeader(h map[string]string, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func headerValue(h map[string]string, name string) string {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
