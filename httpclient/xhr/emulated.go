package xhr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/http/httpguts"

	"github.com/kbukum/apicall/httpclient"
)

// NewEmulated returns a factory of request objects that follow the
// XMLHttpRequest event model on top of client. Redirects follow client's
// policy. A nil client uses http.DefaultClient.
func NewEmulated(client *http.Client) Factory {
	if client == nil {
		client = http.DefaultClient
	}
	return func() XMLHttpRequest {
		return &emulated{client: client, reqHeader: http.Header{}}
	}
}

type emulated struct {
	client *http.Client

	mu           sync.Mutex
	state        ReadyState
	sent         bool
	aborted      bool
	method       string
	url          string
	reqHeader    http.Header
	responseType string
	onUpload     func(ProgressEvent)
	onChange     func()
	cancel       context.CancelFunc

	status     int
	statusText string
	respHeader http.Header
	body       []byte
}

func (e *emulated) Open(method, rawURL string) error {
	if !validMethod(method) {
		return fmt.Errorf("xhr: invalid method %q", method)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("xhr: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("xhr: unsupported scheme %q", u.Scheme)
	}

	e.mu.Lock()
	e.method = strings.ToUpper(method)
	e.url = rawURL
	e.sent = false
	e.reqHeader = http.Header{}
	e.mu.Unlock()

	e.transition(Opened)
	return nil
}

func (e *emulated) SetRequestHeader(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Opened || e.sent {
		return fmt.Errorf("xhr: SetRequestHeader called in state %s", e.state)
	}
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("xhr: invalid header name %q", name)
	}
	value = strings.TrimSpace(value)
	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("xhr: invalid value for header %q", name)
	}
	if prev := e.reqHeader.Get(name); prev != "" {
		value = prev + ", " + value
	}
	e.reqHeader.Set(name, value)
	return nil
}

func (e *emulated) SetResponseType(t string) {
	e.mu.Lock()
	e.responseType = t
	e.mu.Unlock()
}

func (e *emulated) ResponseType() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.responseType
}

func (e *emulated) OnUploadProgress(fn func(ProgressEvent)) {
	e.mu.Lock()
	e.onUpload = fn
	e.mu.Unlock()
}

func (e *emulated) OnReadyStateChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

func (e *emulated) Send(body any) error {
	e.mu.Lock()
	if e.state != Opened || e.sent {
		e.mu.Unlock()
		return fmt.Errorf("xhr: Send called in state %s", e.state)
	}

	var data []byte
	switch b := body.(type) {
	case nil:
	case string:
		data = []byte(b)
	case []byte:
		data = b
	default:
		e.mu.Unlock()
		return fmt.Errorf("xhr: unsupported body type %T", body)
	}
	if e.method == http.MethodGet || e.method == http.MethodHead {
		data = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	var reader io.Reader
	if data != nil {
		reader = &uploadReader{r: bytes.NewReader(data), total: int64(len(data)), emit: e.onUpload}
	}
	req, err := http.NewRequestWithContext(ctx, e.method, e.url, reader)
	if err != nil {
		cancel()
		e.mu.Unlock()
		return fmt.Errorf("xhr: %w", err)
	}
	req.Header = e.reqHeader.Clone()
	if data != nil {
		req.ContentLength = int64(len(data))
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
		}
	}
	e.sent = true
	e.cancel = cancel
	e.mu.Unlock()

	go e.run(req, cancel)
	return nil
}

func (e *emulated) run(req *http.Request, cancel context.CancelFunc) {
	defer cancel()

	resp, err := e.client.Do(req)
	if err != nil {
		e.fail()
		return
	}
	defer resp.Body.Close()

	e.mu.Lock()
	if e.aborted {
		e.mu.Unlock()
		return
	}
	e.status = resp.StatusCode
	e.statusText = statusText(resp)
	e.respHeader = resp.Header.Clone()
	e.mu.Unlock()
	e.transition(HeadersReceived)
	e.transition(Loading)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.fail()
		return
	}
	e.mu.Lock()
	if e.aborted {
		e.mu.Unlock()
		return
	}
	e.body = body
	e.mu.Unlock()
	e.transition(Done)
}

// fail ends the request as a network error: status 0 and no headers.
func (e *emulated) fail() {
	e.mu.Lock()
	if e.aborted {
		e.mu.Unlock()
		return
	}
	e.status = 0
	e.statusText = ""
	e.respHeader = nil
	e.body = nil
	e.mu.Unlock()
	e.transition(Done)
}

func (e *emulated) Abort() {
	e.mu.Lock()
	if e.aborted || !e.sent || e.state == Done {
		e.mu.Unlock()
		return
	}
	e.aborted = true
	e.status = 0
	e.statusText = ""
	e.respHeader = nil
	e.body = nil
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.transition(Done)
	e.mu.Lock()
	e.state = Unsent
	e.mu.Unlock()
}

func (e *emulated) transition(s ReadyState) {
	e.mu.Lock()
	e.state = s
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *emulated) ReadyState() ReadyState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *emulated) Status() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *emulated) StatusText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusText
}

// GetAllResponseHeaders renders lowercase "name: value" lines joined by CRLF,
// sorted by name, with repeated headers combined.
func (e *emulated) GetAllResponseHeaders() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state < HeadersReceived || e.respHeader == nil {
		return ""
	}
	names := make([]string, 0, len(e.respHeader))
	for name := range e.respHeader {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(strings.ToLower(name))
		b.WriteString(": ")
		b.WriteString(strings.Join(e.respHeader[name], ", "))
		b.WriteString("\r\n")
	}
	return b.String()
}

func (e *emulated) Response() any {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.responseType {
	case ResponseTypeJSON:
		if e.state != Done {
			return nil
		}
		var v any
		if err := json.Unmarshal(e.body, &v); err != nil {
			return nil
		}
		return v
	case ResponseTypeArrayBuffer:
		if e.state != Done {
			return nil
		}
		return e.body
	default:
		if e.state < Loading {
			return ""
		}
		return httpclient.DecodeText(e.body, e.respHeader.Get("Content-Type"))
	}
}

// uploadReader emits a progress event after every read.
type uploadReader struct {
	r      io.Reader
	loaded int64
	total  int64
	emit   func(ProgressEvent)
}

func (u *uploadReader) Read(p []byte) (int, error) {
	n, err := u.r.Read(p)
	if n > 0 && u.emit != nil {
		u.loaded += int64(n)
		u.emit(ProgressEvent{LengthComputable: true, Loaded: u.loaded, Total: u.total})
	}
	return n, err
}

func statusText(resp *http.Response) string {
	if _, msg, ok := strings.Cut(resp.Status, " "); ok && msg != "" {
		return msg
	}
	return http.StatusText(resp.StatusCode)
}

func validMethod(m string) bool {
	if m == "" {
		return false
	}
	for i := 0; i < len(m); i++ {
		if !httpguts.IsTokenRune(rune(m[i])) {
			return false
		}
	}
	return true
}
