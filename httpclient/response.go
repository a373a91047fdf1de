package httpclient

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kbukum/apicall/errors"
)

// Payload is the native response object of a completed call: raw body,
// decoded text and the status line.
type Payload struct {
	status     int
	statusText string
	headers    map[string]string
	body       []byte
	text       string
}

// NewPayload builds a payload. text is the body decoded for display; when
// empty the raw bytes are used as-is.
func NewPayload(status int, statusText string, headers map[string]string, body []byte, text string) *Payload {
	if text == "" && len(body) > 0 {
		text = string(body)
	}
	return &Payload{
		status:     status,
		statusText: statusText,
		headers:    headers,
		body:       body,
		text:       text,
	}
}

// Status returns the status code.
func (p *Payload) Status() int { return p.status }

// StatusText returns the reason phrase.
func (p *Payload) StatusText() string { return p.statusText }

// Headers returns the response headers as reported by the transport.
func (p *Payload) Headers() map[string]string { return p.headers }

// Bytes returns the raw body.
func (p *Payload) Bytes() []byte { return p.body }

// Text returns the body decoded with its declared charset.
func (p *Payload) Text() string { return p.text }

// Response is the uniform envelope returned by every backend.
type Response struct {
	OK            bool              `json:"ok"`
	StatusCode    int               `json:"statusCode"`
	StatusMessage string            `json:"statusMessage"`
	Headers       map[string]string `json:"headers"`
	Response      *Payload          `json:"-"`
	JSON          any               `json:"json,omitempty"`

	hasJSON bool
}

// NewResponse wraps p without touching its body.
func NewResponse(p *Payload) *Response {
	return &Response{
		OK:            IsSuccessStatus(p.status),
		StatusCode:    p.status,
		StatusMessage: p.statusText,
		Headers:       p.headers,
		Response:      p,
	}
}

// BuildResponse wraps p and decodes the body when the response declares a
// JSON content type. An empty body yields no JSON; a malformed one fails
// with a parse error.
func BuildResponse(p *Payload) (*Response, error) {
	resp := NewResponse(p)
	if !IsJSONContentType(resp.ContentType()) || len(strings.TrimSpace(p.text)) == 0 {
		return resp, nil
	}
	var v any
	if err := json.Unmarshal([]byte(p.text), &v); err != nil {
		return nil, errors.Parse(err)
	}
	resp.SetJSON(v)
	return resp, nil
}

// SetJSON attaches an already decoded body.
func (r *Response) SetJSON(v any) {
	r.JSON = v
	r.hasJSON = true
}

// HasJSON reports whether the body was decoded as JSON. A body of literal
// null decodes to a nil JSON value yet still reports true.
func (r *Response) HasJSON() bool { return r.hasJSON }

// Header returns a response header value, matching the name case-insensitively.
func (r *Response) Header(name string) string {
	v, _ := lookupHeader(r.Headers, name)
	return v
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string { return r.Header("Content-Type") }

// IsJSON reports whether the response declared a JSON content type.
func (r *Response) IsJSON() bool { return IsJSONContentType(r.ContentType()) }

// Text returns the decoded body text.
func (r *Response) Text() string {
	if r.Response == nil {
		return ""
	}
	return r.Response.Text()
}

// Get looks up a gjson path in the body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.Get(r.Text(), path)
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal([]byte(r.Text()), v); err != nil {
		return errors.Parse(err)
	}
	return nil
}

// IsSuccessStatus reports whether status is in the 2xx range.
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

// IsJSONContentType reports whether ct starts with application/json,
// ignoring case and leading whitespace.
func IsJSONContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "application/json")
}
