package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient/formdata"
)

// JSONContentType is sent with JSON request bodies.
const JSONContentType = "application/json; charset=utf-8"

// BodyKind identifies how a prepared request carries its body.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyJSON
	BodyMultipart
	BodyRaw
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyMultipart:
		return "multipart"
	case BodyRaw:
		return "raw"
	default:
		return "none"
	}
}

// Request is a call ready for a backend: defaults applied, query merged and
// the body variant chosen.
type Request struct {
	Method   Method
	URL      string
	Headers  map[string]string
	Kind     BodyKind
	JSON     []byte
	Raw      any
	Form     *formdata.Form
	Boundary string
	Progress ProgressFunc
}

// Prepare validates opts and builds the request for url. opts must already
// carry defaults; see Options.WithDefaults.
func Prepare(url string, opts Options) (*Request, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.InvalidInput("url", "url is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	method := opts.Method
	if method == "" {
		method = MethodGet
	}

	req := &Request{
		Method:   method,
		URL:      MergeQuery(url, opts.URLSearchParams),
		Headers:  mergeMaps(nil, opts.Headers),
		Progress: opts.UploadProgress,
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}

	switch {
	case opts.JSONBody != nil:
		data, err := json.Marshal(opts.JSONBody)
		if err != nil {
			return nil, errors.Encode("json", err)
		}
		req.Kind = BodyJSON
		req.JSON = data
	case opts.RegularBody != nil:
		switch body := opts.RegularBody.(type) {
		case *formdata.Form:
			req.Kind = BodyMultipart
			req.Form = body
			req.Boundary = formdata.NewBoundary()
		case string, []byte, io.Reader:
			req.Kind = BodyRaw
			req.Raw = body
		default:
			return nil, errors.InvalidInput("regular_body",
				fmt.Sprintf("unsupported body type %T", opts.RegularBody))
		}
	}
	return req, nil
}

// EncodeMultipart encodes the form body and returns it with the matching
// Content-Type value.
func (r *Request) EncodeMultipart() ([]byte, string, error) {
	if r.Kind != BodyMultipart || r.Form == nil {
		return nil, "", errors.InvalidInput("regular_body", "request has no form body")
	}
	data, err := r.Form.Encode(r.Boundary)
	if err != nil {
		return nil, "", errors.Encode("multipart", err)
	}
	return data, formdata.ContentType(r.Boundary), nil
}

// RawReader returns the raw body as a reader plus its length, or -1 when the
// length is unknown.
func (r *Request) RawReader() (io.Reader, int64) {
	switch body := r.Raw.(type) {
	case string:
		return strings.NewReader(body), int64(len(body))
	case []byte:
		return bytes.NewReader(body), int64(len(body))
	case io.Reader:
		return body, -1
	default:
		return nil, 0
	}
}

// Report forwards transferred/total as a percentage to the progress
// callback. It does nothing without a callback or a positive total.
func (r *Request) Report(transferred, total int64) {
	if r.Progress == nil || total <= 0 {
		return
	}
	r.Progress(float64(transferred) / float64(total) * 100)
}
