package httpclient

import (
	"maps"
	"strings"

	"github.com/kbukum/apicall/validation"
)

// Method is an HTTP request method.
type Method string

// Supported request methods.
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
	MethodHead    Method = "HEAD"
)

// String returns the method name.
func (m Method) String() string { return string(m) }

// ProgressFunc receives transfer progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// Options describes a single call. Every field is optional; zero values are
// filled from the defaults template by WithDefaults.
type Options struct {
	// Method is the request method. Defaults to GET.
	Method Method `json:"method" validate:"omitempty,http_method,oneof=GET POST PUT PATCH DELETE OPTIONS HEAD"`

	// Headers are sent with the request. Keys are passed through unchanged.
	Headers map[string]string `json:"headers" validate:"http_headers"`

	// JSONBody is serialized as JSON when non-nil. It takes precedence over
	// RegularBody.
	JSONBody any `json:"-" validate:"-"`

	// RegularBody is sent as-is. Accepts string, []byte, io.Reader or
	// *formdata.Form; a form is encoded as multipart/form-data.
	RegularBody any `json:"-" validate:"-"`

	// URLSearchParams are merged into the URL query, replacing existing
	// parameters with the same name.
	URLSearchParams map[string]any `json:"-" validate:"-"`

	// UploadProgress is invoked with transfer progress percentages. The
	// server backend reports download progress through it, the browser
	// backend reports upload progress.
	UploadProgress ProgressFunc `json:"-" validate:"-"`
}

// DefaultOptions returns a fresh copy of the defaults template.
func DefaultOptions() Options {
	return Options{
		Method:  MethodGet,
		Headers: map[string]string{},
	}
}

// WithDefaults returns a copy of o with unset fields taken from defaults.
// Header and search parameter maps are merged key-wise with o winning.
// Neither o nor defaults is modified.
func (o Options) WithDefaults(defaults Options) Options {
	out := defaults
	out.Headers = mergeMaps(defaults.Headers, o.Headers)
	out.URLSearchParams = mergeMaps(defaults.URLSearchParams, o.URLSearchParams)

	if o.Method != "" {
		out.Method = Method(strings.ToUpper(string(o.Method)))
	}
	if o.JSONBody != nil {
		out.JSONBody = o.JSONBody
	}
	if o.RegularBody != nil {
		out.RegularBody = o.RegularBody
	}
	if o.UploadProgress != nil {
		out.UploadProgress = o.UploadProgress
	}
	return out
}

// Validate checks the method and headers.
func (o Options) Validate() error {
	return validation.Validate(o)
}

func mergeMaps[V any](base, over map[string]V) map[string]V {
	if base == nil && over == nil {
		return nil
	}
	out := make(map[string]V, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}
