package httpclient

import "context"

// Backend issues a prepared request over one transport.
//
// A completed exchange returns a non-nil Response. Whether a non-2xx status
// is also reported as an error is up to the backend: the server backend
// never does, the browser backend does unless told otherwise. In that case
// both the Response and an errors.Status error are returned.
type Backend interface {
	Name() string
	Do(ctx context.Context, req *Request) (*Response, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc struct {
	BackendName string
	Fn          func(ctx context.Context, req *Request) (*Response, error)
}

func (f BackendFunc) Name() string { return f.BackendName }

func (f BackendFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f.Fn(ctx, req)
}
