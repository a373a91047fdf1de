// Package nethttp is the server backend: it issues prepared requests over a
// net/http client.
//
// Every completed exchange, whatever its status, returns a response and a
// nil error. Progress callbacks receive download progress, once per body
// chunk, when the server announced a Content-Length.
//
//	b, err := nethttp.New(nethttp.Config{FollowRedirects: true})
//	resp, err := b.Do(ctx, req)
package nethttp
