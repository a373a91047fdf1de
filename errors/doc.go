// Package errors provides the error taxonomy for apicall.
//
// Every failure surfaced by a call is an *Error carrying a machine-readable
// Code. Transport failures never carry a response; HTTP_STATUS failures are
// raised only by backends that treat non-2xx completions as failures and keep
// the status code on the error.
//
//	resp, err := client.Call(ctx, url, opts)
//	if errors.IsTransport(err) {
//	    // connection refused, reset, DNS, TLS handshake ...
//	}
package errors
