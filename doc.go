// Package apicall issues HTTP requests through one call signature on every
// platform.
//
// A call takes a URL and optional Options and returns a canonical Response
// carrying ok, statusCode, statusMessage, the response headers and the parsed
// JSON body when the response declares one:
//
//	resp, err := apicall.Call(ctx, "https://api.example.com/users", &apicall.Options{
//	    Method:   httpclient.MethodPost,
//	    JSONBody: map[string]any{"name": "ada"},
//	})
//
// Response header names pass through as the transport reports them: the
// server backend keeps net/http's canonical form, an XMLHttpRequest reports
// them lower-cased.
//
// The transport is a Backend. The server backend (httpclient/nethttp) is the
// default on native builds; the browser backend (httpclient/xhr) is the
// default under js/wasm and can be selected anywhere with Config.Backend.
//
// The two backends differ on purpose in how they report non-2xx statuses and
// progress; see httpclient.Backend.
package apicall
