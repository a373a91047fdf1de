// Package httpclient holds the backend-neutral core of apicall: call
// options, the prepared request handed to a backend, the uniform response
// envelope, and the pure helpers every backend shares.
//
// A call flows through three steps:
//
//	opts := callOpts.WithDefaults(httpclient.DefaultOptions())
//	req, err := httpclient.Prepare(url, opts)   // query merge, body selection
//	resp, err := backend.Do(ctx, req)            // nethttp or xhr
//
// # Query Merging
//
//	httpclient.MergeQuery("http://h/p?a=1", map[string]any{"a": 2, "b": "x"})
//	// http://h/p?a=2&b=x
//
// # Header Normalization
//
// NormalizeHeaders flattens multi-valued header maps, FromHTTPHeader does the
// same for net/http headers and ParseHeaderText reads the raw header block an
// XMLHttpRequest exposes.
//
// # Response Access
//
//	resp.JSON                 // decoded body when the response declared JSON
//	resp.Get("items.0.id")    // gjson path lookup on the raw body
//	resp.Decode(&typed)       // unmarshal into a typed value
package httpclient
