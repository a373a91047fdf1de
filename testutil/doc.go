// Package testutil provides test fixtures for apicall backends.
//
// EchoServer is a gin engine behind an httptest.Server that reflects each
// request back as JSON and records it, plus a handful of routes that produce
// the awkward responses backends must handle: arbitrary statuses, empty and
// malformed JSON, non-UTF-8 text, large bodies, redirects and slow replies.
//
//	srv := testutil.NewEchoServer()
//	testutil.T(t).Setup(srv)
//
//	resp, _ := http.Get(srv.URL("/status/404"))
package testutil
