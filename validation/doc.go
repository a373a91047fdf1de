// Package validation checks call options before they reach a backend.
//
// Struct tag validation runs through go-playground/validator with two extra
// tags, http_headers and http_method, backed by the header grammar in
// golang.org/x/net/http/httpguts. Programmatic checks collect field errors
// and fold them into a single apicall error.
//
//	v := validation.New()
//	v.Required("url", target).HeaderName("headers", name)
//	err := v.Validate()
package validation
