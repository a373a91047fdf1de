//go:build js && wasm

package apicall

import "github.com/kbukum/apicall/httpclient/xhr"

const platformBackend = BackendBrowser

// browserFactory returns the browser's own XMLHttpRequest. Redirects, TLS and
// timeouts are then up to the browser.
func browserFactory(*Config) (xhr.Factory, error) {
	return xhr.NewNative(), nil
}
