//go:build !(js && wasm)

package apicall

import (
	"github.com/kbukum/apicall/httpclient/nethttp"
	"github.com/kbukum/apicall/httpclient/xhr"
)

const platformBackend = BackendServer

// browserFactory emulates XMLHttpRequest over net/http with the client
// settings of cfg.
func browserFactory(cfg *Config) (xhr.Factory, error) {
	client, err := nethttp.NewHTTPClient(cfg.serverConfig())
	if err != nil {
		return nil, err
	}
	return xhr.NewEmulated(client), nil
}
