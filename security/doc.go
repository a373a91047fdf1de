// Package security holds the TLS settings of the server backend.
//
//	cfg := security.TLSConfig{
//	    CAFile:     "/etc/apicall/ca.pem",
//	    MinVersion: "1.3",
//	}
//	tlsConfig, err := cfg.Build()
package security
