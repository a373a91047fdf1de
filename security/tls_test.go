package security

import (
	"crypto/tls"
	"testing"

	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/security/tlstest"
)

func TestTLSConfig_Build_Disabled(t *testing.T) {
	var nilCfg *TLSConfig
	for name, cfg := range map[string]*TLSConfig{"nil": nilCfg, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			got, err := cfg.Build()
			if err != nil || got != nil {
				t.Errorf("Build() = %v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestTLSConfig_Build_Options(t *testing.T) {
	cfg := &TLSConfig{SkipVerify: true, ServerName: "api.internal", MinVersion: "1.3"}
	got, err := cfg.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.InsecureSkipVerify || got.ServerName != "api.internal" || got.MinVersion != tls.VersionTLS13 {
		t.Errorf("tls.Config = %+v", got)
	}
}

func TestTLSConfig_Build_DefaultMinVersion(t *testing.T) {
	got, err := (&TLSConfig{ServerName: "x"}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x", got.MinVersion)
	}
}

func TestTLSConfig_Build_Files(t *testing.T) {
	certs := tlstest.Generate(t)
	got, err := (&TLSConfig{CAFile: certs.CAFile, CertFile: certs.CertFile, KeyFile: certs.KeyFile}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.RootCAs == nil {
		t.Error("RootCAs not loaded")
	}
	if len(got.Certificates) != 1 {
		t.Errorf("Certificates = %d", len(got.Certificates))
	}
}

func TestTLSConfig_Build_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  TLSConfig
		is   func(error) bool
	}{
		{"missing CA", TLSConfig{CAFile: "/nonexistent/ca.pem"}, errors.IsSetup},
		{"invalid CA", TLSConfig{CAFile: tlstest.WriteInvalidPEM(t)}, errors.IsSetup},
		{"missing cert", TLSConfig{CertFile: "/nonexistent/c.pem", KeyFile: "/nonexistent/k.pem"}, errors.IsSetup},
		{"cert without key", TLSConfig{CertFile: "c.pem"}, errors.IsValidation},
		{"bad version", TLSConfig{MinVersion: "2.0"}, errors.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			if err == nil || !tt.is(err) {
				t.Errorf("Build() error = %v", err)
			}
		})
	}
}

func TestTLSConfig_IsEnabled(t *testing.T) {
	var nilCfg *TLSConfig
	if nilCfg.IsEnabled() || (&TLSConfig{}).IsEnabled() {
		t.Error("empty config should be disabled")
	}
	if !(&TLSConfig{MinVersion: "1.2"}).IsEnabled() {
		t.Error("min version alone should enable TLS settings")
	}
}
