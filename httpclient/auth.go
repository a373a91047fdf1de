package httpclient

import (
	"encoding/base64"
	"strings"

	"github.com/kbukum/apicall/validation"
)

// Auth types accepted by AuthConfig.Type.
const (
	AuthNone   = ""
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthAPIKey = "api_key"
)

// API key placements accepted by AuthConfig.In.
const (
	InHeader = "header"
	InQuery  = "query"
)

// DefaultAPIKeyName is the header or parameter name used when Name is empty.
const DefaultAPIKeyName = "X-API-Key"

// AuthConfig configures request authentication. It is applied to the
// defaults template, so per-call options can still override it.
type AuthConfig struct {
	// Type is the authentication method: bearer, basic or api_key.
	Type string `yaml:"type" mapstructure:"type" validate:"omitempty,oneof=bearer basic api_key"`
	// Token is the bearer token.
	Token string `yaml:"token" mapstructure:"token" validate:"required_if=Type bearer"`
	// Username and Password are the basic auth credentials.
	Username string `yaml:"username" mapstructure:"username" validate:"required_if=Type basic"`
	Password string `yaml:"password" mapstructure:"password"`
	// Key is the API key value.
	Key string `yaml:"key" mapstructure:"key" validate:"required_if=Type api_key"`
	// In places the API key: "header" (default) or "query".
	In string `yaml:"in" mapstructure:"in" validate:"omitempty,oneof=header query"`
	// Name is the API key header or parameter name. Defaults to X-API-Key.
	Name string `yaml:"name" mapstructure:"name"`
}

// BearerAuth creates a bearer token auth config.
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BasicAuth creates a basic auth config.
func BasicAuth(username, password string) *AuthConfig {
	return &AuthConfig{Type: AuthBasic, Username: username, Password: password}
}

// APIKeyAuth creates an API key auth config sent in the X-API-Key header.
func APIKeyAuth(key string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: InHeader, Name: DefaultAPIKeyName}
}

// APIKeyAuthHeader creates an API key auth config with a custom header name.
func APIKeyAuthHeader(key, headerName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: InHeader, Name: headerName}
}

// APIKeyAuthQuery creates an API key auth config sent as a query parameter.
func APIKeyAuthQuery(key, paramName string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Key: key, In: InQuery, Name: paramName}
}

// Validate checks the auth type and its required credentials.
func (a *AuthConfig) Validate() error {
	if a == nil {
		return nil
	}
	return validation.Validate(a)
}

// ApplyTo adds the credentials to o. Header credentials replace any header
// of the same name, regardless of case.
func (a *AuthConfig) ApplyTo(o *Options) {
	if a == nil {
		return
	}
	switch a.Type {
	case AuthBearer:
		setHeader(o, "Authorization", "Bearer "+a.Token)
	case AuthBasic:
		cred := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
		setHeader(o, "Authorization", "Basic "+cred)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = DefaultAPIKeyName
		}
		if a.In == InQuery {
			if o.URLSearchParams == nil {
				o.URLSearchParams = map[string]any{}
			}
			o.URLSearchParams[name] = a.Key
			return
		}
		setHeader(o, name, a.Key)
	}
}

func setHeader(o *Options, name, value string) {
	if o.Headers == nil {
		o.Headers = map[string]string{}
	}
	for k := range o.Headers {
		if strings.EqualFold(k, name) {
			delete(o.Headers, k)
		}
	}
	o.Headers[name] = value
}
