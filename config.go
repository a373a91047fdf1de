package apicall

import (
	"time"

	"github.com/kbukum/apicall/config"
	"github.com/kbukum/apicall/errors"
	"github.com/kbukum/apicall/httpclient"
	"github.com/kbukum/apicall/httpclient/nethttp"
	"github.com/kbukum/apicall/logger"
	"github.com/kbukum/apicall/observability"
	"github.com/kbukum/apicall/security"
	"github.com/kbukum/apicall/validation"
)

// Backend names accepted by Config.Backend.
const (
	BackendServer  = nethttp.Name
	BackendBrowser = "browser"
)

// Config configures a Client.
type Config struct {
	// Backend selects the transport: "server" or "browser". Empty picks the
	// platform default.
	Backend string `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=server browser"`

	// Headers are sent with every call unless overridden per call.
	Headers map[string]string `yaml:"headers" mapstructure:"headers" validate:"http_headers"`

	// FollowRedirects makes the transport follow 3xx responses.
	FollowRedirects bool `yaml:"follow_redirects" mapstructure:"follow_redirects"`

	// Timeout bounds a whole exchange. Zero means no limit.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// AcceptAnyStatus makes the browser backend report non-2xx statuses as
	// success, like the server backend.
	AcceptAnyStatus bool `yaml:"accept_any_status" mapstructure:"accept_any_status"`

	// Auth adds credentials to every call.
	Auth *httpclient.AuthConfig `yaml:"auth" mapstructure:"auth"`

	TLS           *security.TLSConfig  `yaml:"tls" mapstructure:"tls"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Headers == nil {
		c.Headers = map[string]string{}
	}
	c.Logging.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.InvalidInput("logging", err.Error())
	}
	if err := c.Observability.Validate(); err != nil {
		return errors.InvalidInput("observability", err.Error())
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) serverConfig() nethttp.Config {
	return nethttp.Config{
		FollowRedirects: c.FollowRedirects,
		Timeout:         c.Timeout,
		TLS:             c.TLS,
	}
}

// LoadConfig reads the "apicall" configuration from config files, .env and
// APICALL_* environment variables, then applies defaults and validates it.
//
// Header names read from files come back lower-cased.
func LoadConfig(opts ...config.LoaderOption) (Config, error) {
	var cfg Config
	if err := config.Load("apicall", &cfg, opts...); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
