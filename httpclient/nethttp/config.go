package nethttp

import (
	"fmt"
	"time"

	"github.com/kbukum/apicall/security"
)

const defaultChunkSize = 32 * 1024

// Config configures the server backend.
type Config struct {
	// FollowRedirects makes the client follow 3xx responses. Off by default:
	// the redirect response itself is returned.
	FollowRedirects bool `yaml:"follow_redirects" mapstructure:"follow_redirects"`

	// Timeout bounds a whole exchange. Zero means no limit.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TLS configures the transport's TLS settings.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// ChunkSize is the read buffer used for progress reporting. Defaults to 32KiB.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("nethttp: timeout must not be negative")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}
