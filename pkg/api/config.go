package api

import "time"

// APIConfig configures the HTTP server that fronts the ingestion service.
//
// Unlike optional subsystems, the API is always on: it is the only way
// packets enter the system.
type APIConfig struct {
	// Port serves all endpoints (REST, WebSocket, metrics).
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout bounds reading one request including its body.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds writing one response. WebSocket connections are
	// exempt: the hub hijacks them before the deadline applies.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout bounds how long a keep-alive connection may sit between
	// requests.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// applyDefaults normalizes unset or nonsensical values to the defaults
// documented on the fields.
func (c *APIConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = time.Minute
	}
}
