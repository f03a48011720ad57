package config

import "fmt"

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", c.Watch.Debounce)
	}
	if c.Watch.RetryInitial <= 0 || c.Watch.RetryMax < c.Watch.RetryInitial {
		return fmt.Errorf("watch retry bounds invalid: initial=%s max=%s",
			c.Watch.RetryInitial, c.Watch.RetryMax)
	}
	if c.Reload.KeepAlive <= 0 {
		return fmt.Errorf("reload.keep_alive must be positive, got %s", c.Reload.KeepAlive)
	}

	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("server.environment %q is not one of development, staging, production",
			c.Server.Environment)
	}

	return nil
}
