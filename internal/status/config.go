package status

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the status probe's environment.
type Config struct {
	TargetURL  string        `env:"STATUS_TARGET_URL" envDefault:"http://localhost:8080/"`
	ListenAddr string        `env:"STATUS_LISTEN_ADDR" envDefault:":8090"`
	Timeout    time.Duration `env:"STATUS_TIMEOUT" envDefault:"5s"`
	AppEnv     string        `env:"APP_ENV" envDefault:"production"`
	LogLevel   string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig parses the probe configuration from the environment.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse status config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the target URL and timeout.
func (c Config) Validate() error {
	parsed, err := url.Parse(strings.TrimSpace(c.TargetURL))
	if err != nil {
		return fmt.Errorf("invalid STATUS_TARGET_URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid STATUS_TARGET_URL: scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("invalid STATUS_TARGET_URL: host is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid STATUS_TIMEOUT: must be positive, got %s", c.Timeout)
	}
	return nil
}
