package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "BATTLESIM_"

type overrides struct {
	Endpoints []string      `env:"ORACLE_ENDPOINTS" envSeparator:","`
	Model     string        `env:"ORACLE_MODEL"`
	APIKey    string        `env:"ORACLE_API_KEY"`
	Timeout   time.Duration `env:"ORACLE_TIMEOUT"`
	Offline   bool          `env:"ORACLE_OFFLINE"`
	LogLevel  string        `env:"LOG_LEVEL"`
}

// ApplyEnv lets BATTLESIM_* variables override the document.
func (s *Scenario) ApplyEnv() error {
	var o overrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if len(o.Endpoints) > 0 {
		s.Oracle.Endpoints = o.Endpoints
	}
	if o.Model != "" {
		s.Oracle.Model = o.Model
	}
	if o.APIKey != "" {
		s.Oracle.APIKey = o.APIKey
	}
	if o.Timeout > 0 {
		s.Oracle.Timeout = o.Timeout
	}
	if o.Offline {
		s.Oracle.Offline = true
	}
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
	return nil
}
