package main

import (
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/termux-ai/termai/internal/config"
)

const envPrefix = "TERMAI_"

// applyEnv overrides cfg with TERMAI_ variables. A nil environ reads the
// process environment. The result is never written back to the settings file.
func applyEnv(cfg config.Config, environ map[string]string) (config.Config, error) {
	opts := env.Options{Prefix: envPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, termaiError{
			err:    fmt.Errorf("parse environment: %w", err),
			reason: "Could not apply the TERMAI_ environment variables.",
		}
	}
	return cfg, nil
}
