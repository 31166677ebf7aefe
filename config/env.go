package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "kaschess"

// ApplyEnv overlays KASCHESS_* environment variables on cfg. Unset
// variables leave the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("error processing environment: %w", err)
	}
	return nil
}
