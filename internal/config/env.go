package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds overrides read from KERO_* environment variables.
// Empty values mean unset.
type EnvConfig struct {
	ConfigPath string   `env:"KERO_CONFIG"`
	DBPath     string   `env:"KERO_DB"`
	Table      string   `env:"KERO_TABLE"`
	LogLevel   string   `env:"KERO_LOG_LEVEL"`
	LogFile    string   `env:"KERO_LOG_FILE"`
	Terminator string   `env:"KERO_TERMINATOR"`
	Devices    []string `env:"KERO_DEVICES" envSeparator:","`
}

// LoadEnv parses the KERO_* environment variables.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Apply overlays non-empty environment values onto the file config, so the
// environment wins over the file.
func (e EnvConfig) Apply(cfg FileConfig) FileConfig {
	setString(&cfg.Store.Path, e.DBPath)
	setString(&cfg.Store.Table, e.Table)
	setString(&cfg.Log.Level, e.LogLevel)
	setString(&cfg.Log.File, e.LogFile)
	setString(&cfg.Recorder.Terminator, e.Terminator)
	if len(e.Devices) > 0 {
		cfg.Recorder.Devices = append([]string(nil), e.Devices...)
	}
	return cfg
}

func setString(target **string, value string) {
	if value == "" {
		return
	}
	v := value
	*target = &v
}
