package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load resolves configuration from the environment, then overlays an
// optional YAML or JSON config file. file == "" means environment only.
//
// Unlike the embedded-library path, the loader is allowed to fail: the
// replay CLI has a terminal to report malformed config files on.
func Load(file string) (*Config, error) {
	cfg := FromEnv()
	if file == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}

	if v.IsSet("components") {
		cfg.Components = ParseComponents(v.GetString("components"))
	}
	if v.IsSet("papi_events") {
		cfg.PapiEvents = ParseComponents(v.GetString("papi_events"))
	}
	if v.IsSet("roofline") {
		cfg.Roofline = v.GetBool("roofline")
	}
	if v.IsSet("output_dir") {
		cfg.OutputDir = v.GetString("output_dir")
	}
	if v.IsSet("json_output") {
		cfg.JSONOutput = v.GetBool("json_output")
	}
	if v.IsSet("quiet") {
		cfg.Quiet = v.GetBool("quiet")
	}
	if v.IsSet("prom_addr") {
		cfg.PromAddr = v.GetString("prom_addr")
	}
	if v.IsSet("tracing") {
		if err := v.UnmarshalKey("tracing", &cfg.Tracing); err != nil {
			return nil, fmt.Errorf("decode tracing config: %w", err)
		}
		if cfg.Tracing.SampleRate == 0 {
			cfg.Tracing.SampleRate = 1.0
		}
	}

	return cfg, nil
}
