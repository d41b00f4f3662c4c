package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Environment variables honored by the connector. The KOKKOS_* and
// PAPI_EVENTS names are the legacy spellings the Kokkos tooling ecosystem
// already sets; the KOKKOPROF_* names control this connector's own output.
const (
	EnvComponents = "KOKKOS_TIMEMORY_COMPONENTS"
	EnvRoofline   = "KOKKOS_ROOFLINE"
	EnvPapiEvents = "PAPI_EVENTS"

	EnvOutputDir     = "KOKKOPROF_OUTPUT_DIR"
	EnvJSONOutput    = "KOKKOPROF_JSON"
	EnvQuiet         = "KOKKOPROF_QUIET"
	EnvPromAddr      = "KOKKOPROF_PROM_ADDR"
	EnvTraceEndpoint = "KOKKOPROF_TRACE_ENDPOINT"
	EnvTraceProtocol = "KOKKOPROF_TRACE_PROTOCOL"
	EnvTraceInsecure = "KOKKOPROF_TRACE_INSECURE"
)

// DefaultComponents is the metric set used when the environment selects
// nothing and the roofline flag is unset.
const DefaultComponents = "wall_clock;peak_rss"

// Config is the resolved connector configuration, read once at library init
// and treated as read-only afterwards.
type Config struct {
	Components []string      `mapstructure:"components"`
	PapiEvents []string      `mapstructure:"papi_events"`
	Roofline   bool          `mapstructure:"roofline"`
	OutputDir  string        `mapstructure:"output_dir"`
	JSONOutput bool          `mapstructure:"json_output"`
	Quiet      bool          `mapstructure:"quiet"`
	PromAddr   string        `mapstructure:"prom_addr"`
	Tracing    TracingConfig `mapstructure:"tracing"`
}

// TracingConfig controls optional OpenTelemetry span export.
type TracingConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether span export was requested.
func (c TracingConfig) Enabled() bool {
	return c.Endpoint != ""
}

// FromEnv resolves configuration from the process environment. Malformed
// values never fail: unparseable entries degrade to the documented
// defaults, matching the no-failure-channel callback contract.
func FromEnv() *Config {
	v := viper.New()
	bindEnv(v)

	roofline := v.GetBool("roofline")

	// Roofline runs want nothing enabled unless components are chosen
	// explicitly, so the second measurement pass sees identical costs.
	components := v.GetString("components")
	if strings.TrimSpace(components) == "" {
		if roofline {
			components = ""
		} else {
			components = DefaultComponents
		}
	}

	return &Config{
		Components: ParseComponents(components),
		PapiEvents: ParseComponents(v.GetString("papi_events")),
		Roofline:   roofline,
		OutputDir:  v.GetString("output_dir"),
		JSONOutput: v.GetBool("json_output"),
		Quiet:      v.GetBool("quiet"),
		PromAddr:   v.GetString("prom_addr"),
		Tracing: TracingConfig{
			Endpoint:   v.GetString("trace_endpoint"),
			Protocol:   v.GetString("trace_protocol"),
			Insecure:   v.GetBool("trace_insecure"),
			SampleRate: 1.0,
		},
	}
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("components", EnvComponents)
	_ = v.BindEnv("roofline", EnvRoofline)
	_ = v.BindEnv("papi_events", EnvPapiEvents)
	_ = v.BindEnv("output_dir", EnvOutputDir)
	_ = v.BindEnv("json_output", EnvJSONOutput)
	_ = v.BindEnv("quiet", EnvQuiet)
	_ = v.BindEnv("prom_addr", EnvPromAddr)
	_ = v.BindEnv("trace_endpoint", EnvTraceEndpoint)
	_ = v.BindEnv("trace_protocol", EnvTraceProtocol)
	_ = v.BindEnv("trace_insecure", EnvTraceInsecure)
}
