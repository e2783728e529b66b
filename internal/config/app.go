package config

import "time"

// AppConfig is the ambient application configuration: logging, metrics, and
// rule-file watch settings. It is independent of the Rules document and is
// loaded from YAML with environment overrides, mirroring the teacher's
// layered Config/AppConfig/LoggingConfig/MetricsConfig split.
type AppConfig struct {
	App     AppMeta       `yaml:"app" json:"app"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
}

// AppMeta carries application identity metadata.
type AppMeta struct {
	Name        string `yaml:"name" json:"name"`
	Environment string `yaml:"environment" json:"environment"`
}

// LoggingConfig mirrors pkg/logging's environment-variable knobs so they can
// also be set from the AppConfig file.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig controls the Prometheus /metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Address   string `yaml:"address" json:"address"`
	Port      int    `yaml:"port" json:"port"`
	Path      string `yaml:"path" json:"path"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// WatchConfig controls the Rules-file hot-reload watcher.
type WatchConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	DebounceTime time.Duration `yaml:"debounce_time" json:"debounce_time"`
}

// GetDefaultAppConfig returns the default ambient configuration.
func GetDefaultAppConfig() *AppConfig {
	return &AppConfig{
		App: AppMeta{
			Name:        "katapultqc",
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Address:   "localhost",
			Port:      9090,
			Path:      "/metrics",
			Namespace: "katapultqc",
		},
		Watch: WatchConfig{
			Enabled:      false,
			DebounceTime: 500 * time.Millisecond,
		},
	}
}
