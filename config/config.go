package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
)

const DefaultLogLevel = slog.LevelInfo

// Operational defaults, matching how the controller has always been tuned:
// check every 5 minutes, mist for 5 seconds (the outlet switching delay eats
// about 2 of them), then hold off for 10 minutes.
const (
	DefaultPollIntervalSeconds    = 300
	DefaultTriggerOffset          = 0
	DefaultMistingRuntimeSeconds  = 5
	DefaultMistingTimeoutSeconds  = 600
	DefaultProviderTimeoutSeconds = 15
)

type Config struct {
	SensorName             string   `json:"sensor_name"`
	OutletName             string   `json:"outlet_name"`
	PollIntervalSeconds    int      `json:"poll_interval_seconds"`
	TriggerOffset          float64  `json:"trigger_offset"`
	MistingRuntimeSeconds  float64  `json:"misting_runtime_seconds"`
	MistingTimeoutSeconds  float64  `json:"misting_timeout_seconds"`
	ProviderTimeoutSeconds int      `json:"provider_timeout_seconds"`
	OriginPatterns         []string `json:"origin_patterns"`
}

// DefaultConfig returns the built-in settings used when no config file is
// present.
func DefaultConfig() Config {
	return Config{
		SensorName:             "Delilah Vivarium - Hot Side",
		OutletName:             "Vivarium Mister",
		PollIntervalSeconds:    DefaultPollIntervalSeconds,
		TriggerOffset:          DefaultTriggerOffset,
		MistingRuntimeSeconds:  DefaultMistingRuntimeSeconds,
		MistingTimeoutSeconds:  DefaultMistingTimeoutSeconds,
		ProviderTimeoutSeconds: DefaultProviderTimeoutSeconds,
	}
}

func LoadConfigSettings(filename string) (Config, error) {
	config := DefaultConfig()

	file, err := os.Open(filename)
	if err != nil {
		return config, err
	}

	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return config, err
	}

	err = json.Unmarshal(bytes, &config)
	if err != nil {
		return config, err
	}

	return config, nil
}
