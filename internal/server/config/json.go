package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/hevault-io/hevault/internal/flagx"
)

// JsonConfig is the DTO for the optional JSON config file. Durations are
// given in minutes; zero-valued fields leave the current Config value alone.
type JsonConfig struct {
	EndpointAddr                   string `json:"endpoint_addr"`
	DatabaseDSN                    string `json:"database_dsn"`
	SecretKey                      string `json:"secret_key"`
	AccessTokenValidityDurationMin int    `json:"access_token_validity_minutes"`
	UploadRoot                     string `json:"upload_root"`
	EngineBin                      string `json:"engine_bin"`
	EngineBinFallback              string `json:"engine_bin_fallback"`
	EngineOutputLimit              int    `json:"engine_output_limit"`
}

// parseJson loads configuration values from the JSON file given via -c/-config
// into the provided Config. No flag means no file is loaded; an unreadable or
// invalid file panics, since running with half-applied config is worse than
// not starting.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDurationMin != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDurationMin) * time.Minute
	}
	if c.UploadRoot != "" {
		config.UploadRoot = c.UploadRoot
	}
	if c.EngineBin != "" {
		config.EngineBin = c.EngineBin
	}
	if c.EngineBinFallback != "" {
		config.EngineBinFallback = c.EngineBinFallback
	}
	if c.EngineOutputLimit != 0 {
		config.EngineOutputLimit = c.EngineOutputLimit
	}
}
