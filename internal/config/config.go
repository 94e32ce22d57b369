// Package config provides layered configuration (flags, environment,
// config file) for the proxy server: listen address, base URL, cache
// TTLs, and the optional Redis and Mongo backends. Loading is built on
// spf13/viper, paired with spf13/cobra flags the way the pack's
// rohankatakam-coderisk repo layers the two.
package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the server and warmer need at startup.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// BaseURL is the upstream host repodata is fetched from, e.g.
	// "https://conda.anaconda.org".
	BaseURL string `mapstructure:"base_url"`

	RawTTL        time.Duration `mapstructure:"raw_ttl"`
	DerivedTTL    time.Duration `mapstructure:"derived_ttl"`
	SerializedTTL time.Duration `mapstructure:"serialized_ttl"`

	RedisAddr string `mapstructure:"redis_addr"`
	MongoURI  string `mapstructure:"mongo_uri"`

	WarmInterval time.Duration `mapstructure:"warm_interval"`
	WarmTargets  string        `mapstructure:"warm_targets"` // path to a TOML targets file

	BlacklistDir string `mapstructure:"blacklist_dir"`

	DebugViz bool `mapstructure:"debug_viz"`
}

// Default returns the out-of-the-box configuration.
func Default() *Config {
	return &Config{
		Host:          "0.0.0.0",
		Port:          8080,
		BaseURL:       "https://conda.anaconda.org",
		RawTTL:        10 * time.Minute,
		DerivedTTL:    5 * time.Minute,
		SerializedTTL: 5 * time.Minute,
		WarmInterval:  30 * time.Second,
		BlacklistDir:  "blacklists",
	}
}

// Load builds a Config from (in ascending precedence) built-in defaults,
// an optional config file, and environment variables prefixed
// METACHANNEL_ (e.g. METACHANNEL_REDIS_ADDR).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("raw_ttl", cfg.RawTTL)
	v.SetDefault("derived_ttl", cfg.DerivedTTL)
	v.SetDefault("serialized_ttl", cfg.SerializedTTL)
	v.SetDefault("warm_interval", cfg.WarmInterval)
	v.SetDefault("blacklist_dir", cfg.BlacklistDir)

	v.SetEnvPrefix("METACHANNEL")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("metachannel")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if addr := os.Getenv("METACHANNEL_REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	if uri := os.Getenv("METACHANNEL_MONGO_URI"); uri != "" {
		cfg.MongoURI = uri
	}
}
