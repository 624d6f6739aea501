package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the sgemm configuration file
// ($XDG_CONFIG_HOME/sgemm/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	Threads     *int  `yaml:"threads"`
	DetectCache *bool `yaml:"detect_cache"`

	Cache struct {
		L1 *int `yaml:"l1"`
		L2 *int `yaml:"l2"`
		L3 *int `yaml:"l3"`
	} `yaml:"cache"`

	Blocks struct {
		KC *int `yaml:"kc"`
		MC *int `yaml:"mc"`
		NC *int `yaml:"nc"`
	} `yaml:"blocks"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Server struct {
		Address     string   `yaml:"address"`
		RateLimit   *float64 `yaml:"rate_limit"`
		RateBurst   *int     `yaml:"rate_burst"`
		MaxElements *int     `yaml:"max_elements"`
	} `yaml:"server"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sgemm", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyLogConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyEngineConfig applies config file defaults to engine options when
// the corresponding CLI flag was not explicitly set.
func applyEngineConfig(c *cli.Command, cfg Config, o *engineOptions) {
	setInt := func(flag string, v *int, dst *int) {
		if v != nil && !c.IsSet(flag) {
			*dst = *v
		}
	}
	setInt("threads", cfg.Threads, &o.threads)
	setInt("l1", cfg.Cache.L1, &o.l1)
	setInt("l2", cfg.Cache.L2, &o.l2)
	setInt("l3", cfg.Cache.L3, &o.l3)
	setInt("kc", cfg.Blocks.KC, &o.kc)
	setInt("mc", cfg.Blocks.MC, &o.mc)
	setInt("nc", cfg.Blocks.NC, &o.nc)
	if cfg.DetectCache != nil && !c.IsSet("detect-cache") {
		o.detectCache = *cfg.DetectCache
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, o *serveOptions) {
	if cfg.Server.Address != "" && !c.IsSet("addr") {
		o.addr = cfg.Server.Address
	}
	if cfg.Server.RateLimit != nil && !c.IsSet("rate") {
		o.rate = *cfg.Server.RateLimit
	}
	if cfg.Server.RateBurst != nil && !c.IsSet("burst") {
		o.burst = *cfg.Server.RateBurst
	}
	if cfg.Server.MaxElements != nil && !c.IsSet("max-elements") {
		o.maxElements = *cfg.Server.MaxElements
	}
}
