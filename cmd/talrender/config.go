package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the resolved CLI configuration. Values come from flags, then
// TALRENDER_* environment variables, then the config file.
type Config struct {
	Dir       string   `mapstructure:"dir"`
	Data      string   `mapstructure:"data"`
	Set       []string `mapstructure:"set"`
	Out       string   `mapstructure:"out"`
	Lenient   bool     `mapstructure:"lenient"`
	Strict    bool     `mapstructure:"strict"`
	HTML      bool     `mapstructure:"html"`
	Indent    bool     `mapstructure:"indent"`
	Watch     bool     `mapstructure:"watch"`
	LogLevel  string   `mapstructure:"log-level"`
	LogFormat string   `mapstructure:"log-format"`
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Strict && cfg.HTML {
		return nil, errors.New("--strict and --html are mutually exclusive")
	}
	return &cfg, nil
}

func newLogger(cfg *Config, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", cfg.LogLevel)
	}
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.LogFormat)
	}
}
