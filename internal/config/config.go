// Package config loads bot settings from defaults, an optional yaml file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"commoditybot/internal/businessanalytiq"
	"commoditybot/internal/cnyes"
	"commoditybot/internal/ppi100"
	"commoditybot/internal/ycharts"
)

// FileEnv names an explicit config file, overriding the search path.
const FileEnv = "COMMODITYBOT_CONFIG"

// SourceConfig holds settings common to every source.
type SourceConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// InstrumentConfig is one futures keyword set.
type InstrumentConfig struct {
	Name     string   `mapstructure:"name"`
	Keywords []string `mapstructure:"keywords"`
}

type CoconutConfig struct {
	SourceConfig `mapstructure:",squash"`
	Marker       string `mapstructure:"marker"`
}

type CoalIndexConfig struct {
	SourceConfig `mapstructure:",squash"`
	Name         string `mapstructure:"name"`
}

type CoalFuturesConfig struct {
	SourceConfig `mapstructure:",squash"`
	Instruments  []InstrumentConfig `mapstructure:"instruments"`
}

type BromineConfig struct {
	SourceConfig  `mapstructure:",squash"`
	Name          string `mapstructure:"name"`
	ComputeChange bool   `mapstructure:"compute_change"`
}

type SourcesConfig struct {
	// Timeout applies to sources that do not set their own.
	Timeout     time.Duration     `mapstructure:"timeout"`
	Coconut     CoconutConfig     `mapstructure:"coconut"`
	CoalIndex   CoalIndexConfig   `mapstructure:"coal_index"`
	CoalFutures CoalFuturesConfig `mapstructure:"coal_futures"`
	Bromine     BromineConfig     `mapstructure:"bromine"`
}

type BrowserConfig struct {
	// Mode is "chrome" (headless Chromium) or "static" (plain HTTP).
	Mode     string `mapstructure:"mode"`
	ExecPath string `mapstructure:"exec_path"`
}

type HTTPConfig struct {
	UserAgent         string  `mapstructure:"user_agent"`
	RetryCount        int     `mapstructure:"retry_count"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

type SubscribersConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type PushConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Token             string        `mapstructure:"token"`
	Concurrency       int           `mapstructure:"concurrency"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	RetryCount        int           `mapstructure:"retry_count"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type RenderConfig struct {
	Format   string `mapstructure:"format"`
	Timezone string `mapstructure:"timezone"`
}

type CacheConfig struct {
	// MaxAge is how long a report is served before "report" rebuilds it.
	MaxAge time.Duration `mapstructure:"max_age"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config holds all configuration for the commodity report bot.
type Config struct {
	Sources     SourcesConfig     `mapstructure:"sources"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Subscribers SubscribersConfig `mapstructure:"subscribers"`
	Push        PushConfig        `mapstructure:"push"`
	Render      RenderConfig      `mapstructure:"render"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Log         LogConfig         `mapstructure:"log"`

	location *time.Location
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.timeout", "30s")
	v.SetDefault("sources.coconut.url", businessanalytiq.DefaultURL)
	v.SetDefault("sources.coconut.timeout", "15s")
	v.SetDefault("sources.coconut.marker", businessanalytiq.DefaultMarker)
	v.SetDefault("sources.coal_index.url", ycharts.DefaultURL)
	v.SetDefault("sources.coal_index.timeout", "0s")
	v.SetDefault("sources.coal_index.name", ycharts.DefaultName)
	v.SetDefault("sources.coal_futures.url", cnyes.DefaultURL)
	v.SetDefault("sources.coal_futures.timeout", "0s")
	v.SetDefault("sources.coal_futures.instruments", defaultInstruments())
	v.SetDefault("sources.bromine.url", ppi100.DefaultURL)
	v.SetDefault("sources.bromine.timeout", "0s")
	v.SetDefault("sources.bromine.name", ppi100.DefaultName)
	v.SetDefault("sources.bromine.compute_change", false)

	v.SetDefault("browser.mode", "chrome")
	v.SetDefault("browser.exec_path", "")

	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.retry_count", 1)
	v.SetDefault("http.requests_per_second", 1.0)

	v.SetDefault("subscribers.backend", "file")
	v.SetDefault("subscribers.path", "data/subscribers.txt")

	v.SetDefault("push.base_url", "https://api.line.me")
	v.SetDefault("push.token", "")
	v.SetDefault("push.concurrency", 4)
	v.SetDefault("push.requests_per_second", 10.0)
	v.SetDefault("push.retry_count", 2)
	v.SetDefault("push.timeout", "15s")

	v.SetDefault("render.format", "text")
	v.SetDefault("render.timezone", "Asia/Taipei")

	v.SetDefault("cache.max_age", "10m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}

func defaultInstruments() []map[string]any {
	out := make([]map[string]any, 0, len(cnyes.DefaultInstruments))
	for _, in := range cnyes.DefaultInstruments {
		out = append(out, map[string]any{
			"name":     in.Name,
			"keywords": append([]string(nil), in.Keywords...),
		})
	}
	return out
}

// Load reads configuration from defaults, an optional config file and the
// environment. Environment variables take precedence over config file values.
//
// Nested keys map to upper-case variables with "." replaced by "_", e.g.
// SOURCES_BROMINE_URL or LOG_LEVEL. The push token is also read from
// PUSH_CHANNEL_TOKEN or LINE_CHANNEL_ACCESS_TOKEN.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(FileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.commoditybot")

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.BindEnv("push.token", "PUSH_TOKEN", "PUSH_CHANNEL_TOKEN", "LINE_CHANNEL_ACCESS_TOKEN")

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for name, url := range map[string]string{
		"sources.coconut.url":      c.Sources.Coconut.URL,
		"sources.coal_index.url":   c.Sources.CoalIndex.URL,
		"sources.coal_futures.url": c.Sources.CoalFutures.URL,
		"sources.bromine.url":      c.Sources.Bromine.URL,
	} {
		if url == "" {
			add("%s is empty", name)
		}
	}
	if len(c.Sources.CoalFutures.Instruments) == 0 {
		add("sources.coal_futures.instruments is empty")
	}
	for i, in := range c.Sources.CoalFutures.Instruments {
		if len(in.Keywords) == 0 {
			add("sources.coal_futures.instruments[%d] has no keywords", i)
		}
	}

	switch c.Browser.Mode {
	case "chrome", "static":
	default:
		add("browser.mode %q must be chrome or static", c.Browser.Mode)
	}
	switch c.Subscribers.Backend {
	case "file", "sqlite":
	default:
		add("subscribers.backend %q must be file or sqlite", c.Subscribers.Backend)
	}
	if c.Subscribers.Path == "" {
		add("subscribers.path is empty")
	}
	switch c.Render.Format {
	case "text", "card":
	default:
		add("render.format %q must be text or card", c.Render.Format)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		add("log.format %q must be text or json", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		add("%v", err)
	}

	loc, err := time.LoadLocation(c.Render.Timezone)
	if err != nil {
		add("render.timezone: %v", err)
	}
	c.location = loc

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RequirePush checks the settings needed to deliver messages.
func (c *Config) RequirePush() error {
	var missing []string
	if c.Push.Token == "" {
		missing = append(missing, "PUSH_CHANNEL_TOKEN")
	}
	if c.Push.BaseURL == "" {
		missing = append(missing, "PUSH_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location is the zone report timestamps are shown in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return l, nil
}
