package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/soocke/pixel-capture-go/domain/capture"
	"github.com/soocke/pixel-capture-go/domain/source"
)

// EnvPrefix namespaces environment overrides, e.g. PIXELCAP_INTERVAL_MS.
const EnvPrefix = "PIXELCAP"

// Config holds runtime configuration for capture sessions and the tools
// built on them. Fields are read from a YAML or JSON file and overridden by
// PIXELCAP_* environment variables and command-line flags.
type Config struct {
	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Capture source
	Backend          string `mapstructure:"backend"`
	Monitor          int    `mapstructure:"monitor"`
	WindowTitle      string `mapstructure:"window_title"`
	IntervalMs       int    `mapstructure:"interval_ms"`
	AcquireTimeoutMs int    `mapstructure:"acquire_timeout_ms"`
	BackoffMinMs     int    `mapstructure:"backoff_min_ms"`
	BackoffMaxMs     int    `mapstructure:"backoff_max_ms"`

	// Capture region, output-local pixels
	RegionEnabled bool `mapstructure:"region_enabled"`
	RegionX       int  `mapstructure:"region_x"`
	RegionY       int  `mapstructure:"region_y"`
	RegionW       int  `mapstructure:"region_w"`
	RegionH       int  `mapstructure:"region_h"`

	// Synthetic backend geometry
	SyntheticWidth   int `mapstructure:"synthetic_width"`
	SyntheticHeight  int `mapstructure:"synthetic_height"`
	SyntheticPadding int `mapstructure:"synthetic_padding"`

	// Preview window
	PreviewMaxWidth  int  `mapstructure:"preview_max_width"`
	PreviewMaxHeight int  `mapstructure:"preview_max_height"`
	PreviewRefreshMs int  `mapstructure:"preview_refresh_ms"`
	PreviewDark      bool `mapstructure:"preview_dark"`

	DebugIntervalSec int `mapstructure:"debug_interval_sec"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	syn := source.DefaultSyntheticSpec()
	return &Config{
		Debug:            false,
		LogLevel:         "info",
		LogFormat:        "json",
		Backend:          source.BackendAuto,
		Monitor:          0,
		IntervalMs:       capture.DefaultIntervalMs,
		AcquireTimeoutMs: 0,
		BackoffMinMs:     50,
		BackoffMaxMs:     2000,
		SyntheticWidth:   syn.Width,
		SyntheticHeight:  syn.Height,
		SyntheticPadding: syn.Padding,
		PreviewMaxWidth:  960,
		PreviewMaxHeight: 540,
		PreviewRefreshMs: 33,
		DebugIntervalSec: 5,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}
	if c.LogFormat != "text" {
		c.LogFormat = "json"
	}
	if c.Backend == "" {
		c.Backend = source.BackendAuto
	}
	if c.Monitor < 0 {
		c.Monitor = 0
	}
	if c.IntervalMs < 0 {
		c.IntervalMs = 0
	}
	if c.IntervalMs > 10000 {
		c.IntervalMs = 10000
	}
	if c.AcquireTimeoutMs < 0 || c.AcquireTimeoutMs > 1000 {
		c.AcquireTimeoutMs = 0
	}
	if c.BackoffMinMs <= 0 {
		c.BackoffMinMs = 50
	}
	if c.BackoffMaxMs < c.BackoffMinMs {
		c.BackoffMaxMs = max(2000, c.BackoffMinMs)
	}
	if c.RegionW < 0 || c.RegionH < 0 {
		c.RegionW, c.RegionH = 0, 0
		c.RegionEnabled = false
	}
	if c.SyntheticWidth <= 0 || c.SyntheticHeight <= 0 {
		def := source.DefaultSyntheticSpec()
		c.SyntheticWidth, c.SyntheticHeight = def.Width, def.Height
	}
	if c.SyntheticPadding < 0 {
		c.SyntheticPadding = 0
	}
	if c.PreviewMaxWidth <= 0 {
		c.PreviewMaxWidth = 960
	}
	if c.PreviewMaxHeight <= 0 {
		c.PreviewMaxHeight = 540
	}
	if c.PreviewRefreshMs <= 0 {
		c.PreviewRefreshMs = 33
	}
	if c.DebugIntervalSec <= 0 {
		c.DebugIntervalSec = 5
	}
	return nil
}

// Capture returns the session configuration described by c.
func (c *Config) Capture() capture.Config {
	return capture.Config{
		CaptureIntervalMs: int32(c.IntervalMs),
		Region: capture.Region{
			X:      int32(c.RegionX),
			Y:      int32(c.RegionY),
			Width:  int32(c.RegionW),
			Height: int32(c.RegionH),
		},
		EnableRegion: c.RegionEnabled,
	}
}

// RegistryOptions returns the registry tuning described by c.
func (c *Config) RegistryOptions() []capture.Option {
	return []capture.Option{
		capture.WithAcquireTimeout(time.Duration(c.AcquireTimeoutMs) * time.Millisecond),
		capture.WithBackoff(time.Duration(c.BackoffMinMs)*time.Millisecond, time.Duration(c.BackoffMaxMs)*time.Millisecond),
	}
}

// Synthetic returns the synthetic backend geometry.
func (c *Config) Synthetic() source.SyntheticSpec {
	return source.SyntheticSpec{Width: c.SyntheticWidth, Height: c.SyntheticHeight, Padding: c.SyntheticPadding, Outputs: 1}
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setDefaults(v *viper.Viper, c *Config) {
	for key, val := range c.values() {
		v.SetDefault(key, val)
	}
}

func (c *Config) values() map[string]any {
	return map[string]any{
		"debug":              c.Debug,
		"log_level":          c.LogLevel,
		"log_format":         c.LogFormat,
		"backend":            c.Backend,
		"monitor":            c.Monitor,
		"window_title":       c.WindowTitle,
		"interval_ms":        c.IntervalMs,
		"acquire_timeout_ms": c.AcquireTimeoutMs,
		"backoff_min_ms":     c.BackoffMinMs,
		"backoff_max_ms":     c.BackoffMaxMs,
		"region_enabled":     c.RegionEnabled,
		"region_x":           c.RegionX,
		"region_y":           c.RegionY,
		"region_w":           c.RegionW,
		"region_h":           c.RegionH,
		"synthetic_width":    c.SyntheticWidth,
		"synthetic_height":   c.SyntheticHeight,
		"synthetic_padding":  c.SyntheticPadding,
		"preview_max_width":  c.PreviewMaxWidth,
		"preview_max_height": c.PreviewMaxHeight,
		"preview_refresh_ms": c.PreviewRefreshMs,
		"preview_dark":       c.PreviewDark,
		"debug_interval_sec": c.DebugIntervalSec,
	}
}

// Load reads configuration from path, or from pixelcap.yaml in the working
// directory or the user config directory when path is empty. A missing
// file yields defaults. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pixelcap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return cfg, err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to path. The format follows the file
// extension (.yaml, .yml or .json).
func (c *Config) Save(path string) error {
	_ = c.Validate()
	v := viper.New()
	for key, val := range c.values() {
		v.Set(key, val)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return v.WriteConfigAs(path)
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pixelcap")
}
