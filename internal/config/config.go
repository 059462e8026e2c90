// Package config provides configuration types and defaults for pitchplay.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all pitchplay settings.
type Config struct {
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Audio    AudioConfig    `mapstructure:"audio" yaml:"audio"`
	Playback PlaybackConfig `mapstructure:"playback" yaml:"playback"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
	Sentry   SentryConfig   `mapstructure:"sentry" yaml:"sentry"`
	Serve    ServeConfig    `mapstructure:"serve" yaml:"serve"`
	Build    BuildConfig    `mapstructure:"build" yaml:"build"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// FetchConfig controls how bank files and note payloads are retrieved.
type FetchConfig struct {
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// AudioConfig selects the playback backend.
type AudioConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"` // beep, command or null
	Command    string `mapstructure:"command" yaml:"command"` // player command for the command backend
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// PlaybackConfig controls the play command.
type PlaybackConfig struct {
	// Tail is how long to keep running after the last cue fires.
	Tail time.Duration `mapstructure:"tail" yaml:"tail"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Exporter   string  `mapstructure:"exporter" yaml:"exporter"` // none, stdout or otlp
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// ServeConfig controls the serve command.
type ServeConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// BuildConfig controls the build command.
type BuildConfig struct {
	SoundFont  string `mapstructure:"soundfont" yaml:"soundfont"`
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	OggEnc     string `mapstructure:"oggenc" yaml:"oggenc"`
	Lame       string `mapstructure:"lame" yaml:"lame"`
}

var (
	validLevels    = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats   = map[string]bool{"text": true, "json": true}
	validBackends  = map[string]bool{"beep": true, "command": true, "null": true}
	validExporters = map[string]bool{"none": true, "stdout": true, "otlp": true}
)

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Fetch: FetchConfig{
			Timeout:   0,
			UserAgent: "pitchplay",
		},
		Audio: AudioConfig{
			Backend:    "beep",
			SampleRate: 44100,
		},
		Playback: PlaybackConfig{
			Tail: 2 * time.Second,
		},
		Tracing: TracingConfig{
			Exporter:   "none",
			Endpoint:   "localhost:4317",
			SampleRate: 1,
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8080",
		},
		Build: BuildConfig{
			SampleRate: 16000,
			OggEnc:     "oggenc",
			Lame:       "lame",
		},
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout: must not be negative, got %s", c.Fetch.Timeout)
	}
	if !validBackends[c.Audio.Backend] {
		return fmt.Errorf("audio.backend: unknown backend %q", c.Audio.Backend)
	}
	if c.Audio.SampleRate < 0 {
		return fmt.Errorf("audio.sample_rate: must not be negative, got %d", c.Audio.SampleRate)
	}
	if c.Playback.Tail < 0 {
		return fmt.Errorf("playback.tail: must not be negative, got %s", c.Playback.Tail)
	}
	if !validExporters[c.Tracing.Exporter] {
		return fmt.Errorf("tracing.exporter: unknown exporter %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate: must be between 0 and 1, got %v", c.Tracing.SampleRate)
	}
	if c.Build.SampleRate < 0 {
		return fmt.Errorf("build.sample_rate: must not be negative, got %d", c.Build.SampleRate)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# pitchplay configuration

log:
  level: info    # debug, info, warn, error
  format: text   # text or json

# Bank and note retrieval
fetch:
  timeout: 0s          # per request, 0 disables the timeout
  user_agent: pitchplay

# Audio output
audio:
  backend: beep        # beep (in-process), command (OS player) or null (dry run)
  # command: "ffplay -nodisp -autoexit -loglevel quiet"
  sample_rate: 44100

playback:
  tail: 2s             # keep running this long after the last cue fires

# OpenTelemetry spans for bank loads and playback
tracing:
  exporter: none       # none, stdout or otlp
  endpoint: localhost:4317
  sample_rate: 1

# Error reporting, enabled when dsn is set
# sentry:
#   dsn: https://key@o0.ingest.sentry.io/0
#   environment: development

serve:
  addr: 127.0.0.1:8080

# Bank rendering (pitchplay build)
build:
  # soundfont: /usr/share/sounds/sf2/FluidR3_GM.sf2
  sample_rate: 16000
  oggenc: oggenc
  lame: lame
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
