package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. PITCHPLAY_AUDIO_BACKEND.
const EnvPrefix = "PITCHPLAY"

// DefaultConfigPath returns ~/.config/pitchplay/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pitchplay", "config.yaml")
}

// SetDefaults registers every default value with v so environment variables
// bind to keys that are absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.command", d.Audio.Command)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("playback.tail", d.Playback.Tail)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("sentry.dsn", d.Sentry.DSN)
	v.SetDefault("sentry.environment", d.Sentry.Environment)
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("build.soundfont", d.Build.SoundFont)
	v.SetDefault("build.sample_rate", d.Build.SampleRate)
	v.SetDefault("build.oggenc", d.Build.OggEnc)
	v.SetDefault("build.lame", d.Build.Lame)
}

// Load reads configuration into a Config. If path is empty, ./.pitchplay.yaml
// is tried first and then the user config file, and running without either
// is fine. Environment variables override file values.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{".pitchplay.yaml", DefaultConfigPath()}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
