// Settings shared by the responder and the spanrespond command, loaded with viper.
package config

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/xerrors"
	"strings"
)

// EnvPrefix prefixes every environment variable read by Load, as in
// SPANRESPOND_DEFAULT_ACCEPT.
const EnvPrefix = "SPANRESPOND"

// Config holds negotiation and logging settings.
type Config struct {
	// Accept header value used when a request sends none. Blank means such requests
	// are rejected as malformed.
	DefaultAccept string `mapstructure:"default_accept"`
	// Let "*/*" and "type/*" ranges match the first registered format they cover.
	MatchWildcards bool `mapstructure:"match_wildcards"`
	// Query parameter that overrides the Accept header, as in "?format=json". Blank
	// disables the override.
	FormatParam string `mapstructure:"format_param"`
	// Whether request bodies of unknown type are sniffed when decoded.
	SniffDecode bool `mapstructure:"sniff_decode"`
	// zap level name: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// Human-readable console logs instead of JSON.
	LogDevelopment bool `mapstructure:"log_development"`
}

// Default returns the built-in configuration. It does not read files or the
// environment, so it cannot fail.
func Default() *Config {
	return &Config{
		DefaultAccept:  "text/html",
		MatchWildcards: true,
		FormatParam:    "format",
		SniffDecode:    false,
		LogLevel:       "info",
		LogDevelopment: false,
	}
}

func setDefaults(settings *viper.Viper) {
	defaults := Default()
	settings.SetDefault("default_accept", defaults.DefaultAccept)
	settings.SetDefault("match_wildcards", defaults.MatchWildcards)
	settings.SetDefault("format_param", defaults.FormatParam)
	settings.SetDefault("sniff_decode", defaults.SniffDecode)
	settings.SetDefault("log_level", defaults.LogLevel)
	settings.SetDefault("log_development", defaults.LogDevelopment)
}

/*
Load reads configuration from the file at path (any format viper understands, picked
by extension) and from SPANRESPOND_* environment variables, which take precedence. An
empty path skips the file.
*/
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(settings *viper.Viper, path string) (*Config, error) {
	setDefaults(settings)

	settings.SetEnvPrefix(EnvPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	settings.AutomaticEnv()

	if path != "" {
		settings.SetConfigFile(path)
		if err := settings.ReadInConfig(); err != nil {
			return nil, xerrors.Errorf("error reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := settings.Unmarshal(cfg); err != nil {
		return nil, xerrors.Errorf("error decoding config: %w", err)
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return nil, xerrors.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}

	return cfg, nil
}

// Logger builds a zap logger from the logging settings.
func (cfg *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, xerrors.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}

	var zapConfig zap.Config
	if cfg.LogDevelopment {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, xerrors.Errorf("error building logger: %w", err)
	}
	return logger, nil
}
