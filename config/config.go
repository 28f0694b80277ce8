// Package config loads engine settings from defaults, an optional config file, environment
// variables prefixed with ECSTORE_ and command line flags, in increasing order of precedence.
package config

import (
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "ECSTORE"
	// FileEnv names the environment variable holding the config file path.
	FileEnv = "ECSTORE_CONFIG"

	DefaultLogLevel = "info"
)

var validLogLevels = []string{
	zerolog.TraceLevel.String(),
	zerolog.DebugLevel.String(),
	zerolog.InfoLevel.String(),
	zerolog.WarnLevel.String(),
	zerolog.ErrorLevel.String(),
	zerolog.FatalLevel.String(),
	zerolog.PanicLevel.String(),
	zerolog.Disabled.String(),
}

type Config struct {
	// LogLevel is one of the zerolog level names.
	LogLevel string `mapstructure:"log_level"`
	// LogPretty switches the logger to a human readable console writer.
	LogPretty bool `mapstructure:"log_pretty"`
	// StatsdAddress enables dispatch metrics when set, e.g. "localhost:8125".
	StatsdAddress string   `mapstructure:"statsd_address"`
	StatsdTags    []string `mapstructure:"statsd_tags"`
	// StateDiffLogging logs a JSON patch of the state after every dispatch. Expensive.
	StateDiffLogging bool `mapstructure:"state_diff_logging"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"log-level":          "log_level",
	"log-pretty":         "log_pretty",
	"statsd-address":     "statsd_address",
	"statsd-tags":        "statsd_tags",
	"state-diff-logging": "state_diff_logging",
}

func Default() Config {
	return Config{
		LogLevel:         DefaultLogLevel,
		LogPretty:        false,
		StatsdAddress:    "",
		StatsdTags:       nil,
		StateDiffLogging: false,
	}
}

// RegisterFlags adds the engine flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String("log-level", def.LogLevel, "log level ("+strings.Join(validLogLevels, ", ")+")")
	fs.Bool("log-pretty", def.LogPretty, "human readable logs")
	fs.String("statsd-address", def.StatsdAddress, "statsd agent address, metrics are disabled when empty")
	fs.StringSlice("statsd-tags", def.StatsdTags, "tags attached to every metric")
	fs.Bool("state-diff-logging", def.StateDiffLogging, "log a JSON patch of the state after every dispatch")
}

// Load builds a Config. fs may be nil; otherwise its flags registered with RegisterFlags take
// precedence over everything else once they are set.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_pretty", def.LogPretty)
	v.SetDefault("statsd_address", def.StatsdAddress)
	v.SetDefault("statsd_tags", def.StatsdTags)
	v.SetDefault("state_diff_logging", def.StateDiffLogging)

	if path := os.Getenv(FileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "failed to read config file %s", path)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			flag := fs.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, eris.Wrapf(err, "failed to bind flag %s", name)
			}
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return eris.Errorf("invalid log level %q, must be one of (%s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	return nil
}

// Level parses LogLevel. It assumes Validate passed.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
