// Package config loads channelnoded's runtime configuration via viper,
// supporting a config file, environment variables (CHANNELNODE_ prefix),
// and CLI flag overrides bound by cmd/channelnoded.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/channelcore/node/chanerr"
)

// Config is the fully resolved node configuration.
type Config struct {
	// UtxoStoreDir is the badger data directory backing store.UtxoStore.
	UtxoStoreDir string `mapstructure:"utxo_store_dir"`

	// CheckpointDBPath is the bbolt database file backing checkpoint.Store.
	CheckpointDBPath string `mapstructure:"checkpoint_db_path"`

	// DispatcherQueueSize is the buffered channel depth for
	// channel.Dispatcher.
	DispatcherQueueSize int `mapstructure:"dispatcher_queue_size"`

	// ShutdownGracePeriod bounds how long shutdown waits for the dispatcher
	// to drain in-flight updates.
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	// Development switches the zap logger to a human-readable console
	// encoder instead of JSON.
	Development bool `mapstructure:"development"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("utxo_store_dir", "./data/utxo")
	v.SetDefault("checkpoint_db_path", "./data/checkpoints.db")
	v.SetDefault("dispatcher_queue_size", 64)
	v.SetDefault("shutdown_grace_period", 10*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("development", false)
}

// Load resolves a Config from, in ascending precedence: built-in defaults,
// a config file at configPath (if non-empty and present), CHANNELNODE_*
// environment variables, and flags bound to flagSet (if non-nil).
func Load(configPath string, flagSet *pflag.FlagSet) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("channelnode")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flagSet != nil {
		// Flags are named with hyphens (utxo-store-dir); bind each under the
		// underscore key the Config fields are decoded from (utxo_store_dir).
		var bindErr error
		flagSet.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, chanerr.Wrap(chanerr.KindMalformed, "bind config flags", bindErr)
		}
	}

	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, chanerr.Wrap(chanerr.KindMalformed, "read config file", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, chanerr.Wrap(chanerr.KindMalformed, "unmarshal config", err)
	}
	return cfg, nil
}
