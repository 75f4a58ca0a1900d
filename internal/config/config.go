// Package config holds the service configuration of the stale bot: GitHub
// credentials, webhook and schedule settings, and logging. Values come from a
// YAML config file, STALE_* environment variables and built-in defaults, in
// that order of precedence after explicit overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to derived environment variable names.
const EnvPrefix = "STALE"

var envReplacer = strings.NewReplacer(".", "_", "-", "_")

var v *viper.Viper

// Initialize (re)loads configuration. If configFile is empty, stale.yaml is
// searched for in the working directory and $XDG_CONFIG_HOME/stale; a missing
// file is not an error.
func Initialize(configFile string) error {
	nv := viper.New()
	nv.SetConfigType("yaml")
	nv.SetEnvPrefix(EnvPrefix)
	nv.SetEnvKeyReplacer(envReplacer)
	nv.AutomaticEnv()

	for _, sk := range ServiceKeys {
		if sk.Default != "" {
			nv.SetDefault(sk.Key, sk.Default)
		}
		if sk.EnvVar != "" {
			if err := nv.BindEnv(sk.Key, prefixedEnv(sk.Key), sk.EnvVar); err != nil {
				return fmt.Errorf("bind %s: %w", sk.Key, err)
			}
		}
	}

	if configFile != "" {
		nv.SetConfigFile(configFile)
	} else {
		nv.SetConfigName("stale")
		nv.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			nv.AddConfigPath(filepath.Join(dir, "stale"))
		}
	}

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	v = nv
	return nil
}

// ResetForTesting drops the loaded configuration.
func ResetForTesting() {
	v = nil
}

func instance() *viper.Viper {
	if v == nil {
		if err := Initialize(""); err != nil {
			v = viper.New()
		}
	}
	return v
}

func prefixedEnv(key string) string {
	return EnvPrefix + "_" + envReplacer.Replace(strings.ToUpper(key))
}

// ConfigFileUsed returns the config file path, or "" if none was read.
func ConfigFileUsed() string {
	return instance().ConfigFileUsed()
}

// Set overrides a value (used for command-line flags).
func Set(key string, value any) {
	instance().Set(key, value)
}

// GetString returns a string value.
func GetString(key string) string {
	return instance().GetString(key)
}

// GetBool returns a boolean value.
func GetBool(key string) bool {
	return instance().GetBool(key)
}

// GetInt returns an integer value.
func GetInt(key string) int {
	return instance().GetInt(key)
}

// GetDuration returns a duration value.
func GetDuration(key string) time.Duration {
	return instance().GetDuration(key)
}

// GetStringSlice returns a list value. A single string is split on commas and
// whitespace so that environment variables can carry lists.
func GetStringSlice(key string) []string {
	raw := instance().Get(key)
	if s, ok := raw.(string); ok {
		return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\t' })
	}
	return instance().GetStringSlice(key)
}

// Validate checks every known key that has a value.
func Validate() error {
	var errs []error
	for _, sk := range ServiceKeys {
		if sk.List || sk.Validate == nil {
			continue
		}
		val := GetString(sk.Key)
		if val == "" {
			continue
		}
		if err := ValidateKey(sk.Key, val); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Redacted returns every known key with its current value, secrets masked.
func Redacted() map[string]string {
	out := make(map[string]string, len(ServiceKeys))
	for _, sk := range ServiceKeys {
		val := GetString(sk.Key)
		if sk.List {
			val = strings.Join(GetStringSlice(sk.Key), ",")
		}
		if sk.Secret && val != "" {
			val = "********"
		}
		out[sk.Key] = val
	}
	return out
}

// Watch calls onChange after the config file is written or replaced.
// It is a no-op when no file was read.
func Watch(onChange func()) {
	vi := instance()
	if vi.ConfigFileUsed() == "" {
		return
	}
	vi.OnConfigChange(func(e fsnotify.Event) {
		if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) {
			onChange()
		}
	})
	vi.WatchConfig()
}
