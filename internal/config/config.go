// Package config manages application settings through viper: factory
// defaults, a toml file in the user config dir, and SIPURIM_* env overrides.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/nadav-o/sipurim/internal/filesystem"
	"github.com/nadav-o/sipurim/internal/where"
)

// EnvKeyReplacer normalizes config keys into env variable naming.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes defaults, env bindings, and the config file. A missing
// config file is not an error; cold start is a valid state.
func Setup() error {
	viper.SetConfigName("sipurim")
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix("sipurim")
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, value := range Default {
		viper.SetDefault(name, value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}
