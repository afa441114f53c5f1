// Package config layers spellstore's runtime settings the way
// steveyegge-beads layers its own: flags override environment variables,
// which override a config file, which overrides built-in defaults, all
// through a single viper.Viper instance.
package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/accented-ai/spellstore/internal/util"
)

// Config is the set of values every spellstore command needs to build a
// Driver: where the catalog lives, how big a batch to fetch/join, and the
// log level to run at.
type Config struct {
	CatalogPath string
	ChunkSize   int
	LogLevel    string
}

// Load builds a Config from (in priority order) CLI flags already bound to
// v, the SPELLSTORE_-prefixed environment, an optional config file, and
// built-in defaults.
func Load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("spellstore")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("catalog", "catalog.yaml")
	v.SetDefault("chunk-size", 1000)
	v.SetDefault("log-level", "info")

	if path := v.GetString("config-file"); path != "" {
		v.SetConfigFile(path)
	}

	if v.ConfigFileUsed() != "" || v.GetString("config-file") != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, util.WrapError("read config file", err)
		}
	}

	return &Config{
		CatalogPath: v.GetString("catalog"),
		ChunkSize:   v.GetInt("chunk-size"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
