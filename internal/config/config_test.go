package config_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accented-ai/spellstore/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("SPELLSTORE_CATALOG", "prod-catalog.yaml")
	t.Setenv("SPELLSTORE_CHUNK_SIZE", "500")
	t.Setenv("SPELLSTORE_LOG_LEVEL", "debug")

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "prod-catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("SPELLSTORE_CATALOG", "prod-catalog.yaml")

	v := viper.New()
	flags := map[string]string{"catalog": "flag-catalog.yaml"}

	for k, val := range flags {
		v.Set(k, val)
	}

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "flag-catalog.yaml", cfg.CatalogPath, "v.Set mimics a bound flag, which viper always prioritizes over env")
}
