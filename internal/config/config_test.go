package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("SALA_DATABASE_URL", "sqlite://sala.db")
	t.Setenv("SALA_TEMPLATE_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Sala API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 5*time.Minute, cfg.CacheTTL)
	require.Equal(t, DefaultTemplatePassword, cfg.TemplatePassword)
	require.Equal(t, 10, cfg.UploadMaxSizeMB)
	require.False(t, cfg.AuthEnabled())
	require.False(t, cfg.CloudinaryEnabled())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("SALA_DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidTTL(t *testing.T) {
	t.Setenv("SALA_DATABASE_URL", "sqlite://sala.db")
	t.Setenv("SALA_CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}
