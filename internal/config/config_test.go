package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadServerConfig()
	req.NoError(err)
	req.Equal(":9000", cfg.ListenAddr)
	req.Equal("info", cfg.LogLevel)
	req.Equal(60*time.Second, cfg.ReadTimeout)
	req.Equal(5*time.Second, cfg.StoreTimeout)
	req.Equal(200, cfg.HistoryLimit)
	req.Equal("nowfit-chat.db", cfg.Database.Path)
	req.Equal(24*time.Hour, cfg.JWT.Expiration)
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	req := require.New(t)
	t.Setenv("NOWFIT_LISTEN_ADDR", ":8080")
	t.Setenv("NOWFIT_DB_PATH", "/tmp/test.db")
	t.Setenv("NOWFIT_JWT_EXPIRATION", "30m")
	t.Setenv("NOWFIT_HISTORY_LIMIT", "25")

	cfg, err := LoadServerConfig()
	req.NoError(err)
	req.Equal(":8080", cfg.ListenAddr)
	req.Equal("/tmp/test.db", cfg.Database.Path)
	req.Equal(30*time.Minute, cfg.JWT.Expiration)
	req.Equal(25, cfg.HistoryLimit)
}

func TestLoadClientConfigDefaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadClientConfig()
	req.NoError(err)
	req.Equal("http://localhost:9000", cfg.ServerURL)
	req.Equal("/", cfg.CommandPrefix)
}
