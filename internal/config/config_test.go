package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "3001", cfg.Port)
	require.Equal(t, ":3001", cfg.BindAddr)
	require.Equal(t, 10000, cfg.LLMTimeoutMS)
	require.Equal(t, 2*time.Minute, cfg.SessionInactivityTimeout)
}

func TestLoadRejectsShortInactivityTimeout(t *testing.T) {
	t.Setenv("SESSION_INACTIVITY_TIMEOUT", "1s")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadTimeoutMS(t *testing.T) {
	t.Setenv("LLM_TIMEOUT_MS", "not-a-number")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadHonorsBindAddrOverride(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BIND_ADDR", "0.0.0.0:9000")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.BindAddr)
}
