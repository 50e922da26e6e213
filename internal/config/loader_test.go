package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setServerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_NAME", "vpn")
	t.Setenv("DB_USER", "vpn")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("WG_EASY_URL", "https://panel.example.com")
	t.Setenv("WG_EASY_PASSWORD", "panel-secret")
}

func setBotEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TG_TOKEN", "123:abc")
	t.Setenv("TG_ADMIN_IDS", "42, 99")
	t.Setenv("BACKEND_BASE_URL", "http://localhost:8000/")
}

func TestLoadServer(t *testing.T) {
	setServerEnv(t)

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "vpn", cfg.Database.Name)
	assert.Equal(t, "https://panel.example.com", cfg.WGEasy.URL)
	assert.Equal(t, "nl-1", cfg.VPN.DefaultLocationCode)
	assert.Equal(t, 3, cfg.VPN.MaxConfigsPerUser)
}

func TestLoadServerMissingDatabase(t *testing.T) {
	setServerEnv(t)
	t.Setenv("DB_PASSWORD", "")

	_, err := LoadServer()
	require.Error(t, err)
}

func TestLoadServerTrimsPanelURL(t *testing.T) {
	setServerEnv(t)
	t.Setenv("WG_EASY_URL", "https://panel.example.com/ ")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "https://panel.example.com", cfg.WGEasy.URL)
}

func TestLoadBot(t *testing.T) {
	setBotEnv(t)

	cfg, err := LoadBot()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, []int64{42, 99}, cfg.Telegram.AdminIDs)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
}

func TestLoadBotMissingToken(t *testing.T) {
	setBotEnv(t)
	t.Setenv("TG_TOKEN", "")

	_, err := LoadBot()
	require.Error(t, err)
}

func TestLoadBotMissingAdmins(t *testing.T) {
	setBotEnv(t)
	t.Setenv("TG_ADMIN_IDS", "")

	_, err := LoadBot()
	require.Error(t, err)
}
