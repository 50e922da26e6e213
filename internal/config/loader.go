package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("log_level", "info")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("WG_DEFAULT_LOCATION_CODE", "nl-1")
	v.SetDefault("WG_DEFAULT_LOCATION_NAME", "Netherlands")
	v.SetDefault("MAX_CONFIGS_PER_USER", 3)

	// Define environment variables
	v.BindEnv("TG_TOKEN")
	v.BindEnv("TG_ADMIN_IDS")
	v.BindEnv("BACKEND_BASE_URL")
	v.BindEnv("MGMT_API_TOKEN")
	v.BindEnv("SERVER_HOST")
	v.BindEnv("SERVER_PORT")
	v.BindEnv("DB_HOST")
	v.BindEnv("DB_PORT")
	v.BindEnv("DB_NAME")
	v.BindEnv("DB_USER")
	v.BindEnv("DB_PASSWORD")
	v.BindEnv("WG_EASY_URL")
	v.BindEnv("WG_EASY_PASSWORD")
	v.BindEnv("WG_DEFAULT_LOCATION_CODE")
	v.BindEnv("WG_DEFAULT_LOCATION_NAME")
	v.BindEnv("MAX_CONFIGS_PER_USER")

	return v
}

func load(v *viper.Viper) *Config {
	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		Telegram: TelegramConfig{
			Token: strings.TrimSpace(v.GetString("TG_TOKEN")),
		},
		Backend: BackendConfig{
			BaseURL:   strings.TrimRight(strings.TrimSpace(v.GetString("BACKEND_BASE_URL")), "/"),
			MgmtToken: strings.TrimSpace(v.GetString("MGMT_API_TOKEN")),
		},
		Server: ServerConfig{
			Host:      v.GetString("SERVER_HOST"),
			Port:      v.GetString("SERVER_PORT"),
			MgmtToken: strings.TrimSpace(v.GetString("MGMT_API_TOKEN")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
		},
		WGEasy: WGEasyConfig{
			URL:      strings.TrimRight(strings.TrimSpace(v.GetString("WG_EASY_URL")), "/"),
			Password: v.GetString("WG_EASY_PASSWORD"),
		},
		VPN: VPNConfig{
			DefaultLocationCode: v.GetString("WG_DEFAULT_LOCATION_CODE"),
			DefaultLocationName: v.GetString("WG_DEFAULT_LOCATION_NAME"),
			MaxConfigsPerUser:   v.GetInt("MAX_CONFIGS_PER_USER"),
		},
	}

	// Parse admin IDs
	adminIDsStr := v.GetString("TG_ADMIN_IDS")
	if adminIDsStr != "" {
		adminIDsSlice := strings.Split(adminIDsStr, ",")
		adminIDs := make([]int64, 0, len(adminIDsSlice))
		for _, idStr := range adminIDsSlice {
			var id int64
			if _, err := fmt.Sscanf(strings.TrimSpace(idStr), "%d", &id); err == nil {
				adminIDs = append(adminIDs, id)
			}
		}
		cfg.Telegram.AdminIDs = adminIDs
	}

	return cfg
}

// LoadServer loads and validates the configuration for the REST API binary
func LoadServer() (*Config, error) {
	cfg := load(newViper())
	if err := validateServerConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadBot loads and validates the configuration for the Telegram bot binary
func LoadBot() (*Config, error) {
	cfg := load(newViper())
	if err := validateBotConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateServerConfig(cfg *Config) error {
	if cfg.Database.Name == "" {
		return errors.New("DB_NAME is required")
	}
	if cfg.Database.User == "" {
		return errors.New("DB_USER is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}
	if cfg.WGEasy.URL == "" {
		return errors.New("WG_EASY_URL is required")
	}
	if cfg.WGEasy.Password == "" {
		return errors.New("WG_EASY_PASSWORD is required")
	}
	if cfg.VPN.MaxConfigsPerUser < 0 {
		return errors.New("MAX_CONFIGS_PER_USER must not be negative")
	}
	return nil
}

func validateBotConfig(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return errors.New("TG_TOKEN is required")
	}
	if len(cfg.Telegram.AdminIDs) == 0 {
		return errors.New("TG_ADMIN_IDS is required")
	}
	if cfg.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL is required")
	}
	return nil
}
