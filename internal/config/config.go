package config

// Config represents the application configuration
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	WGEasy   WGEasyConfig   `mapstructure:"wg_easy"`
	VPN      VPNConfig      `mapstructure:"vpn"`
	LogLevel string         `mapstructure:"log_level"`
}

// TelegramConfig holds the Telegram bot configuration
type TelegramConfig struct {
	Token    string  `mapstructure:"token"`
	AdminIDs []int64 `mapstructure:"admin_ids"`
}

// BackendConfig holds the bot-side settings for reaching the REST API
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// MgmtToken unlocks the admin endpoints; empty disables admin bot features
	MgmtToken string `mapstructure:"mgmt_token"`
}

// ServerConfig holds the REST API listen settings
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	MgmtToken string `mapstructure:"mgmt_token"`
}

// DatabaseConfig holds the Postgres connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// WGEasyConfig holds the WG-Easy panel connection settings
type WGEasyConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
}

// VPNConfig holds peer provisioning defaults
type VPNConfig struct {
	DefaultLocationCode string `mapstructure:"default_location_code"`
	DefaultLocationName string `mapstructure:"default_location_name"`
	// MaxConfigsPerUser limits devices per user; 0 means unlimited.
	MaxConfigsPerUser int `mapstructure:"max_configs_per_user"`
}
