package config

// Config represents the application configuration
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Servers  []ServerConfig `mapstructure:"servers" validate:"required,min=1,dive"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	Panel    PanelConfig    `mapstructure:"panel"`
	Database DatabaseConfig `mapstructure:"database"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Branding BrandingConfig `mapstructure:"branding"`
	Premium  PremiumConfig  `mapstructure:"premium"`
	LogLevel string         `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
}

// TelegramConfig holds the Telegram bot configuration
type TelegramConfig struct {
	Token    string  `mapstructure:"token" validate:"required"`
	AdminIDs []int64 `mapstructure:"admin_ids" validate:"required,min=1"`
	// RequiredChannel is a channel username users must join; empty disables the check
	RequiredChannel string `mapstructure:"required_channel"`
}

// ServerConfig holds the configuration for one panel backend
type ServerConfig struct {
	ID       string `mapstructure:"id" validate:"required,max=40"`
	Name     string `mapstructure:"name" validate:"required"`
	URL      string `mapstructure:"url" validate:"required,url"`
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	// PublicHost is the host written into connection links when it differs from the panel host
	PublicHost string `mapstructure:"public_host"`
	// Free marks servers offered to free users
	Free bool `mapstructure:"free"`
}

// LimitsConfig holds per-plan quotas and anti-spam settings
type LimitsConfig struct {
	FreeGB                float64 `mapstructure:"free_gb" validate:"gte=0"`
	PremiumGB             float64 `mapstructure:"premium_gb" validate:"gte=0"`
	FreeExpireDays        int     `mapstructure:"free_expire_days" validate:"gte=0"`
	FreeClaimCooldownDays int     `mapstructure:"free_claim_cooldown_days" validate:"gte=0"`
	RateLimitMs           int     `mapstructure:"rate_limit_ms" validate:"gte=0"`
}

// PanelConfig tunes the panel clients
type PanelConfig struct {
	TimeoutSeconds    int `mapstructure:"timeout_seconds" validate:"gt=0"`
	SessionTTLMinutes int `mapstructure:"session_ttl_minutes" validate:"gte=0"`
}

// DatabaseConfig selects the storage backend
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres mysql"`
	DSN    string `mapstructure:"dsn" validate:"required"`
}

// JobsConfig holds cron schedules of background jobs
type JobsConfig struct {
	SweepCron  string `mapstructure:"sweep_cron" validate:"required"`
	ReportCron string `mapstructure:"report_cron" validate:"required"`
}

// HTTPConfig holds the status endpoint settings; an empty Listen disables it
type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
}

// BrandingConfig holds texts shown to clients
type BrandingConfig struct {
	RemarkSuffix string `mapstructure:"remark_suffix"`
}

// PremiumConfig holds the upgrade offer shown to free users
type PremiumConfig struct {
	Cost        string `mapstructure:"cost"`
	PaymentInfo string `mapstructure:"payment_info"`
}

// IsAdmin reports whether the Telegram user is a configured admin
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
