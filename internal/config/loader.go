package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"xui-keys-bot/internal/constants"
	apperrors "xui-keys-bot/internal/errors"
)

// EnvPrefix prefixes environment overrides, e.g. XKB_TELEGRAM_TOKEN
const EnvPrefix = "XKB"

var validate = validator.New()

// Load parses command line args, reads the YAML config file and applies environment overrides
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("xui-keys-bot", pflag.ContinueOnError)
	flags.String("config", "config.yaml", "path to the YAML config file")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	v.SetConfigFile(v.GetString("config"))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, &apperrors.ConfigError{Section: "file", Message: err.Error()}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	normalize(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults also registers every env-overridable key so AutomaticEnv sees it on Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_ids", []int64{})
	v.SetDefault("telegram.required_channel", "")

	v.SetDefault("limits.free_gb", constants.DefaultFreeGB)
	v.SetDefault("limits.premium_gb", 0)
	v.SetDefault("limits.free_expire_days", constants.DefaultFreeExpireDays)
	v.SetDefault("limits.free_claim_cooldown_days", constants.DefaultFreeClaimCooldown)
	v.SetDefault("limits.rate_limit_ms", constants.DefaultRateLimitMs)

	v.SetDefault("panel.timeout_seconds", constants.DefaultTimeout)
	v.SetDefault("panel.session_ttl_minutes", constants.SessionTTL)

	v.SetDefault("database.driver", constants.DefaultDatabaseDriver)
	v.SetDefault("database.dsn", constants.DefaultDatabaseDSN)

	v.SetDefault("jobs.sweep_cron", constants.DefaultSweepSchedule)
	v.SetDefault("jobs.report_cron", constants.DefaultReportSchedule)

	v.SetDefault("http.listen", constants.DefaultHTTPListen)

	v.SetDefault("branding.remark_suffix", constants.DefaultRemarkSuffix)

	v.SetDefault("premium.cost", "$5 / month")
	v.SetDefault("premium.payment_info", "Contact Admin")
}

func normalize(cfg *Config) {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Telegram.RequiredChannel = strings.TrimPrefix(strings.TrimSpace(cfg.Telegram.RequiredChannel), "@")
	cfg.Premium.PaymentInfo = strings.ReplaceAll(cfg.Premium.PaymentInfo, `\n`, "\n")

	for i := range cfg.Servers {
		s := &cfg.Servers[i]
		s.ID = strings.TrimSpace(s.ID)
		s.URL = strings.TrimRight(strings.TrimSpace(s.URL), "/")
		s.Username = strings.TrimSpace(s.Username)
		s.PublicHost = strings.TrimSpace(s.PublicHost)
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &apperrors.ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed on '%s' rule", fe.Tag()),
			}
		}
		return err
	}

	seen := make(map[string]bool, len(cfg.Servers))
	for _, s := range cfg.Servers {
		if seen[s.ID] {
			return &apperrors.ConfigError{Section: "servers", Message: fmt.Sprintf("duplicate server id %q", s.ID)}
		}
		seen[s.ID] = true
	}

	return nil
}
