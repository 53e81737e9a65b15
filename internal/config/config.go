package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/simplelearn-uz/convertbot/types"
)

// TierLimits are the quota ceilings for one subscription tier.
// DailyConversions == -1 means unlimited.
type TierLimits struct {
	DailyConversions int
	MaxFileBytes     int64
}

type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	AdminIDs   []int64 `envconfig:"ADMIN_IDS"`
	CardNumber string  `envconfig:"CARD_NUMBER"`

	FreeDailyConversions    int   `envconfig:"FREE_DAILY_CONVERSIONS" default:"30"`
	FreeMaxFileMB           int64 `envconfig:"FREE_MAX_FILE_MB" default:"50"`
	PremiumDailyConversions int   `envconfig:"PREMIUM_DAILY_CONVERSIONS" default:"-1"`
	PremiumMaxFileMB        int64 `envconfig:"PREMIUM_MAX_FILE_MB" default:"500"`

	Workers            int `envconfig:"WORKERS" default:"3"`
	BroadcastBatchSize int `envconfig:"BROADCAST_BATCH_SIZE" default:"25"`
	BroadcastDelayMS   int `envconfig:"BROADCAST_DELAY_MS" default:"1000"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	TempDir     string `envconfig:"TEMP_DIR"`
}

// Load reads config.env (when present) and then the environment.
func Load(envFile string) (*Config, error) {
	if strings.TrimSpace(envFile) != "" {
		_ = godotenv.Load(envFile)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) FreeLimits() TierLimits {
	return TierLimits{
		DailyConversions: c.FreeDailyConversions,
		MaxFileBytes:     c.FreeMaxFileMB * 1024 * 1024,
	}
}

func (c *Config) PremiumLimits() TierLimits {
	return TierLimits{
		DailyConversions: c.PremiumDailyConversions,
		MaxFileBytes:     c.PremiumMaxFileMB * 1024 * 1024,
	}
}

// LimitsFor maps an effective tier to its ceilings.
func (c *Config) LimitsFor(tier types.Tier) TierLimits {
	if tier == types.TierPremium {
		return c.PremiumLimits()
	}
	return c.FreeLimits()
}

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
