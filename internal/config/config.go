package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Store       Store       `mapstructure:"store"`
	Redis       Redis       `mapstructure:"redis"`
	Twilio      Twilio      `mapstructure:"twilio"`
	Provider    Provider    `mapstructure:"provider"`
	Coordinator Coordinator `mapstructure:"coordinator"`
	Notify      Notify      `mapstructure:"notify"`
	RateLimit   RateLimit   `mapstructure:"ratelimit"`
}

type Store struct {
	Driver string `mapstructure:"driver"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type Twilio struct {
	AccountSID   string        `mapstructure:"account_sid"`
	AuthToken    string        `mapstructure:"auth_token"`
	APIKeySID    string        `mapstructure:"api_key_sid"`
	APIKeySecret string        `mapstructure:"api_key_secret"`
	RoomType     string        `mapstructure:"room_type"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	ICETTL       int           `mapstructure:"ice_ttl"`
}

type Provider struct {
	ListLimit int `mapstructure:"list_limit"`
}

type Coordinator struct {
	ConflictRetries int `mapstructure:"conflict_retries"`
}

type Notify struct {
	Channel   string `mapstructure:"channel"`
	QueueSize int    `mapstructure:"queue_size"`
}

type RateLimit struct {
	CreateLimit  int           `mapstructure:"create_limit"`
	CreateWindow time.Duration `mapstructure:"create_window"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_path", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "breakout:")

	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.api_key_sid", "")
	v.SetDefault("twilio.api_key_secret", "")
	v.SetDefault("twilio.room_type", "group")
	v.SetDefault("twilio.token_ttl", "1h")
	v.SetDefault("twilio.ice_ttl", 86400)

	v.SetDefault("provider.list_limit", 20)
	v.SetDefault("coordinator.conflict_retries", 0)
	v.SetDefault("notify.channel", "breakout:rooms")
	v.SetDefault("notify.queue_size", 32)
	v.SetDefault("ratelimit.create_limit", 10)
	v.SetDefault("ratelimit.create_window", "1m")
}

// Load reads config/config.<CONFIG_ENV>.yaml; BREAKOUT_* env vars override
// file values (BREAKOUT_TWILIO_AUTH_TOKEN -> twilio.auth_token).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("BREAKOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("store", cfg.Store.Driver).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Provider.ListLimit <= 0 {
		return fmt.Errorf("provider.list_limit must be positive, got %d", c.Provider.ListLimit)
	}
	if c.Coordinator.ConflictRetries < 0 {
		return fmt.Errorf("coordinator.conflict_retries must not be negative")
	}
	return nil
}
