package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	Server struct {
		Addr         string        `mapstructure:"addr" validate:"required"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		RateLimit    float64       `mapstructure:"rate_limit"`
		RateBurst    int           `mapstructure:"rate_burst"`
	} `mapstructure:"server"`

	Store struct {
		// Backend 可选 redis / sql
		Backend      string        `mapstructure:"backend" validate:"oneof=redis sql"`
		RedisAddr    string        `mapstructure:"redis_addr"`
		RedisDB      int           `mapstructure:"redis_db"`
		PostgresDSN  string        `mapstructure:"postgres_dsn"`
		SQLitePath   string        `mapstructure:"sqlite_path"`
		PollInterval time.Duration `mapstructure:"poll_interval"`
	} `mapstructure:"store"`

	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret" validate:"required"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Blob struct {
		Dir     string `mapstructure:"dir"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"blob"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Telemetry struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
		SentryDSN    string `mapstructure:"sentry_dsn"`
	} `mapstructure:"telemetry"`
}

// Load reads config.yaml from the working directory (or CONFIG_PATH) with
// FEEDCORE_* env overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("FEEDCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("store.backend", "redis")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.sqlite_path", "feedcore.db")
	v.SetDefault("store.poll_interval", 500*time.Millisecond)
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("blob.dir", "uploads")
	v.SetDefault("blob.base_url", "/uploads")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		// 配置文件可选，默认值即可运行
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
