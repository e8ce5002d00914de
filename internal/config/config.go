package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Login    LoginConfig    `mapstructure:"login"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoginConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	LockoutWindow time.Duration `mapstructure:"lockout_window"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Environment variable names for each config key.
var envBindings = map[string]string{
	"server.port":          "PORT",
	"server.mode":          "GIN_MODE",
	"database.driver":      "DATABASE_DRIVER",
	"database.dsn":         "DATABASE_URL",
	"jwt.secret":           "JWT_SECRET",
	"jwt.access_ttl":       "JWT_ACCESS_TTL",
	"jwt.refresh_ttl":      "JWT_REFRESH_TTL",
	"redis.addr":           "REDIS_ADDR",
	"redis.password":       "REDIS_PASSWORD",
	"redis.db":             "REDIS_DB",
	"login.max_attempts":   "LOGIN_MAX_ATTEMPTS",
	"login.lockout_window": "LOGIN_LOCKOUT_WINDOW",
	"cors.allowed_origins": "ALLOWED_ORIGINS",
}

// LoadDotenv loads a .env file when one exists. Production deployments set
// the environment directly, so a missing file is not an error.
func LoadDotenv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}

	return godotenv.Load()
}

// Load reads the optional YAML file at path (skipped when empty) and applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("jwt.access_ttl", 5*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 24*time.Hour)
	v.SetDefault("redis.db", 0)
	v.SetDefault("login.max_attempts", 5)
	v.SetDefault("login.lockout_window", 15*time.Minute)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORS.AllowedOrigins = splitOrigins(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	if c.Database.DSN == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}

	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server mode %q", c.Server.Mode)
	}

	if c.Login.MaxAttempts < 1 {
		return errors.New("login max attempts must be at least 1")
	}

	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("refresh token lifetime must not be shorter than access token lifetime")
	}

	return nil
}

// splitOrigins accepts both YAML lists and a comma separated environment value.
func splitOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))

	for _, entry := range raw {
		for _, origin := range strings.Split(entry, ",") {
			trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
