package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const DefaultPath = "configs/config.toml"

type Config struct {
	Server struct {
		Host               string
		AppURL             string `toml:"app_url"`
		JWTSecret          string `toml:"jwt_secret"`
		RefreshSecret      string `toml:"refresh_secret"`
		SecureCookies      bool   `toml:"secure_cookies"`
		StrReadTimeout     string `toml:"read_timeout"`
		StrWriteTimeout    string `toml:"write_timeout"`
		StrReadHeader      string `toml:"read_header_timeout"`
		StrAccessTokenTTL  string `toml:"access_token_ttl"`
		StrRefreshTokenTTL string `toml:"refresh_token_ttl"`
		StrActivationTTL   string `toml:"activation_token_ttl"`
		StrResetTTL        string `toml:"reset_token_ttl"`
		LoginAttempts      int    `toml:"login_attempts"`
		StrLoginWindow     string `toml:"login_window"`

		ReadTimeout        time.Duration `toml:"-"`
		WriteTimeout       time.Duration `toml:"-"`
		ReadHeaderTimeout  time.Duration `toml:"-"`
		AccessTokenTTL     time.Duration `toml:"-"`
		RefreshTokenTTL    time.Duration `toml:"-"`
		ActivationTokenTTL time.Duration `toml:"-"`
		ResetTokenTTL      time.Duration `toml:"-"`
		LoginWindow        time.Duration `toml:"-"`
	}
	Database struct {
		Host               string
		Port               int
		User               string
		Password           string
		Database           string
		SSLMode            string `toml:"ssl_mode"`
		MaxConns           int32  `toml:"max_conns"`
		MinConns           int32  `toml:"min_conns"`
		StrConnMaxLifetime string `toml:"conn_max_lifetime"`

		ConnMaxLifetime time.Duration `toml:"-"`
	}
	Redis struct {
		RedisAddr     string `toml:"redis_addr"`
		RedisPassword string `toml:"redis_password"`
		RedisDB       int    `toml:"redis_db"`
	}
	AMQP struct {
		Enabled bool
		URL     string
		Queue   string
	}
	Mail struct {
		Host     string
		Port     int
		User     string
		Password string
		From     string
	}
	Log struct {
		File  string
		Level string
	}
}

func GetConfig(logger *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Error loading .env file", slog.String("error", err.Error()))
	}

	path := DefaultPath
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		path = env
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Error read config file", slog.String("path", path), slog.String("error", err.Error()))
		return nil, err
	}

	cfg, err := Parse(string(data))
	if err != nil {
		logger.Error("Error parse config file", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Config is loaded", slog.String("path", path))
	return cfg, nil
}

// Parse decodes a TOML document, applies environment overrides and validates the result.
func Parse(data string) (*Config, error) {
	var cfg Config

	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrideString(&c.Server.JWTSecret, "JWT_SECRET")
	overrideString(&c.Server.RefreshSecret, "REFRESH_TOKEN_SECRET")
	overrideString(&c.Server.AppURL, "APP_URL")
	overrideString(&c.Database.Host, "DB_HOST")
	overrideString(&c.Database.Password, "DB_PASSWORD")
	overrideString(&c.Redis.RedisAddr, "REDIS_ADDR")
	overrideString(&c.Redis.RedisPassword, "REDIS_PASSWORD")
	overrideString(&c.AMQP.URL, "RABBITMQ_URL")
	overrideString(&c.Mail.Password, "SMTP_PASSWORD")

	if v, ok := os.LookupEnv("DB_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
}

func overrideString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = ":3000"
	}
	if c.Server.AppURL == "" {
		c.Server.AppURL = "http://localhost:3001"
	}
	if c.Server.StrAccessTokenTTL == "" {
		c.Server.StrAccessTokenTTL = "15m"
	}
	if c.Server.StrRefreshTokenTTL == "" {
		c.Server.StrRefreshTokenTTL = "168h"
	}
	if c.Server.StrActivationTTL == "" {
		c.Server.StrActivationTTL = "24h"
	}
	if c.Server.StrResetTTL == "" {
		c.Server.StrResetTTL = "1h"
	}
	if c.Server.LoginAttempts == 0 {
		c.Server.LoginAttempts = 5
	}
	if c.Server.StrLoginWindow == "" {
		c.Server.StrLoginWindow = "15m"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.AMQP.Queue == "" {
		c.AMQP.Queue = "notifications.email"
	}
	if c.Log.File == "" {
		c.Log.File = "server.log"
	}
}

func (c *Config) parseDurations() error {
	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.read_timeout", c.Server.StrReadTimeout, &c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.StrWriteTimeout, &c.Server.WriteTimeout},
		{"server.read_header_timeout", c.Server.StrReadHeader, &c.Server.ReadHeaderTimeout},
		{"server.access_token_ttl", c.Server.StrAccessTokenTTL, &c.Server.AccessTokenTTL},
		{"server.refresh_token_ttl", c.Server.StrRefreshTokenTTL, &c.Server.RefreshTokenTTL},
		{"server.activation_token_ttl", c.Server.StrActivationTTL, &c.Server.ActivationTokenTTL},
		{"server.reset_token_ttl", c.Server.StrResetTTL, &c.Server.ResetTokenTTL},
		{"server.login_window", c.Server.StrLoginWindow, &c.Server.LoginWindow},
		{"database.conn_max_lifetime", c.Database.StrConnMaxLifetime, &c.Database.ConnMaxLifetime},
	}

	for _, d := range durations {
		if d.raw == "" {
			continue
		}

		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return nil
}

func (c *Config) validate() error {
	if c.Server.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Server.RefreshSecret == "" {
		return errors.New("REFRESH_TOKEN_SECRET is required")
	}
	if c.Database.Host == "" || c.Database.Database == "" {
		return errors.New("database host and database name are required")
	}
	if c.AMQP.Enabled && c.AMQP.URL == "" {
		return errors.New("amqp url is required when amqp is enabled")
	}

	return nil
}

// DSN returns the pgx connection string for the configured database.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database, c.Database.SSLMode)
}

// LogLevel maps the configured level name to a slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}

	return level
}
