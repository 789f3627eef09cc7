package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

// Store drivers
const (
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Telegram Telegram `yaml:"telegram"`

	Store Store `yaml:"store"`

	Sheets Sheets `yaml:"sheets"`

	Database Database `yaml:"database"`

	Redis Redis `yaml:"redis"`

	Order Order `yaml:"order"`

	Admin Admin `yaml:"admin"`

	Server Server `yaml:"server"`

	JWT JWT `yaml:"jwt"`

	Log Log `yaml:"log"`
}

type Telegram struct {
	Token       string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	PollTimeout int    `yaml:"poll_timeout" env:"TELEGRAM_POLL_TIMEOUT"` // In seconds
}

type Store struct {
	Driver   string `yaml:"driver" env:"STORE_DRIVER"`
	CacheTTL int    `yaml:"cache_ttl" env:"STORE_CACHE_TTL"` // In seconds
}

type Sheets struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" env:"SPREADSHEET_ID"`
	CredentialsPath string `yaml:"credentials_path" env:"GOOGLE_CREDENTIALS_PATH"`
}

type Database struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
}

type Redis struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

type Order struct {
	Timezone       string `yaml:"timezone" env:"TIMEZONE"`
	DeadlineHour   int    `yaml:"deadline_hour" env:"ORDER_DEADLINE_HOUR"`
	DeadlineMinute int    `yaml:"deadline_minute" env:"ORDER_DEADLINE_MINUTE"`
	LocalMode      bool   `yaml:"local_mode" env:"LOCAL_MODE"`
	DeadlineBypass bool   `yaml:"deadline_bypass" env:"DEADLINE_BYPASS"`
}

type Admin struct {
	TelegramID   int64  `yaml:"telegram_id" env:"ADMIN_TELEGRAM_ID"`
	PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"` // bcrypt
}

type Server struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS"` // Empty disables the admin API
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
}

type JWT struct {
	Secret    string `yaml:"secret" env:"JWT_SECRET"`
	ExpiresIn int    `yaml:"expires_in" env:"JWT_EXPIRES_IN"` // In Hours
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"` // text or json
}

// Default returns the configuration used when no file sets a value.
func Default() Config {
	return Config{
		Telegram: Telegram{PollTimeout: 30},
		Store:    Store{Driver: DriverSheets, CacheTTL: 300},
		Sheets:   Sheets{CredentialsPath: "config/google_auth.json"},
		Database: Database{Host: "localhost", Port: 5432, SSLMode: "disable"},
		Order: Order{
			Timezone:       "Europe/Moscow",
			DeadlineHour:   10,
			DeadlineMinute: 0,
		},
		Server: Server{Address: ":8080"},
		JWT:    JWT{ExpiresIn: 12},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at CONFIG_PATH (or configs/development.yaml),
// then applies environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	configPath := "configs/development.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}

	cfg := Default()

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Order.LocalMode {
		cfg.Store.Driver = DriverMemory
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values that would otherwise fail at first use.
func (c *Config) Validate() error {
	if err := ValidateDeadline(c.Order.DeadlineHour, c.Order.DeadlineMinute); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Store.Driver {
	case DriverMemory, DriverPostgres:
	case DriverSheets:
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("sheets.spreadsheet_id is required for the sheets store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	return nil
}

// Location loads the configured order timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Order.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Order.Timezone, err)
	}
	return loc, nil
}

// CacheTTL returns the table cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Store.CacheTTL) * time.Second
}

// DeadlineBypassed reports whether the order deadline is switched off.
func (c *Config) DeadlineBypassed() bool {
	return c.Order.DeadlineBypass || c.Order.LocalMode
}
