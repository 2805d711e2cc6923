package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config centralises all environment and runtime configuration.
//
// Precedence, lowest to highest: defaults, the YAML file named by
// CONFIG_FILE, environment variables.
type Config struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`

	PerimeterRefresh time.Duration `yaml:"perimeter_refresh"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	Timezone         string        `yaml:"timezone"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	URL         string `yaml:"url"`
	Host        string `yaml:"host"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Name        string `yaml:"name"`
	Port        string `yaml:"port"`
	SSLMode     string `yaml:"sslmode"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type AuthConfig struct {
	Secret        string `yaml:"secret"`
	PublicKeyFile string `yaml:"public_key_file"`
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
	RoleClaim     string `yaml:"role_claim"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultRoleClaim = "https://yourdomain.com/roles"
)

func Default() *Config {
	return &Config{
		Port:    "8080",
		GinMode: "release",
		Database: DatabaseConfig{
			Driver:  DriverPostgres,
			Port:    "5432",
			SSLMode: "disable",
		},
		Auth: AuthConfig{
			RoleClaim: DefaultRoleClaim,
		},
		PerimeterRefresh: 60 * time.Second,
		RequestTimeout:   15 * time.Second,
		Timezone:         "UTC",
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load builds the Config from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.GinMode, "GIN_MODE")

	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	if raw, ok := lookup("AUTO_MIGRATE"); ok {
		c.Database.AutoMigrate = parseBool(raw)
	}

	setString(&c.Auth.Secret, "JWT_SECRET")
	setString(&c.Auth.PublicKeyFile, "JWT_PUBLIC_KEY_FILE")
	setString(&c.Auth.Issuer, "JWT_ISSUER")
	setString(&c.Auth.Audience, "JWT_AUDIENCE")
	setString(&c.Auth.RoleClaim, "ROLE_CLAIM")

	if err := setDuration(&c.PerimeterRefresh, "PERIMETER_REFRESH"); err != nil {
		return err
	}
	if err := setDuration(&c.RequestTimeout, "REQUEST_TIMEOUT"); err != nil {
		return err
	}
	setString(&c.Timezone, "TIMEZONE")

	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for the sqlite driver")
	}
	if c.Database.Driver == DriverPostgres && c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST is required")
	}
	if c.PerimeterRefresh <= 0 {
		return fmt.Errorf("PERIMETER_REFRESH must be positive, got %s", c.PerimeterRefresh)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// ValidateAuth checks the token verification settings. Only the serve
// command needs them, so it is kept out of Validate.
func (c *Config) ValidateAuth() error {
	if c.Auth.Secret == "" && c.Auth.PublicKeyFile == "" {
		return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY_FILE is required")
	}
	if c.Auth.Secret != "" && c.Auth.PublicKeyFile != "" {
		return fmt.Errorf("set only one of JWT_SECRET and JWT_PUBLIC_KEY_FILE")
	}
	return nil
}

// DSN returns the database connection string. For postgres without
// DATABASE_URL it is assembled from the DB_* parts.
func (c *Config) DSN() string {
	d := c.Database
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func lookup(key string) (string, bool) {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	return strings.TrimSpace(val), true
}

func setString(dst *string, key string) {
	if val, ok := lookup(key); ok {
		*dst = val
	}
}

func setDuration(dst *time.Duration, key string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
		return nil
	}
	// bare integers are seconds
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: want a duration like 60s", key, raw)
	}
	*dst = time.Duration(n) * time.Second
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
