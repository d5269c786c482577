package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env         string   `env:"APP_ENV" envDefault:"development"`
	Port        string   `env:"PORT" envDefault:"8080"`
	BaseURL     string   `env:"BASE_URL" envDefault:"http://localhost:8080"`
	VenueName   string   `env:"VENUE_NAME" envDefault:"Willow Creek Estate"`
	TimeZone    string   `env:"VENUE_TIMEZONE" envDefault:"Local"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	JWT      JWTConfig
	DB       DBConfig `envPrefix:"DB_"`
	Redis    RedisConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Firebase FirebaseConfig
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET,required,notEmpty"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"168h"`
}

// DBConfig holds PostgreSQL connection settings
type DBConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER" envDefault:"postgres"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME" envDefault:"venue"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

// DSN returns the PostgreSQL connection string
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
}

// SMTPConfig holds outgoing mail settings. Email is disabled when Host is empty.
type SMTPConfig struct {
	Host       string `env:"SMTP_HOST"`
	Port       string `env:"SMTP_PORT" envDefault:"587"`
	From       string `env:"EMAIL_FROM"`
	Password   string `env:"EMAIL_PASSWORD"`
	AdminEmail string `env:"ADMIN_EMAIL"`
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// StorageConfig selects S3 when all AWS settings are present, local disk otherwise.
type StorageConfig struct {
	AWSRegion    string `env:"AWS_REGION"`
	AWSAccessKey string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Bucket       string `env:"AWS_S3_BUCKET"`
	UploadDir    string `env:"UPLOAD_DIR" envDefault:"./uploads"`
}

func (s StorageConfig) UseS3() bool {
	return s.AWSRegion != "" && s.AWSAccessKey != "" && s.AWSSecretKey != "" && s.Bucket != ""
}

type FirebaseConfig struct {
	ServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the venue timezone used to decide what "today" is.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || strings.EqualFold(c.TimeZone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid VENUE_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// AdminEmailList returns ADMIN_EMAILS trimmed and lowercased, skipping blanks.
func (c *Config) AdminEmailList() []string {
	var emails []string
	for _, e := range c.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			emails = append(emails, e)
		}
	}
	return emails
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
