package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full project configuration. It is read from
// CONFIG_DIR/config.yml (default ./config/config.yml) and every key can be
// overridden by an environment variable.
type Config struct {
	Database DBConfig       `yaml:"database"`
	RabbitMQ MQConfig       `yaml:"rabbitmq"`
	Services ServicesConfig `yaml:"services"`
	JWT      JWTConfig      `yaml:"jwt"`
	Tracking TrackingConfig `yaml:"tracking"`
	Geocode  GeocodeConfig  `yaml:"geocode"`
}

type DBConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"gt=0"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Database string `yaml:"database" validate:"required"`
	SSLMode  string `yaml:"sslmode"`
}

type MQConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"gt=0"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type ServicesConfig struct {
	AttendancePort int `yaml:"attendance_port" validate:"gt=0"`
	LivePort       int `yaml:"live_port" validate:"gt=0"`
}

type JWTConfig struct {
	Secret        string `yaml:"secret" validate:"required"`
	ExpiryMinutes int    `yaml:"expiry_minutes" validate:"gt=0"`
}

// TrackingConfig tunes the location pipeline.
type TrackingConfig struct {
	AccuracyThresholdMeters float64 `yaml:"accuracy_threshold_m" validate:"gt=0"`
	SyncIntervalSeconds     int     `yaml:"sync_interval_seconds" validate:"gt=0"`
	FreshFixTimeoutSeconds  int     `yaml:"fresh_fix_timeout_seconds" validate:"gt=0"`
	MaxSampleAgeSeconds     int     `yaml:"max_sample_age_seconds" validate:"gte=0"`
}

func (c TrackingConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

func (c TrackingConfig) FreshFixTimeout() time.Duration {
	return time.Duration(c.FreshFixTimeoutSeconds) * time.Second
}

func (c TrackingConfig) MaxSampleAge() time.Duration {
	return time.Duration(c.MaxSampleAgeSeconds) * time.Second
}

type GeocodeConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	UserAgent      string `yaml:"user_agent" validate:"required"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
}

func (c GeocodeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads CONFIG_DIR/config.yml, applies env overrides and validates the
// result. A missing file is not an error: defaults plus env carry a dev setup.
func Load() (Config, error) {
	cfg := defaults()

	configDir := getEnv("CONFIG_DIR", "./config")
	path := filepath.Join(configDir, "config.yml")
	if data, err := os.ReadFile(filepath.Clean(path)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Database: DBConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "fieldtrack_user",
			Password: "fieldtrack_pass",
			Database: "fieldtrack_db",
			SSLMode:  "disable",
		},
		RabbitMQ: MQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
			VHost:    "/",
		},
		Services: ServicesConfig{
			AttendancePort: 3000,
			LivePort:       3001,
		},
		JWT: JWTConfig{
			Secret:        "dev_secret",
			ExpiryMinutes: 60,
		},
		Tracking: TrackingConfig{
			AccuracyThresholdMeters: 50,
			SyncIntervalSeconds:     30,
			FreshFixTimeoutSeconds:  10,
			MaxSampleAgeSeconds:     3,
		},
		Geocode: GeocodeConfig{
			BaseURL:        "https://nominatim.openstreetmap.org",
			UserAgent:      "fieldtrack/1.0",
			TimeoutSeconds: 5,
		},
	}
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setStr(&cfg.Database.User, "DB_USER")
	setStr(&cfg.Database.Password, "DB_PASSWORD")
	setStr(&cfg.Database.Database, "DB_NAME")
	setStr(&cfg.Database.SSLMode, "DB_SSLMODE")

	setStr(&cfg.RabbitMQ.Host, "RABBITMQ_HOST")
	setInt(&cfg.RabbitMQ.Port, "RABBITMQ_PORT")
	setStr(&cfg.RabbitMQ.User, "RABBITMQ_USER")
	setStr(&cfg.RabbitMQ.Password, "RABBITMQ_PASSWORD")
	setStr(&cfg.RabbitMQ.VHost, "RABBITMQ_VHOST")

	setInt(&cfg.Services.AttendancePort, "ATTENDANCE_SERVICE_PORT")
	setInt(&cfg.Services.LivePort, "LIVE_SERVICE_PORT")

	setStr(&cfg.JWT.Secret, "JWT_SECRET")
	setInt(&cfg.JWT.ExpiryMinutes, "JWT_EXPIRY_MINUTES")

	setFloat(&cfg.Tracking.AccuracyThresholdMeters, "TRACKING_ACCURACY_THRESHOLD_M")
	setInt(&cfg.Tracking.SyncIntervalSeconds, "TRACKING_SYNC_INTERVAL_SECONDS")
	setInt(&cfg.Tracking.FreshFixTimeoutSeconds, "TRACKING_FRESH_FIX_TIMEOUT_SECONDS")
	setInt(&cfg.Tracking.MaxSampleAgeSeconds, "TRACKING_MAX_SAMPLE_AGE_SECONDS")

	setStr(&cfg.Geocode.BaseURL, "GEOCODE_BASE_URL")
	setStr(&cfg.Geocode.UserAgent, "GEOCODE_USER_AGENT")
	setInt(&cfg.Geocode.TimeoutSeconds, "GEOCODE_TIMEOUT_SECONDS")
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// DSN returns the Postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// AMQPURL returns the RabbitMQ connection URL.
func (c MQConfig) AMQPURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}
