package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the server.
type Config struct {
	AppPort   string
	Debug     bool
	DBDriver  string
	DSN       string
	MongoURI  string
	MongoDB   string
	JWTSecret string
	JWTExpire time.Duration

	RabbitMQURL string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	AdminSetupSecret string
	OrderPrefix      string
	CORSOrigins      string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("APP_DEBUG", false)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", "luxe")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRE", "168h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RAZORPAY_KEY_ID", "")
	v.SetDefault("RAZORPAY_KEY_SECRET", "")
	v.SetDefault("RAZORPAY_WEBHOOK_SECRET", "")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("ADMIN_SETUP_SECRET", "luxe_admin_setup_2024")
	v.SetDefault("ORDER_PREFIX", "LUXE")
	v.SetDefault("CORS_ORIGINS", "*")
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from v and checks the required keys.
func FromViper(v *viper.Viper) (*Config, error) {
	expire, err := time.ParseDuration(v.GetString("JWT_EXPIRE"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRE: %w", err)
	}

	cfg := &Config{
		AppPort:               v.GetString("APP_PORT"),
		Debug:                 v.GetBool("APP_DEBUG"),
		DBDriver:              strings.ToLower(v.GetString("DB_DRIVER")),
		DSN:                   v.GetString("DATABASE_URL"),
		MongoURI:              v.GetString("MONGODB_URI"),
		MongoDB:               v.GetString("MONGODB_DATABASE"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		JWTExpire:             expire,
		RabbitMQURL:           v.GetString("RABBITMQ_URL"),
		RazorpayKeyID:         v.GetString("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:     v.GetString("RAZORPAY_KEY_SECRET"),
		RazorpayWebhookSecret: v.GetString("RAZORPAY_WEBHOOK_SECRET"),
		GeminiAPIKey:          v.GetString("GEMINI_API_KEY"),
		GeminiModel:           v.GetString("GEMINI_MODEL"),
		GeminiBaseURL:         strings.TrimRight(v.GetString("GEMINI_BASE_URL"), "/"),
		AdminSetupSecret:      v.GetString("ADMIN_SETUP_SECRET"),
		OrderPrefix:           v.GetString("ORDER_PREFIX"),
		CORSOrigins:           v.GetString("CORS_ORIGINS"),
	}
	if !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
		if c.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %s", c.DBDriver)
		}
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI is required for driver mongo")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
}

// PaymentsEnabled reports whether gateway credentials are configured.
func (c *Config) PaymentsEnabled() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}
