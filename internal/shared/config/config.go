package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	JWTSecret     string
	UserTokenTTL  time.Duration
	AdminTokenTTL time.Duration

	EncryptionKey string

	AdminUser         string
	AdminPasswordHash string
	CookieName        string
	CookieMaxAge      time.Duration

	InitialBalance       float64
	RequireAdminApproval bool
	RequireEmailVerified bool

	CORSOrigins []string
	ClientURL   string

	SMTP       SMTPConfig
	Cloudinary CloudinaryConfig
	Telegram   TelegramConfig
}

// SMTPConfig configures the outbound mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// CloudinaryConfig configures the external image store.
type CloudinaryConfig struct {
	CloudName    string
	UploadPreset string
	APIKey       string
	APISecret    string
}

// TelegramConfig configures the staff notification channel.
// Notifications are disabled when BotToken is empty.
type TelegramConfig struct {
	BotToken    string
	StaffChatID int64
}

var envBindings = map[string]string{
	"app.env":                "APP_ENV",
	"app.port":               "PORT",
	"app.client_url":         "CLIENT_URL",
	"database.url":           "DATABASE_URL",
	"jwt.secret":             "JWT_SECRET",
	"jwt.user_ttl_hours":     "USER_TOKEN_TTL_HOURS",
	"jwt.admin_ttl_minutes":  "ADMIN_TOKEN_TTL_MINUTES",
	"encryption.key":         "ENCRYPTION_KEY",
	"admin.user":             "ADMIN_USER",
	"admin.password_hash":    "ADMIN_PASSWORD_HASH",
	"cookie.name":            "COOKIE_NAME",
	"cookie.max_age_minutes": "COOKIE_MAX_AGE_MINUTES",
	"balance.initial":        "INITIAL_BALANCE",
	"policy.admin_approval":  "REQUIRE_ADMIN_APPROVAL",
	"policy.email_verified":  "REQUIRE_EMAIL_VERIFIED",
	"cors.origins":           "CORS_ALLOWED_ORIGINS",
	"smtp.host":              "SMTP_HOST",
	"smtp.port":              "SMTP_PORT",
	"smtp.username":          "SMTP_USERNAME",
	"smtp.password":          "SMTP_PASSWORD",
	"smtp.from":              "SMTP_FROM",
	"cloudinary.cloud_name":  "CLOUDINARY_CLOUD_NAME",
	"cloudinary.preset":      "CLOUDINARY_UPLOAD_PRESET",
	"cloudinary.api_key":     "CLOUDINARY_API_KEY",
	"cloudinary.api_secret":  "CLOUDINARY_API_SECRET",
	"telegram.bot_token":     "TELEGRAM_BOT_TOKEN",
	"telegram.staff_chat_id": "TELEGRAM_STAFF_CHAT_ID",
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {

	// Load .env file into the process environment. A missing file is fine
	// in prod, where everything comes from real env vars.
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// Explicitly bind viper keys to env var names.
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	viper.SetDefault("app.env", "dev")
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("jwt.user_ttl_hours", 72)
	viper.SetDefault("jwt.admin_ttl_minutes", 60)
	viper.SetDefault("cookie.name", "mainford_admin")
	viper.SetDefault("cookie.max_age_minutes", 60)
	viper.SetDefault("balance.initial", 250)
	viper.SetDefault("policy.admin_approval", true)
	viper.SetDefault("policy.email_verified", false)
	viper.SetDefault("cors.origins", []string{"*"})
	viper.SetDefault("smtp.port", 587)

	cfg := Config{
		AppEnv:               viper.GetString("app.env"),
		Port:                 viper.GetString("app.port"),
		ClientURL:            viper.GetString("app.client_url"),
		DatabaseURL:          viper.GetString("database.url"),
		JWTSecret:            viper.GetString("jwt.secret"),
		UserTokenTTL:         time.Duration(viper.GetInt("jwt.user_ttl_hours")) * time.Hour,
		AdminTokenTTL:        time.Duration(viper.GetInt("jwt.admin_ttl_minutes")) * time.Minute,
		EncryptionKey:        viper.GetString("encryption.key"),
		AdminUser:            viper.GetString("admin.user"),
		AdminPasswordHash:    viper.GetString("admin.password_hash"),
		CookieName:           viper.GetString("cookie.name"),
		CookieMaxAge:         time.Duration(viper.GetInt("cookie.max_age_minutes")) * time.Minute,
		InitialBalance:       viper.GetFloat64("balance.initial"),
		RequireAdminApproval: viper.GetBool("policy.admin_approval"),
		RequireEmailVerified: viper.GetBool("policy.email_verified"),
		CORSOrigins:          viper.GetStringSlice("cors.origins"),
		SMTP: SMTPConfig{
			Host:     viper.GetString("smtp.host"),
			Port:     viper.GetInt("smtp.port"),
			Username: viper.GetString("smtp.username"),
			Password: viper.GetString("smtp.password"),
			From:     viper.GetString("smtp.from"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    viper.GetString("cloudinary.cloud_name"),
			UploadPreset: viper.GetString("cloudinary.preset"),
			APIKey:       viper.GetString("cloudinary.api_key"),
			APISecret:    viper.GetString("cloudinary.api_secret"),
		},
		Telegram: TelegramConfig{
			BotToken:    viper.GetString("telegram.bot_token"),
			StaffChatID: viper.GetInt64("telegram.staff_chat_id"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set in environment or .env file")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set in environment or .env file")
	}
	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is not set in environment or .env file")
	}
	if len(c.EncryptionKey) != 64 {
		return fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(c.EncryptionKey))
	}
	if c.AdminUser == "" || c.AdminPasswordHash == "" {
		return errors.New("ADMIN_USER and ADMIN_PASSWORD_HASH are required")
	}
	if c.InitialBalance < 0 {
		return errors.New("INITIAL_BALANCE must not be negative")
	}
	return nil
}

// HTTPAddress returns the host:port pair the HTTP server binds to.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}
