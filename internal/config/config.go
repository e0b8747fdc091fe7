package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultTemplatePassword protects generated grade workbooks unless overridden.
const DefaultTemplatePassword = "sala@2024"

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventsChannel          string
	JWTSecret              string
	CacheTTL               time.Duration
	UploadMaxSizeMB        int
	UploadDir              string
	UploadBaseURL          string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	TemplatePassword       string
	TemplateLogoDir        string
	ReportFontPath         string
	ExportRateLimit        int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// AuthEnabled reports whether admin routes are guarded by JWT.
func (c Config) AuthEnabled() bool {
	return strings.TrimSpace(c.JWTSecret) != ""
}

// CloudinaryEnabled reports whether uploads should be sent to Cloudinary.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SALA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Sala API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "sala")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.base_url", "/uploads")
	v.SetDefault("cloudinary.folder", "sala/uploads")
	v.SetDefault("template.password", DefaultTemplatePassword)
	v.SetDefault("export.rate_limit", 20)

	ttlString := v.GetString("cache.ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsChannel:          v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CacheTTL:               ttl,
		UploadMaxSizeMB:        v.GetInt("upload.max_mb"),
		UploadDir:              v.GetString("upload.dir"),
		UploadBaseURL:          v.GetString("upload.base_url"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		TemplatePassword:       v.GetString("template.password"),
		TemplateLogoDir:        v.GetString("template.logo_dir"),
		ReportFontPath:         v.GetString("report.font_path"),
		ExportRateLimit:        v.GetInt("export.rate_limit"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	if cfg.ExportRateLimit <= 0 {
		cfg.ExportRateLimit = 20
	}

	if strings.TrimSpace(cfg.TemplatePassword) == "" {
		cfg.TemplatePassword = DefaultTemplatePassword
	}

	return cfg, nil
}
