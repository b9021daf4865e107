package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	DatabaseURL         string
	RedisURL            string
	JWTSecret           string
	JWTTTL              time.Duration
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string // base for media links; defaults to the endpoint
	MediaMaxBytes  int64

	NatsURL string // empty disables event notifications

	SendinblueAPIKey string // SENDINBLUE_API_KEY for seller emails (Brevo)
	MailFrom         string
	SiteURL          string // base for links in emails

	EventWorkers        int
	EventQueueSize      int
	ListingDefaultDays  int
	ExpirySweepInterval time.Duration // 0 disables the background sweep
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("MINIO_BUCKET", "listing-media")
	v.SetDefault("MEDIA_MAX_BYTES", 10<<20)
	v.SetDefault("EVENT_WORKERS", 4)
	v.SetDefault("EVENT_QUEUE_SIZE", 256)
	v.SetDefault("LISTING_DEFAULT_DAYS", 30)
	v.SetDefault("EXPIRY_SWEEP_INTERVAL", "1h")

	return &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTTTL:              v.GetDuration("JWT_TTL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		MinioEndpoint:       v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:      v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:      v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:         v.GetString("MINIO_BUCKET"),
		MinioUseSSL:         v.GetBool("MINIO_USE_SSL"),
		MinioPublicURL:      v.GetString("MINIO_PUBLIC_URL"),
		MediaMaxBytes:       v.GetInt64("MEDIA_MAX_BYTES"),
		NatsURL:             v.GetString("NATS_URL"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		SiteURL:             v.GetString("SITE_URL"),
		EventWorkers:        v.GetInt("EVENT_WORKERS"),
		EventQueueSize:      v.GetInt("EVENT_QUEUE_SIZE"),
		ListingDefaultDays:  v.GetInt("LISTING_DEFAULT_DAYS"),
		ExpirySweepInterval: v.GetDuration("EXPIRY_SWEEP_INTERVAL"),
	}, nil
}
