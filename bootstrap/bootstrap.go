// Package bootstrap opens the infrastructure and assembles the application services.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	authsvc "carmarket-backend/internal/application/auth"
	"carmarket-backend/internal/application/emails"
	"carmarket-backend/internal/application/eventbus"
	favsvc "carmarket-backend/internal/application/favorites"
	healthsvc "carmarket-backend/internal/application/health"
	lesvc "carmarket-backend/internal/application/listingevents"
	listsvc "carmarket-backend/internal/application/listings"
	refsvc "carmarket-backend/internal/application/reference"
	uploadsvc "carmarket-backend/internal/application/uploads"
	usersvc "carmarket-backend/internal/application/user"
	"carmarket-backend/internal/config"
	"carmarket-backend/internal/infrastructure/database"
	"carmarket-backend/internal/infrastructure/messaging"
	"carmarket-backend/internal/infrastructure/storage"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Infra is the set of opened connections the services run on. Notifier, Mailer and Store are optional.
type Infra struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Notifier lesvc.Notifier
	Mailer   emails.Sender
	Store    uploadsvc.ObjectStore
	Checks   []healthsvc.Check
}

// Runtime is the assembled application.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Rdb    *redis.Client
	Bus    *eventbus.Bus

	Auth          *authsvc.Service
	Users         *usersvc.Service
	Reference     *refsvc.Service
	Listings      *listsvc.Service
	ListingEvents *lesvc.Service
	Favorites     *favsvc.Service
	Uploads       *uploadsvc.Service // nil when object storage is not configured

	Health healthsvc.Options

	closers []func()
}

// New connects to Postgres, Redis and the optional NATS and MinIO servers, migrates the schema
// and assembles the services.
func New(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("database migrate: %w", err)
	}
	log.Info().Msg("Postgres connected")

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	log.Info().Msg("Redis connected")

	infra := Infra{DB: db, Rdb: rdb}
	var closers []func()

	if cfg.NatsURL != "" {
		pub, err := messaging.Connect(cfg.NatsURL, "carmarket-api")
		if err != nil {
			return nil, err
		}
		infra.Notifier = pub
		infra.Checks = append(infra.Checks, healthsvc.Check{Name: "nats", Ping: pub.Ping})
		closers = append(closers, pub.Close)
		log.Info().Str("url", cfg.NatsURL).Msg("NATS connected")
	}

	if cfg.SendinblueAPIKey != "" {
		infra.Mailer = &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, SiteURL: cfg.SiteURL}
	} else {
		log.Warn().Msg("SENDINBLUE_API_KEY not set: seller emails disabled")
	}

	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinio(ctx, storage.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			return nil, err
		}
		infra.Store = store
		infra.Checks = append(infra.Checks, healthsvc.Check{Name: "minio", Ping: store.Ping})
		log.Info().Str("bucket", cfg.MinioBucket).Msg("MinIO bucket ready")
	} else {
		log.Warn().Msg("MINIO_ENDPOINT not set: listing media endpoints disabled")
	}

	rt := Assemble(cfg, infra)
	// Bus first so queued notifications still reach NATS before it drains.
	rt.closers = append(rt.closers, closers...)
	rt.closers = append(rt.closers, func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return rt, nil
}

// Assemble builds the event bus and the services on already opened connections.
func Assemble(cfg *config.Config, infra Infra) *Runtime {
	bus := eventbus.New(database.TxRunner{DB: infra.DB}, eventbus.Options{
		Workers:   cfg.EventWorkers,
		QueueSize: cfg.EventQueueSize,
	})
	lesvc.Register(bus, infra.Notifier)
	lesvc.RegisterMailer(bus, infra.Mailer)

	auth := &authsvc.Service{
		DB:          infra.DB,
		Tokens:      &authsvc.Tokens{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL},
		Revocations: &authsvc.Revocations{Rdb: infra.Rdb},
	}

	rt := &Runtime{
		Config:        cfg,
		DB:            infra.DB,
		Rdb:           infra.Rdb,
		Bus:           bus,
		Auth:          auth,
		Users:         &usersvc.Service{DB: infra.DB, Sessions: auth},
		Reference:     &refsvc.Service{DB: infra.DB},
		ListingEvents: &lesvc.Service{DB: infra.DB},
		Favorites:     &favsvc.Service{DB: infra.DB},
		Listings: &listsvc.Service{
			DB:          infra.DB,
			Searcher:    &database.ListingRepository{DB: infra.DB},
			Events:      bus,
			ListingDays: cfg.ListingDefaultDays,
		},
		Health: healthsvc.Options{Checks: infra.Checks, Events: bus},
	}
	if infra.Store != nil {
		rt.Uploads = &uploadsvc.Service{DB: infra.DB, Store: infra.Store, MaxBytes: cfg.MediaMaxBytes}
	}
	rt.closers = []func(){bus.Close}
	return rt
}

// Close drains the event bus, then closes the connections.
func (r *Runtime) Close() {
	for _, c := range r.closers {
		c()
	}
}
