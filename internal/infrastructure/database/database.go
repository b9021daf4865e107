package database

import (
	"context"

	"carmarket-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens a GORM DB from a Postgres DSN.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers such as PgBouncer.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Brand{},
		&domain.CarModel{},
		&domain.Trim{},
		&domain.BodyStyle{},
		&domain.Transmission{},
		&domain.FuelType{},
		&domain.SellerType{},
		&domain.Country{},
		&domain.Governorate{},
		&domain.Listing{},
		&domain.ListingMedia{},
		&domain.Favorite{},
		&domain.ListingAuditEvent{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Pinger adapts a GORM handle to the health check's DBPinger.
type Pinger struct {
	DB *gorm.DB
}

func (p *Pinger) Ping() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(context.Background())
}

// TxRunner runs each call in its own transaction on DB.
type TxRunner struct {
	DB *gorm.DB
}

func (r TxRunner) Run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}
