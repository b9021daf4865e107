// Package dbtest opens migrated in-memory SQLite databases for package tests.
package dbtest

import (
	"testing"

	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh migrated database. A single connection keeps every query on the same in-memory DB.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Catalog is a small set of reference rows.
type Catalog struct {
	Toyota, Kia              domain.Brand
	Camry, Corolla, Sportage domain.CarModel
	Jordan                   domain.Country
	Amman, Irbid             domain.Governorate
	Automatic, Manual        domain.Transmission
	Petrol, Hybrid           domain.FuelType
	Sedan, SUV               domain.BodyStyle
}

// SeedCatalog inserts the reference rows used across tests.
func SeedCatalog(t *testing.T, db *gorm.DB) Catalog {
	t.Helper()
	c := Catalog{
		Toyota:    domain.Brand{NameEn: "Toyota", NameAr: "تويوتا"},
		Kia:       domain.Brand{NameEn: "Kia", NameAr: "كيا"},
		Jordan:    domain.Country{Code: "JO", NameEn: "Jordan", NameAr: "الأردن"},
		Automatic: domain.Transmission{NameEn: "Automatic", NameAr: "أوتوماتيك"},
		Manual:    domain.Transmission{NameEn: "Manual", NameAr: "عادي"},
		Petrol:    domain.FuelType{NameEn: "Petrol", NameAr: "بنزين"},
		Hybrid:    domain.FuelType{NameEn: "Hybrid", NameAr: "هايبرد"},
		Sedan:     domain.BodyStyle{NameEn: "Sedan", NameAr: "سيدان"},
		SUV:       domain.BodyStyle{NameEn: "SUV", NameAr: "دفع رباعي"},
	}
	for _, row := range []any{&c.Toyota, &c.Kia, &c.Jordan, &c.Automatic, &c.Manual, &c.Petrol, &c.Hybrid, &c.Sedan, &c.SUV} {
		require.NoError(t, db.Create(row).Error)
	}
	c.Camry = domain.CarModel{BrandID: c.Toyota.ID, NameEn: "Camry", NameAr: "كامري"}
	c.Corolla = domain.CarModel{BrandID: c.Toyota.ID, NameEn: "Corolla", NameAr: "كورولا"}
	c.Sportage = domain.CarModel{BrandID: c.Kia.ID, NameEn: "Sportage", NameAr: "سبورتاج"}
	c.Amman = domain.Governorate{CountryID: c.Jordan.ID, NameEn: "Amman", NameAr: "عمان"}
	c.Irbid = domain.Governorate{CountryID: c.Jordan.ID, NameEn: "Irbid", NameAr: "إربد"}
	for _, row := range []any{&c.Camry, &c.Corolla, &c.Sportage, &c.Amman, &c.Irbid} {
		require.NoError(t, db.Create(row).Error)
	}
	return c
}

// SeedUser inserts an account with the given role and active flag.
func SeedUser(t *testing.T, db *gorm.DB, email, role string, active bool) domain.User {
	t.Helper()
	u := domain.User{
		UserID:       uuid.New(),
		Fullname:     "Test User",
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Active:       active,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// SeedListing inserts l, filling required columns the caller left empty.
func SeedListing(t *testing.T, db *gorm.DB, l domain.Listing) domain.Listing {
	t.Helper()
	if l.Title == "" {
		l.Title = "Car for sale"
	}
	if l.Currency == "" {
		l.Currency = "JOD"
	}
	require.NoError(t, db.Omit("Seller", "Brand", "Model", "Trim", "BodyStyle", "Transmission", "FuelType", "SellerType", "Governorate", "Media").Create(&l).Error)
	return l
}
