// Package reference serves the bilingual catalog used to describe listings:
// brands, models, trims, body styles, transmissions, fuel types, seller types and locations.
package reference

import (
	"context"
	"errors"
	"strings"

	"carmarket-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrBrandNotFound   = errors.New("Brand not found")
	ErrModelNotFound   = errors.New("Model not found")
	ErrCountryNotFound = errors.New("Country not found")
	ErrNameRequired    = errors.New("name_en and name_ar are required")
	ErrDuplicateName   = errors.New("An entry with this name already exists")
)

type Service struct {
	DB *gorm.DB
}

// NameInput is the bilingual name sent when creating a catalog entry.
type NameInput struct {
	NameEn string `json:"name_en"`
	NameAr string `json:"name_ar"`
}

func (in NameInput) normalized() (NameInput, error) {
	in.NameEn = strings.TrimSpace(in.NameEn)
	in.NameAr = strings.TrimSpace(in.NameAr)
	if in.NameEn == "" || in.NameAr == "" {
		return in, ErrNameRequired
	}
	return in, nil
}

func listByName[T any](ctx context.Context, db *gorm.DB, where ...interface{}) ([]T, error) {
	items := []T{}
	q := db.WithContext(ctx).Order("name_en ASC").Order("id ASC")
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) Brands(ctx context.Context) ([]domain.Brand, error) {
	return listByName[domain.Brand](ctx, s.DB)
}

// Models returns the models of brandID. An unknown brand is an error, not an empty list.
func (s *Service) Models(ctx context.Context, brandID uint) ([]domain.CarModel, error) {
	if err := s.exists(ctx, &domain.Brand{}, brandID, ErrBrandNotFound); err != nil {
		return nil, err
	}
	return listByName[domain.CarModel](ctx, s.DB, "brand_id = ?", brandID)
}

func (s *Service) Trims(ctx context.Context, modelID uint) ([]domain.Trim, error) {
	if err := s.exists(ctx, &domain.CarModel{}, modelID, ErrModelNotFound); err != nil {
		return nil, err
	}
	return listByName[domain.Trim](ctx, s.DB, "model_id = ?", modelID)
}

func (s *Service) BodyStyles(ctx context.Context) ([]domain.BodyStyle, error) {
	return listByName[domain.BodyStyle](ctx, s.DB)
}

func (s *Service) Transmissions(ctx context.Context) ([]domain.Transmission, error) {
	return listByName[domain.Transmission](ctx, s.DB)
}

func (s *Service) FuelTypes(ctx context.Context) ([]domain.FuelType, error) {
	return listByName[domain.FuelType](ctx, s.DB)
}

func (s *Service) SellerTypes(ctx context.Context) ([]domain.SellerType, error) {
	return listByName[domain.SellerType](ctx, s.DB)
}

func (s *Service) Countries(ctx context.Context) ([]domain.Country, error) {
	return listByName[domain.Country](ctx, s.DB)
}

func (s *Service) Governorates(ctx context.Context, countryID uint) ([]domain.Governorate, error) {
	if err := s.exists(ctx, &domain.Country{}, countryID, ErrCountryNotFound); err != nil {
		return nil, err
	}
	return listByName[domain.Governorate](ctx, s.DB, "country_id = ?", countryID)
}

// CreateBrand adds a brand. Brand English names are unique, compared case-insensitively.
func (s *Service) CreateBrand(ctx context.Context, in NameInput, logoURL string) (*domain.Brand, error) {
	in, err := in.normalized()
	if err != nil {
		return nil, err
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Brand{}).Where("LOWER(name_en) = ?", strings.ToLower(in.NameEn)).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateName
	}
	b := &domain.Brand{NameEn: in.NameEn, NameAr: in.NameAr, LogoURL: strings.TrimSpace(logoURL)}
	if err := s.DB.WithContext(ctx).Create(b).Error; err != nil {
		return nil, err
	}
	log.Info().Uint("brand_id", b.ID).Str("name", b.NameEn).Msg("brand created")
	return b, nil
}

// CreateModel adds a model under brandID. Names are unique within a brand.
func (s *Service) CreateModel(ctx context.Context, brandID uint, in NameInput) (*domain.CarModel, error) {
	in, err := in.normalized()
	if err != nil {
		return nil, err
	}
	if err := s.exists(ctx, &domain.Brand{}, brandID, ErrBrandNotFound); err != nil {
		return nil, err
	}
	var n int64
	err = s.DB.WithContext(ctx).Model(&domain.CarModel{}).
		Where("brand_id = ? AND LOWER(name_en) = ?", brandID, strings.ToLower(in.NameEn)).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateName
	}
	m := &domain.CarModel{BrandID: brandID, NameEn: in.NameEn, NameAr: in.NameAr}
	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	log.Info().Uint("model_id", m.ID).Uint("brand_id", brandID).Str("name", m.NameEn).Msg("model created")
	return m, nil
}

// CreateGovernorate adds a governorate under countryID.
func (s *Service) CreateGovernorate(ctx context.Context, countryID uint, in NameInput) (*domain.Governorate, error) {
	in, err := in.normalized()
	if err != nil {
		return nil, err
	}
	if err := s.exists(ctx, &domain.Country{}, countryID, ErrCountryNotFound); err != nil {
		return nil, err
	}
	var n int64
	err = s.DB.WithContext(ctx).Model(&domain.Governorate{}).
		Where("country_id = ? AND LOWER(name_en) = ?", countryID, strings.ToLower(in.NameEn)).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateName
	}
	g := &domain.Governorate{CountryID: countryID, NameEn: in.NameEn, NameAr: in.NameAr}
	if err := s.DB.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	log.Info().Uint("governorate_id", g.ID).Uint("country_id", countryID).Str("name", g.NameEn).Msg("governorate created")
	return g, nil
}

func (s *Service) exists(ctx context.Context, model interface{}, id uint, notFound error) error {
	var n int64
	if err := s.DB.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
