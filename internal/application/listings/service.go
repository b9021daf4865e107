package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/events"
	"carmarket-backend/internal/domain/listingfilter"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultListingDays = 30
	MinModelYear       = 1950
	MaxTitleLength     = 120
	DefaultCurrency    = "JOD"
)

// Searcher runs a predicate-set query. Implemented by database.ListingRepository.
type Searcher interface {
	Search(ctx context.Context, conds listingfilter.Set, req listingfilter.PageRequest) (domain.Page[domain.Listing], error)
}

// Publisher receives listing events after a transition commits.
type Publisher interface {
	Publish(ev events.Event)
}

type Service struct {
	DB          *gorm.DB
	Searcher    Searcher
	Events      Publisher
	ListingDays int
	Now         func() time.Time
}

// Actor is who asks for a transition. Admins skip the ownership check and their actions are flagged.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// ListingInput is the editable content of a listing.
type ListingInput struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	BrandID        uint    `json:"brand_id"`
	ModelID        uint    `json:"model_id"`
	TrimID         *uint   `json:"trim_id"`
	BodyStyleID    *uint   `json:"body_style_id"`
	TransmissionID *uint   `json:"transmission_id"`
	FuelTypeID     *uint   `json:"fuel_type_id"`
	SellerTypeID   *uint   `json:"seller_type_id"`
	GovernorateID  *uint   `json:"governorate_id"`
	Year           int     `json:"year"`
	Price          float64 `json:"price"`
	Currency       string  `json:"currency"`
	Mileage        int     `json:"mileage"`
	Color          string  `json:"color"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) listingDays() int {
	if s.ListingDays > 0 {
		return s.ListingDays
	}
	return DefaultListingDays
}

// Search runs a public search: the filter's predicates ANDed with public visibility.
func (s *Service) Search(ctx context.Context, f listingfilter.Filter) (domain.Page[domain.Listing], error) {
	return s.Searcher.Search(ctx, listingfilter.Combine(listingfilter.PublicVisibility(), listingfilter.Build(f)), f.PageRequest())
}

// AdminSearch runs the same filter without visibility rules.
func (s *Service) AdminSearch(ctx context.Context, f listingfilter.Filter) (domain.Page[domain.Listing], error) {
	return s.Searcher.Search(ctx, listingfilter.Build(f), f.PageRequest())
}

// Get returns a publicly visible listing.
func (s *Service) Get(ctx context.Context, id uint) (*domain.Listing, error) {
	l, err := s.load(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !l.Approved || l.Sold || l.Archived || l.Seller == nil || !l.Seller.Active {
		return nil, ErrListingNotFound
	}
	return l, nil
}

// GetForActor returns any listing to an admin and the seller's own listings to the seller.
func (s *Service) GetForActor(ctx context.Context, actor Actor, id uint) (*domain.Listing, error) {
	l, err := s.load(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && !l.OwnedBy(actor.UserID) {
		return nil, ErrNotOwner
	}
	return l, nil
}

// Mine lists the seller's listings in every state, newest first. Size is capped at listingfilter.MaxSize.
func (s *Service) Mine(ctx context.Context, sellerID uuid.UUID, page, size int) (domain.Page[domain.Listing], error) {
	req, err := listingfilter.PageRequest{Page: page, Size: size}.Normalize()
	if err != nil {
		return domain.Page[domain.Listing]{}, err
	}
	q := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("seller_id = ?", sellerID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return domain.Page[domain.Listing]{}, err
	}
	var items []domain.Listing
	err = s.DB.WithContext(ctx).
		Scopes(domain.PreloadListingDetails).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").Order("id DESC").
		Limit(req.Size).Offset(req.Offset()).
		Find(&items).Error
	if err != nil {
		return domain.Page[domain.Listing]{}, err
	}
	return domain.NewPage(items, total, req.Page, req.Size), nil
}

// Create stores a new pending listing for sellerID.
func (s *Service) Create(ctx context.Context, sellerID uuid.UUID, in ListingInput) (*domain.Listing, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	l := &domain.Listing{SellerID: sellerID}
	in.applyTo(l)

	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(l).Error; err != nil {
		return nil, fmt.Errorf("Failed to create listing: %w", err)
	}
	log.Info().Uint("listing_id", l.ID).Str("seller_id", sellerID.String()).Msg("listing created")
	return s.load(ctx, s.DB, l.ID)
}

// Update replaces the listing content. Any edit sends the listing back to moderation, including an
// expired one, so renewing cannot publish unreviewed content.
func (s *Service) Update(ctx context.Context, sellerID uuid.UUID, id uint, in ListingInput) (*domain.Listing, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()
	l, err := s.lock(tx, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !l.OwnedBy(sellerID) {
		tx.Rollback()
		return nil, ErrNotOwner
	}
	if l.Sold || l.Archived {
		tx.Rollback()
		return nil, ErrNotEditable
	}
	in.applyTo(l)
	l.ReturnToModeration()
	if err := tx.Omit(clause.Associations).Save(l).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.load(ctx, s.DB, id)
}

func (in ListingInput) applyTo(l *domain.Listing) {
	l.Title = in.Title
	l.Description = in.Description
	l.BrandID = in.BrandID
	l.ModelID = in.ModelID
	l.TrimID = in.TrimID
	l.BodyStyleID = in.BodyStyleID
	l.TransmissionID = in.TransmissionID
	l.FuelTypeID = in.FuelTypeID
	l.SellerTypeID = in.SellerTypeID
	l.GovernorateID = in.GovernorateID
	l.ModelYear = in.Year
	l.Price = in.Price
	l.Currency = in.Currency
	l.Mileage = in.Mileage
	l.Color = in.Color
}

func (s *Service) validate(ctx context.Context, in ListingInput) (ListingInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Color = strings.TrimSpace(in.Color)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}

	switch {
	case in.Title == "" || len([]rune(in.Title)) > MaxTitleLength:
		return in, fmt.Errorf("%w: title is required (max %d characters)", ErrInvalidInput, MaxTitleLength)
	case in.BrandID == 0 || in.ModelID == 0:
		return in, fmt.Errorf("%w: brand_id and model_id are required", ErrInvalidInput)
	case in.Year < MinModelYear || in.Year > s.now().Year()+1:
		return in, fmt.Errorf("%w: year must be between %d and %d", ErrInvalidInput, MinModelYear, s.now().Year()+1)
	case in.Price <= 0:
		return in, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	case in.Mileage < 0:
		return in, fmt.Errorf("%w: mileage must not be negative", ErrInvalidInput)
	case len(in.Currency) != 3:
		return in, fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidInput)
	}

	db := s.DB.WithContext(ctx)
	var model domain.CarModel
	if err := db.First(&model, in.ModelID).Error; err != nil {
		return in, lookupErr("model", err)
	}
	if model.BrandID != in.BrandID {
		return in, ErrModelBrandMismatch
	}
	if in.TrimID != nil {
		var trim domain.Trim
		if err := db.First(&trim, *in.TrimID).Error; err != nil {
			return in, lookupErr("trim", err)
		}
		if trim.ModelID != in.ModelID {
			return in, fmt.Errorf("%w: trim does not belong to model", ErrInvalidInput)
		}
	}
	refs := []struct {
		name  string
		id    *uint
		model any
	}{
		{"body style", in.BodyStyleID, &domain.BodyStyle{}},
		{"transmission", in.TransmissionID, &domain.Transmission{}},
		{"fuel type", in.FuelTypeID, &domain.FuelType{}},
		{"seller type", in.SellerTypeID, &domain.SellerType{}},
		{"governorate", in.GovernorateID, &domain.Governorate{}},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if err := db.First(ref.model, *ref.id).Error; err != nil {
			return in, lookupErr(ref.name, err)
		}
	}
	return in, nil
}

func lookupErr(name string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrReferenceNotFound, name)
	}
	return err
}

func (s *Service) load(ctx context.Context, db *gorm.DB, id uint) (*domain.Listing, error) {
	var l domain.Listing
	if err := db.WithContext(ctx).Scopes(domain.PreloadListingDetails).First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (s *Service) lock(tx *gorm.DB, id uint) (*domain.Listing, error) {
	var l domain.Listing
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Seller").First(&l, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}
