package favorites

import (
	"context"
	"errors"

	"carmarket-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrListingNotFound  = errors.New("Listing not found")
	ErrAlreadyFavorited = errors.New("Listing is already in favorites")
	ErrNotFavorited     = errors.New("Listing is not in favorites")
)

type Service struct {
	DB *gorm.DB
}

// List returns the user's favorites newest first, with the listing loaded.
// Favorites whose listing is no longer public are still returned so the user can remove them.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]domain.Favorite, error) {
	favs := []domain.Favorite{}
	err := s.DB.WithContext(ctx).
		Preload("Listing").
		Preload("Listing.Brand").
		Preload("Listing.Model").
		Preload("Listing.Governorate").
		Preload("Listing.Media", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&favs).Error
	if err != nil {
		return nil, err
	}
	return favs, nil
}

// Add saves a publicly visible listing for the user.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, listingID uint) (*domain.Favorite, error) {
	var l domain.Listing
	if err := s.DB.WithContext(ctx).Preload("Seller").First(&l, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !l.Approved || l.Sold || l.Archived || l.Seller == nil || !l.Seller.Active {
		return nil, ErrListingNotFound
	}

	fav := &domain.Favorite{UserID: userID, ListingID: listingID}
	res := s.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "listing_id"}}, DoNothing: true}).
		Create(fav)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyFavorited
	}
	return fav, nil
}

func (s *Service) Remove(ctx context.Context, userID uuid.UUID, listingID uint) error {
	res := s.DB.WithContext(ctx).Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFavorited
	}
	return nil
}

// IsFavorite reports whether the user saved listingID.
func (s *Service) IsFavorite(ctx context.Context, userID uuid.UUID, listingID uint) (bool, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&domain.Favorite{}).Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&n).Error
	return n > 0, err
}
