package listingevents

import (
	"context"
	"errors"

	"carmarket-backend/internal/domain"

	"gorm.io/gorm"
)

var ErrListingNotFound = errors.New("Listing not found")

// Service reads the audit trail written by the audit listener.
type Service struct {
	DB *gorm.DB
}

// Events returns the audit rows of a listing, oldest first.
func (s *Service) Events(ctx context.Context, listingID uint) ([]domain.ListingAuditEvent, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Listing{}).Where("id = ?", listingID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrListingNotFound
	}

	var rows []domain.ListingAuditEvent
	if err := s.DB.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("occurred_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
