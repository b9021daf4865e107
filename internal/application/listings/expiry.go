package listings

import (
	"context"
	"errors"
	"time"

	"carmarket-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

// ExpireDue expires every approved or paused listing whose expiry has passed.
// Each listing commits and publishes on its own; a listing that changed state meanwhile is skipped.
func (s *Service) ExpireDue(ctx context.Context) (int, error) {
	var ids []uint
	err := s.DB.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Where("(approved = ? OR paused = ?)", true, true).
		Where("expired = ? AND sold = ? AND archived = ?", false, false, false).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, err := s.run(ctx, id, transition{
			name:    "expire",
			system:  true,
			allowed: expirable,
			apply:   expireAt,
			event:   expiredEvent(false),
		})
		switch {
		case err == nil:
			expired++
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrListingNotFound):
		default:
			log.Error().Err(err).Uint("listing_id", id).Msg("expiry sweep: listing not expired")
		}
	}
	return expired, nil
}

// RunExpirySweep calls ExpireDue every interval until ctx is done. A non-positive interval disables the sweep.
func (s *Service) RunExpirySweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Info().Msg("listing expiry sweep disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.ExpireDue(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("listing expiry sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("expired", n).Msg("listing expiry sweep")
			}
		}
	}
}
