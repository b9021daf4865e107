package listings

import (
	"context"
	"time"

	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/events"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm/clause"
)

// transition locks the listing, checks and applies a state change, commits, then publishes one event
// built from a snapshot of the committed listing. Publication problems are logged and never fail the call.
type transition struct {
	name    string
	actor   Actor
	system  bool // scheduled work, no acting user
	allowed func(l *domain.Listing) bool
	apply   func(l *domain.Listing, now time.Time)
	event   func(source any, l *domain.Listing) (events.Event, error)
}

func (s *Service) run(ctx context.Context, id uint, t transition) (*domain.Listing, error) {
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
	if !t.system && !t.actor.Admin && !l.OwnedBy(t.actor.UserID) {
		tx.Rollback()
		return nil, ErrNotOwner
	}
	if !t.allowed(l) {
		tx.Rollback()
		return nil, ErrInvalidTransition
	}
	from := l.State()
	t.apply(l, s.now())
	if err := tx.Omit(clause.Associations).Save(l).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	log.Info().
		Uint("listing_id", l.ID).
		Str("action", t.name).
		Str("from", string(from)).
		Str("to", string(l.State())).
		Bool("admin", t.actor.Admin).
		Msg("listing state changed")

	snapshot := *l
	s.publish(t.event, &snapshot)
	return l, nil
}

func (s *Service) publish(build func(source any, l *domain.Listing) (events.Event, error), l *domain.Listing) {
	if s.Events == nil {
		return
	}
	ev, err := build(s, l)
	if err != nil {
		log.Error().Err(err).Uint("listing_id", l.ID).Msg("listing event not published")
		return
	}
	s.Events.Publish(ev)
}

// Approve moves a pending listing live for ListingDays.
func (s *Service) Approve(ctx context.Context, id uint) (*domain.Listing, error) {
	return s.run(ctx, id, transition{
		name:    "approve",
		actor:   Actor{Admin: true},
		allowed: func(l *domain.Listing) bool { return l.State() == domain.StatePending },
		apply: func(l *domain.Listing, now time.Time) {
			expires := now.AddDate(0, 0, s.listingDays())
			l.Approved = true
			l.ApprovedAt = &now
			l.ExpiresAt = &expires
		},
		event: func(src any, l *domain.Listing) (events.Event, error) {
			return events.NewListingApproved(src, l)
		},
	})
}

// Pause hides an approved listing.
func (s *Service) Pause(ctx context.Context, actor Actor, id uint) (*domain.Listing, error) {
	return s.run(ctx, id, transition{
		name:    "pause",
		actor:   actor,
		allowed: func(l *domain.Listing) bool { return l.State() == domain.StateApproved },
		apply: func(l *domain.Listing, _ time.Time) {
			l.Approved = false
			l.Paused = true
		},
		event: func(src any, l *domain.Listing) (events.Event, error) {
			return events.NewListingPaused(src, l)
		},
	})
}

// Resume shows a paused listing again.
func (s *Service) Resume(ctx context.Context, actor Actor, id uint) (*domain.Listing, error) {
	return s.run(ctx, id, transition{
		name:    "resume",
		actor:   actor,
		allowed: func(l *domain.Listing) bool { return l.State() == domain.StatePaused },
		apply: func(l *domain.Listing, _ time.Time) {
			l.Paused = false
			l.Approved = true
		},
		event: func(src any, l *domain.Listing) (events.Event, error) {
			return events.NewListingResumed(src, l)
		},
	})
}

// MarkAsSold closes an approved listing as sold.
func (s *Service) MarkAsSold(ctx context.Context, actor Actor, id uint) (*domain.Listing, error) {
	return s.run(ctx, id, transition{
		name:    "sold",
		actor:   actor,
		allowed: func(l *domain.Listing) bool { return l.State() == domain.StateApproved },
		apply: func(l *domain.Listing, now time.Time) {
			l.Sold = true
			l.SoldAt = &now
		},
		event: func(src any, l *domain.Listing) (events.Event, error) {
			return events.NewListingMarkedAsSold(src, l, actor.Admin)
		},
	})
}

// Expire closes the publication window of an approved or paused listing.
func (s *Service) Expire(ctx context.Context, actor Actor, id uint) (*domain.Listing, error) {
	return s.run(ctx, id, transition{
		name:    "expire",
		actor:   actor,
		allowed: expirable,
		apply:   expireAt,
		event:   expiredEvent(actor.Admin),
	})
}

func expirable(l *domain.Listing) bool {
	st := l.State()
	return st == domain.StateApproved || st == domain.StatePaused
}

func expireAt(l *domain.Listing, now time.Time) {
	l.Expired = true
	l.Approved = false
	l.Paused = false
	if l.ExpiresAt == nil || l.ExpiresAt.After(now) {
		l.ExpiresAt = &now
	}
}

func expiredEvent(admin bool) func(any, *domain.Listing) (events.Event, error) {
	return func(src any, l *domain.Listing) (events.Event, error) {
		return events.NewListingExpired(src, l, admin)
	}
}

// Archive retires a listing from any state. Archived is terminal.
func (s *Service) Archive(ctx context.Context, actor Actor, id uint) (*domain.Listing, error) {
	return s.run(ctx, id, transition{
		name:    "archive",
		actor:   actor,
		allowed: func(l *domain.Listing) bool { return !l.Archived },
		apply: func(l *domain.Listing, now time.Time) {
			l.Archived = true
			l.ArchivedAt = &now
		},
		event: func(src any, l *domain.Listing) (events.Event, error) {
			return events.NewListingArchived(src, l, actor.Admin)
		},
	})
}

// Renew extends an approved or expired listing by days, counted from the later of now and the current expiry.
// The duration is checked before anything is written.
func (s *Service) Renew(ctx context.Context, actor Actor, id uint, days int) (*domain.Listing, error) {
	if err := events.ValidateRenewalDays(days); err != nil {
		return nil, ErrInvalidRenewalDuration
	}
	return s.run(ctx, id, transition{
		name:  "renew",
		actor: actor,
		allowed: func(l *domain.Listing) bool {
			st := l.State()
			return st == domain.StateApproved || st == domain.StateExpired
		},
		apply: func(l *domain.Listing, now time.Time) {
			from := now
			if l.ExpiresAt != nil && l.ExpiresAt.After(now) {
				from = *l.ExpiresAt
			}
			expires := from.AddDate(0, 0, days)
			l.ExpiresAt = &expires
			l.Expired = false
			l.Approved = true
		},
		event: func(src any, l *domain.Listing) (events.Event, error) {
			return events.NewListingRenewalInitiated(src, l, days)
		},
	})
}
