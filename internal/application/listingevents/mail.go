package listingevents

import (
	"context"
	"fmt"
	"strings"

	"carmarket-backend/internal/application/emails"
	"carmarket-backend/internal/application/eventbus"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/events"

	"gorm.io/gorm"
)

// RegisterMailer subscribes the seller email listener for every kind that has a message.
func RegisterMailer(bus *eventbus.Bus, mailer emails.Sender) {
	if mailer == nil {
		return
	}
	for _, kind := range events.Kinds {
		if !emails.Mailed(kind) {
			continue
		}
		bus.Subscribe(eventbus.ForKind("mail."+strings.ToLower(string(kind)), kind, mailEvent(mailer)))
	}
}

func mailEvent(mailer emails.Sender) eventbus.HandlerFunc[events.Event] {
	return func(ctx context.Context, tx *gorm.DB, ev events.Event) error {
		l := ev.Listing()
		seller := l.Seller
		if seller == nil {
			var u domain.User
			if err := tx.WithContext(ctx).Where("user_id = ?", l.SellerID).First(&u).Error; err != nil {
				return fmt.Errorf("seller %s: %w", l.SellerID, err)
			}
			seller = &u
		}
		update := emails.ListingUpdate{
			Kind:      ev.Kind(),
			ListingID: l.ID,
			Title:     l.Title,
			ExpiresAt: l.ExpiresAt,
		}
		if flagged, ok := ev.(events.AdminFlagged); ok {
			update.AdminAction = flagged.IsAdminAction()
		}
		return mailer.SendListingUpdate(ctx, emails.Recipient{Email: seller.Email, Name: seller.Fullname}, update)
	}
}
