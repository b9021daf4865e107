// Package listingevents holds the side effects of listing lifecycle events and the audit trail they leave.
package listingevents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"carmarket-backend/internal/application/eventbus"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/events"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubjectPrefix is prepended to the lower-cased event kind to form the NATS subject.
const SubjectPrefix = "listings.events."

// Notifier publishes a JSON-encodable payload on a subject.
type Notifier interface {
	Publish(subject string, data any) error
}

// Notification is the message sent to subscribers outside this service.
type Notification struct {
	EventID      uuid.UUID           `json:"event_id"`
	Kind         events.Kind         `json:"kind"`
	ListingID    uint                `json:"listing_id"`
	SellerID     uuid.UUID           `json:"seller_id"`
	State        domain.ListingState `json:"state"`
	Summary      string              `json:"summary"`
	AdminAction  *bool               `json:"admin_action,omitempty"`
	DurationDays *int                `json:"duration_days,omitempty"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// Register subscribes the logging and audit listeners for every kind, plus the
// notification listener when notifier is non-nil.
func Register(bus *eventbus.Bus, notifier Notifier) {
	for _, kind := range events.Kinds {
		name := strings.ToLower(string(kind))
		bus.Subscribe(eventbus.ForKind("log."+name, kind, logEvent))
		bus.Subscribe(eventbus.ForKind("audit."+name, kind, auditEvent))
		if notifier != nil {
			bus.Subscribe(eventbus.ForKind("notify."+name, kind, notifyEvent(notifier)))
		}
	}
}

// Subject returns the NATS subject for kind.
func Subject(kind events.Kind) string {
	return SubjectPrefix + strings.ToLower(string(kind))
}

func logEvent(_ context.Context, _ *gorm.DB, ev events.Event) error {
	entry := log.Info().Str("event", string(ev.Kind())).Str("event_id", ev.ID().String())
	if flagged, ok := ev.(events.AdminFlagged); ok {
		if flagged.IsAdminAction() {
			entry.Str("actor", "admin").Msg(ev.Summary())
			return nil
		}
		entry.Str("actor", "seller").Msg(ev.Summary())
		return nil
	}
	entry.Msg(ev.Summary())
	return nil
}

func auditEvent(ctx context.Context, tx *gorm.DB, ev events.Event) error {
	n := notificationOf(ev)
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("audit payload: %w", err)
	}
	row := domain.ListingAuditEvent{
		EventID:     n.EventID,
		ListingID:   n.ListingID,
		EventType:   string(n.Kind),
		AdminAction: n.AdminAction,
		Summary:     n.Summary,
		EventData:   datatypes.JSON(payload),
		OccurredAt:  n.OccurredAt,
	}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&row).Error
}

func notifyEvent(notifier Notifier) eventbus.HandlerFunc[events.Event] {
	return func(_ context.Context, _ *gorm.DB, ev events.Event) error {
		return notifier.Publish(Subject(ev.Kind()), notificationOf(ev))
	}
}

func notificationOf(ev events.Event) Notification {
	n := Notification{
		EventID:    ev.ID(),
		Kind:       ev.Kind(),
		Summary:    ev.Summary(),
		OccurredAt: ev.OccurredAt(),
	}
	if l := ev.Listing(); l != nil {
		n.ListingID = l.ID
		n.SellerID = l.SellerID
		n.State = l.State()
		n.ExpiresAt = l.ExpiresAt
	}
	if flagged, ok := ev.(events.AdminFlagged); ok {
		admin := flagged.IsAdminAction()
		n.AdminAction = &admin
	}
	if renewal, ok := ev.(events.ListingRenewalInitiated); ok {
		days := renewal.DurationDays()
		n.DurationDays = &days
	}
	return n
}
