package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ListingAuditEvent is the audit row written by the audit listener for each dispatched listing event.
// EventID is unique so a redelivered event is stored once.
type ListingAuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;not null;uniqueIndex" json:"event_id"`
	ListingID   uint           `gorm:"column:listing_id;not null;index" json:"listing_id"`
	EventType   string         `gorm:"column:event_type;type:varchar(40);not null" json:"event_type"`
	AdminAction *bool          `gorm:"column:admin_action" json:"admin_action"`
	Summary     string         `gorm:"column:summary;not null" json:"summary"`
	EventData   datatypes.JSON `gorm:"column:event_data" json:"event_data"`
	OccurredAt  time.Time      `gorm:"column:occurred_at;not null" json:"occurred_at"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (ListingAuditEvent) TableName() string {
	return "listing_audit_events"
}
