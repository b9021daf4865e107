package listingevents

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"carmarket-backend/internal/application/eventbus"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/events"
	"carmarket-backend/internal/infrastructure/database"
	"carmarket-backend/internal/infrastructure/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	mu       sync.Mutex
	subjects []string
	payloads []Notification
	err      error
}

func (n *fakeNotifier) Publish(subject string, data any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.subjects = append(n.subjects, subject)
	n.payloads = append(n.payloads, data.(Notification))
	return nil
}

func setup(t *testing.T, notifier Notifier) (*gorm.DB, *eventbus.Bus, *domain.Listing) {
	db := dbtest.Open(t)
	catalog := dbtest.SeedCatalog(t, db)
	seller := dbtest.SeedUser(t, db, "owner@cars.jo", "user", true)
	l := dbtest.SeedListing(t, db, domain.Listing{
		SellerID: seller.UserID,
		BrandID:  catalog.Toyota.ID,
		ModelID:  catalog.Camry.ID,
		Approved: true,
	})
	l.Seller = &seller

	bus := eventbus.New(&database.TxRunner{DB: db}, eventbus.Options{Workers: 2, QueueSize: 64})
	Register(bus, notifier)
	return db, bus, &l
}

func TestRegister_EveryKind(t *testing.T) {
	_, bus, _ := setup(t, &fakeNotifier{})
	defer bus.Close()
	for _, kind := range events.Kinds {
		assert.Len(t, bus.Listeners(kind), 3, string(kind))
	}

	_, quiet, _ := setup(t, nil)
	defer quiet.Close()
	assert.Len(t, quiet.Listeners(events.KindApproved), 2)
}

func TestAuditListener_WritesOneRowPerEvent(t *testing.T) {
	notifier := &fakeNotifier{}
	db, bus, l := setup(t, notifier)
	src := &struct{ name string }{"test"}

	sold, err := events.NewListingMarkedAsSold(src, l, true)
	require.NoError(t, err)
	renewed, err := events.NewListingRenewalInitiated(src, l, 14)
	require.NoError(t, err)

	bus.Publish(sold)
	bus.Publish(renewed)
	bus.Publish(sold)
	bus.Close()

	var rows []domain.ListingAuditEvent
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)

	byType := map[string]domain.ListingAuditEvent{}
	for _, r := range rows {
		byType[r.EventType] = r
	}
	soldRow := byType[string(events.KindMarkedAsSold)]
	assert.Equal(t, sold.ID(), soldRow.EventID)
	assert.Equal(t, l.ID, soldRow.ListingID)
	require.NotNil(t, soldRow.AdminAction)
	assert.True(t, *soldRow.AdminAction)
	assert.Contains(t, soldRow.Summary, "seller=owner@cars.jo")

	renewRow := byType[string(events.KindRenewalInitiated)]
	assert.Nil(t, renewRow.AdminAction)
	var payload Notification
	require.NoError(t, json.Unmarshal(renewRow.EventData, &payload))
	require.NotNil(t, payload.DurationDays)
	assert.Equal(t, 14, *payload.DurationDays)
	assert.Equal(t, l.SellerID, payload.SellerID)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Len(t, notifier.subjects, 3)
	assert.Contains(t, notifier.subjects, "listings.events.listing_renewal_initiated")
	assert.Contains(t, notifier.subjects, "listings.events.listing_marked_as_sold")
}

func TestNotifierFailure_DoesNotStopAudit(t *testing.T) {
	db, bus, l := setup(t, &fakeNotifier{err: errors.New("nats down")})

	ev, err := events.NewListingPaused(&struct{}{}, l)
	require.NoError(t, err)
	bus.Publish(ev)
	bus.Close()

	delivered, failed, dropped := bus.Stats()
	assert.Equal(t, int64(2), delivered)
	assert.Equal(t, int64(1), failed)
	assert.Zero(t, dropped)

	var count int64
	require.NoError(t, db.Model(&domain.ListingAuditEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestService_Events(t *testing.T) {
	db, bus, l := setup(t, nil)
	svc := &Service{DB: db}

	_, err := svc.Events(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrListingNotFound)

	rows, err := svc.Events(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	approved, err := events.NewListingApproved(svc, l)
	require.NoError(t, err)
	bus.Publish(approved)
	bus.Close()

	rows, err = svc.Events(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, string(events.KindApproved), rows[0].EventType)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "listings.events.listing_approved", Subject(events.KindApproved))
}
