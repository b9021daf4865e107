package listingevents

import (
	"context"
	"sync"
	"testing"

	"carmarket-backend/internal/application/emails"
	"carmarket-backend/internal/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu      sync.Mutex
	to      []emails.Recipient
	updates []emails.ListingUpdate
}

func (m *fakeMailer) SendListingUpdate(_ context.Context, to emails.Recipient, u emails.ListingUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	m.updates = append(m.updates, u)
	return nil
}

func TestRegisterMailer_OnlyMailedKinds(t *testing.T) {
	_, bus, _ := setup(t, nil)
	defer bus.Close()
	RegisterMailer(bus, &fakeMailer{})

	assert.Len(t, bus.Listeners(events.KindApproved), 3)
	assert.Len(t, bus.Listeners(events.KindPaused), 2)

	RegisterMailer(bus, nil)
	assert.Len(t, bus.Listeners(events.KindApproved), 3)
}

func TestMailListener_LoadsSeller(t *testing.T) {
	_, bus, l := setup(t, nil)
	mailer := &fakeMailer{}
	RegisterMailer(bus, mailer)

	l.Seller = nil
	ev, err := events.NewListingArchived(&struct{}{}, l, true)
	require.NoError(t, err)
	bus.Publish(ev)
	bus.Close()

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	require.Len(t, mailer.updates, 1)
	assert.Equal(t, "owner@cars.jo", mailer.to[0].Email)
	assert.Equal(t, events.KindArchived, mailer.updates[0].Kind)
	assert.Equal(t, l.ID, mailer.updates[0].ListingID)
	assert.True(t, mailer.updates[0].AdminAction)
}
