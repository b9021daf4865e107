// Package events defines the notifications published after a listing lifecycle transition commits.
package events

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"carmarket-backend/internal/domain"

	"github.com/google/uuid"
)

// ErrInvalidArgument is returned when an event cannot be constructed from the given values.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	MinRenewalDays = 1
	MaxRenewalDays = 365

	// Placeholders rendered in summaries when optional data is missing.
	MissingListingID = "null"
	MissingSeller    = "unknown"
)

// Kind identifies an event variant.
type Kind string

const (
	KindApproved         Kind = "LISTING_APPROVED"
	KindArchived         Kind = "LISTING_ARCHIVED"
	KindExpired          Kind = "LISTING_EXPIRED"
	KindMarkedAsSold     Kind = "LISTING_MARKED_AS_SOLD"
	KindPaused           Kind = "LISTING_PAUSED"
	KindResumed          Kind = "LISTING_RESUMED"
	KindRenewalInitiated Kind = "LISTING_RENEWAL_INITIATED"
)

// Kinds lists every variant.
var Kinds = []Kind{
	KindApproved,
	KindArchived,
	KindExpired,
	KindMarkedAsSold,
	KindPaused,
	KindResumed,
	KindRenewalInitiated,
}

// Event is implemented by every listing event. Kind must not depend on field values so it can be
// called on a zero value.
type Event interface {
	Kind() Kind
	ID() uuid.UUID
	Source() any
	Listing() *domain.Listing
	OccurredAt() time.Time
	Summary() string
}

// AdminFlagged is implemented by events that record whether an administrator triggered them.
type AdminFlagged interface {
	IsAdminAction() bool
}

type base struct {
	id      uuid.UUID
	source  any
	listing *domain.Listing
	at      time.Time
}

func newBase(source any, listing *domain.Listing) (base, error) {
	if isNil(source) {
		return base{}, fmt.Errorf("%w: event source must not be nil", ErrInvalidArgument)
	}
	if listing == nil {
		return base{}, fmt.Errorf("%w: listing must not be nil", ErrInvalidArgument)
	}
	return base{id: uuid.New(), source: source, listing: listing, at: time.Now().UTC()}, nil
}

func (b base) ID() uuid.UUID            { return b.id }
func (b base) Source() any              { return b.source }
func (b base) Listing() *domain.Listing { return b.listing }
func (b base) OccurredAt() time.Time    { return b.at }

func (b base) listingID() string {
	if b.listing == nil || b.listing.ID == 0 {
		return MissingListingID
	}
	return strconv.FormatUint(uint64(b.listing.ID), 10)
}

func (b base) seller() string {
	if b.listing == nil || b.listing.Seller == nil || b.listing.Seller.Email == "" {
		return MissingSeller
	}
	return b.listing.Seller.Email
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ListingApproved is published when a moderator approves a pending listing.
type ListingApproved struct{ base }

func NewListingApproved(source any, listing *domain.Listing) (ListingApproved, error) {
	b, err := newBase(source, listing)
	if err != nil {
		return ListingApproved{}, err
	}
	return ListingApproved{b}, nil
}

func (ListingApproved) Kind() Kind { return KindApproved }

func (e ListingApproved) Summary() string {
	return fmt.Sprintf("ListingApprovedEvent[listingId=%s, seller=%s]", e.listingID(), e.seller())
}

func (e ListingApproved) String() string { return e.Summary() }

// ListingArchived is published when a listing reaches the terminal archived state.
type ListingArchived struct {
	base
	adminAction bool
}

func NewListingArchived(source any, listing *domain.Listing, adminAction bool) (ListingArchived, error) {
	b, err := newBase(source, listing)
	if err != nil {
		return ListingArchived{}, err
	}
	return ListingArchived{base: b, adminAction: adminAction}, nil
}

func (ListingArchived) Kind() Kind            { return KindArchived }
func (e ListingArchived) IsAdminAction() bool { return e.adminAction }

func (e ListingArchived) Summary() string {
	return fmt.Sprintf("ListingArchivedEvent[listingId=%s, isAdminAction=%t, seller=%s]", e.listingID(), e.adminAction, e.seller())
}

func (e ListingArchived) String() string { return e.Summary() }

// ListingExpired is published when a listing's publication window closes.
type ListingExpired struct {
	base
	adminAction bool
}

func NewListingExpired(source any, listing *domain.Listing, adminAction bool) (ListingExpired, error) {
	b, err := newBase(source, listing)
	if err != nil {
		return ListingExpired{}, err
	}
	return ListingExpired{base: b, adminAction: adminAction}, nil
}

func (ListingExpired) Kind() Kind            { return KindExpired }
func (e ListingExpired) IsAdminAction() bool { return e.adminAction }

func (e ListingExpired) Summary() string {
	return fmt.Sprintf("ListingExpiredEvent[listingId=%s, isAdminAction=%t, seller=%s]", e.listingID(), e.adminAction, e.seller())
}

func (e ListingExpired) String() string { return e.Summary() }

// ListingMarkedAsSold is published when the car is sold.
type ListingMarkedAsSold struct {
	base
	adminAction bool
}

func NewListingMarkedAsSold(source any, listing *domain.Listing, adminAction bool) (ListingMarkedAsSold, error) {
	b, err := newBase(source, listing)
	if err != nil {
		return ListingMarkedAsSold{}, err
	}
	return ListingMarkedAsSold{base: b, adminAction: adminAction}, nil
}

func (ListingMarkedAsSold) Kind() Kind            { return KindMarkedAsSold }
func (e ListingMarkedAsSold) IsAdminAction() bool { return e.adminAction }

func (e ListingMarkedAsSold) Summary() string {
	return fmt.Sprintf("ListingMarkedAsSoldEvent[listingId=%s, isAdminAction=%t, seller=%s]", e.listingID(), e.adminAction, e.seller())
}

func (e ListingMarkedAsSold) String() string { return e.Summary() }

// ListingPaused is published when the seller hides an approved listing.
type ListingPaused struct{ base }

func NewListingPaused(source any, listing *domain.Listing) (ListingPaused, error) {
	b, err := newBase(source, listing)
	if err != nil {
		return ListingPaused{}, err
	}
	return ListingPaused{b}, nil
}

func (ListingPaused) Kind() Kind { return KindPaused }

func (e ListingPaused) Summary() string {
	return fmt.Sprintf("ListingPausedEvent[listingId=%s, seller=%s]", e.listingID(), e.seller())
}

func (e ListingPaused) String() string { return e.Summary() }

// ListingResumed is published when a paused listing is shown again.
type ListingResumed struct{ base }

func NewListingResumed(source any, listing *domain.Listing) (ListingResumed, error) {
	b, err := newBase(source, listing)
	if err != nil {
		return ListingResumed{}, err
	}
	return ListingResumed{b}, nil
}

func (ListingResumed) Kind() Kind { return KindResumed }

func (e ListingResumed) Summary() string {
	return fmt.Sprintf("ListingResumedEvent[listingId=%s, seller=%s]", e.listingID(), e.seller())
}

func (e ListingResumed) String() string { return e.Summary() }

// ListingRenewalInitiated is published when a seller extends the publication window.
// The duration feeds expiry and billing math, so it is validated here.
type ListingRenewalInitiated struct {
	base
	durationDays int
}

func NewListingRenewalInitiated(source any, listing *domain.Listing, durationDays int) (ListingRenewalInitiated, error) {
	if err := ValidateRenewalDays(durationDays); err != nil {
		return ListingRenewalInitiated{}, err
	}
	b, err := newBase(source, listing)
	if err != nil {
		return ListingRenewalInitiated{}, err
	}
	return ListingRenewalInitiated{base: b, durationDays: durationDays}, nil
}

// ValidateRenewalDays accepts 1..365 inclusive.
func ValidateRenewalDays(days int) error {
	if days < MinRenewalDays || days > MaxRenewalDays {
		return fmt.Errorf("%w: renewal duration must be between %d and %d days, got %d", ErrInvalidArgument, MinRenewalDays, MaxRenewalDays, days)
	}
	return nil
}

func (ListingRenewalInitiated) Kind() Kind          { return KindRenewalInitiated }
func (e ListingRenewalInitiated) DurationDays() int { return e.durationDays }

func (e ListingRenewalInitiated) Summary() string {
	return fmt.Sprintf("ListingRenewalInitiatedEvent[listingId=%s, durationDays=%d, seller=%s]", e.listingID(), e.durationDays, e.seller())
}

func (e ListingRenewalInitiated) String() string { return e.Summary() }
