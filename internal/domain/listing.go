package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListingState is the lifecycle state derived from the listing flags.
type ListingState string

const (
	StatePending  ListingState = "pending"
	StateApproved ListingState = "approved"
	StatePaused   ListingState = "paused"
	StateSold     ListingState = "sold"
	StateExpired  ListingState = "expired"
	StateArchived ListingState = "archived"
)

// Listing is a car offered for sale.
type Listing struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`

	SellerID uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	Seller   *User     `gorm:"foreignKey:SellerID;references:UserID" json:"seller,omitempty"`

	BrandID        uint          `gorm:"column:brand_id;not null;index" json:"brand_id"`
	Brand          *Brand        `json:"brand,omitempty"`
	ModelID        uint          `gorm:"column:model_id;not null;index" json:"model_id"`
	Model          *CarModel     `json:"model,omitempty"`
	TrimID         *uint         `gorm:"column:trim_id" json:"trim_id"`
	Trim           *Trim         `json:"trim,omitempty"`
	BodyStyleID    *uint         `gorm:"column:body_style_id;index" json:"body_style_id"`
	BodyStyle      *BodyStyle    `json:"body_style,omitempty"`
	TransmissionID *uint         `gorm:"column:transmission_id;index" json:"transmission_id"`
	Transmission   *Transmission `json:"transmission,omitempty"`
	FuelTypeID     *uint         `gorm:"column:fuel_type_id;index" json:"fuel_type_id"`
	FuelType       *FuelType     `json:"fuel_type,omitempty"`
	SellerTypeID   *uint         `gorm:"column:seller_type_id" json:"seller_type_id"`
	SellerType     *SellerType   `json:"seller_type,omitempty"`
	GovernorateID  *uint         `gorm:"column:governorate_id;index" json:"governorate_id"`
	Governorate    *Governorate  `json:"governorate,omitempty"`

	ModelYear int     `gorm:"column:model_year;not null" json:"year"`
	Price     float64 `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	Currency  string  `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	Mileage   int     `gorm:"column:mileage;not null" json:"mileage"`
	Color     string  `gorm:"column:color" json:"color"`

	Approved bool `gorm:"column:approved;not null" json:"approved"`
	Paused   bool `gorm:"column:paused;not null" json:"paused"`
	Sold     bool `gorm:"column:sold;not null" json:"sold"`
	Expired  bool `gorm:"column:expired;not null" json:"expired"`
	Archived bool `gorm:"column:archived;not null" json:"archived"`

	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at"`
	ExpiresAt  *time.Time `gorm:"column:expires_at;index" json:"expires_at"`
	SoldAt     *time.Time `gorm:"column:sold_at" json:"sold_at"`
	ArchivedAt *time.Time `gorm:"column:archived_at" json:"archived_at"`

	Media []ListingMedia `gorm:"foreignKey:ListingID" json:"media,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Listing) TableName() string {
	return "car_listings"
}

// State resolves the lifecycle state. Archived wins over everything, then sold, expired, paused.
func (l *Listing) State() ListingState {
	switch {
	case l.Archived:
		return StateArchived
	case l.Sold:
		return StateSold
	case l.Expired:
		return StateExpired
	case l.Paused:
		return StatePaused
	case l.Approved:
		return StateApproved
	default:
		return StatePending
	}
}

// ReturnToModeration makes a changed listing pending again. Approval and the publication window are
// cleared, so only a new approval can make it public.
func (l *Listing) ReturnToModeration() {
	l.Approved = false
	l.Paused = false
	l.Expired = false
	l.ApprovedAt = nil
	l.ExpiresAt = nil
}

// OwnedBy reports whether userID is the listing's seller.
func (l *Listing) OwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && l.SellerID == userID
}

// ListingMedia is an image stored in object storage and attached to a listing.
type ListingMedia struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ListingID   uint      `gorm:"column:listing_id;not null;index" json:"listing_id"`
	ObjectKey   string    `gorm:"column:object_key;not null;uniqueIndex" json:"path"`
	URL         string    `gorm:"column:url;not null" json:"url"`
	ContentType string    `gorm:"column:content_type" json:"content_type"`
	SizeBytes   int64     `gorm:"column:size_bytes" json:"size_bytes"`
	Position    int       `gorm:"column:position" json:"position"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ListingMedia) TableName() string {
	return "listing_media"
}

// Favorite links a user to a listing they saved.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_favorite_user_listing" json:"user_id"`
	ListingID uint      `gorm:"column:listing_id;not null;uniqueIndex:idx_favorite_user_listing" json:"listing_id"`
	Listing   *Listing  `json:"listing,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// Page is one page of a paginated query.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage computes TotalPages from total and size.
func NewPage[T any](items []T, total int64, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{Items: items, Total: total, Page: page, Size: size, TotalPages: pages}
}

// PreloadListingDetails is a GORM scope that loads the associations rendered with a listing.
func PreloadListingDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Seller").
		Preload("Brand").
		Preload("Model").
		Preload("Trim").
		Preload("BodyStyle").
		Preload("Transmission").
		Preload("FuelType").
		Preload("SellerType").
		Preload("Governorate").
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") })
}
