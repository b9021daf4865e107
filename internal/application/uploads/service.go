package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"carmarket-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultMaxBytes    = 10 << 20
	UploadURLExpiry    = time.Hour
	MaxMediaPerListing = 20
)

var (
	ErrListingNotFound      = errors.New("Listing not found")
	ErrNotOwner             = errors.New("Listing does not belong to user")
	ErrListingClosed        = errors.New("Media cannot change on sold or archived listings")
	ErrMediaNotFound        = errors.New("Media not found")
	ErrFileNameRequired     = errors.New("file_name is required")
	ErrUnsupportedMediaType = errors.New("Only JPEG, PNG and WebP images are accepted")
	ErrFileTooLarge         = errors.New("File is too large")
	ErrEmptyFile            = errors.New("File is empty")
	ErrTooManyMedia         = errors.New("Listing has reached the media limit")
)

// AllowedContentTypes maps accepted image content types to their file extension.
var AllowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ObjectStore is the object storage the media files live in. Implemented by storage.MinioStore.
type ObjectStore interface {
	PresignedPutURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Service stores listing images.
type Service struct {
	DB       *gorm.DB
	Store    ObjectStore
	MaxBytes int64
	Now      func() time.Time
}

// UploadResult is returned by UploadURL. The client PUTs the file to UploadURL; PublicURL serves it afterwards.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

// File is one uploaded image.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxBytes
}

// objectKey builds listings/<id>/<millis>-<sanitized name>.
func (s *Service) objectKey(listingID uint, fileName string) string {
	name := unsafeName.ReplaceAllString(path.Base(strings.TrimSpace(fileName)), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = uuid.NewString()
	}
	return fmt.Sprintf("listings/%d/%d-%s", listingID, s.now().UnixMilli(), name)
}

// UploadURL returns a presigned PUT URL for a file of the owner's listing.
func (s *Service) UploadURL(ctx context.Context, ownerID uuid.UUID, listingID uint, fileName string) (*UploadResult, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrFileNameRequired
	}
	if _, err := s.ownedListing(ctx, ownerID, listingID); err != nil {
		return nil, err
	}
	key := s.objectKey(listingID, fileName)
	signed, err := s.Store.PresignedPutURL(ctx, key, UploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("Failed to sign upload URL: %w", err)
	}
	return &UploadResult{UploadURL: signed, PublicURL: s.Store.PublicURL(key), Path: key}, nil
}

// Upload stores f in object storage and attaches it to the listing after its current media.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, listingID uint, f File) (*domain.ListingMedia, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(f.ContentType, ";")[0]))
	if _, ok := AllowedContentTypes[ct]; !ok {
		return nil, ErrUnsupportedMediaType
	}
	if f.Size <= 0 {
		return nil, ErrEmptyFile
	}
	if f.Size > s.maxBytes() {
		return nil, ErrFileTooLarge
	}
	if _, err := s.ownedListing(ctx, ownerID, listingID); err != nil {
		return nil, err
	}
	n, err := s.mediaCount(s.DB.WithContext(ctx), listingID)
	if err != nil {
		return nil, err
	}
	if n >= MaxMediaPerListing {
		return nil, ErrTooManyMedia
	}

	key := s.objectKey(listingID, f.Name)
	if err := s.Store.Put(ctx, key, f.Body, f.Size, ct); err != nil {
		return nil, fmt.Errorf("Failed to store file: %w", err)
	}
	m := &domain.ListingMedia{
		ListingID:   listingID,
		ObjectKey:   key,
		URL:         s.Store.PublicURL(key),
		ContentType: ct,
		SizeBytes:   f.Size,
	}
	// The limit and position are settled again under the listing lock; the check above only
	// avoids storing objects for a listing that is already full.
	err = s.withListing(ctx, ownerID, listingID, func(tx *gorm.DB) error {
		n, err := s.mediaCount(tx, listingID)
		if err != nil {
			return err
		}
		if n >= MaxMediaPerListing {
			return ErrTooManyMedia
		}
		var maxPos struct{ Max *int }
		if err := tx.Model(&domain.ListingMedia{}).Select("MAX(position) AS max").Where("listing_id = ?", listingID).Scan(&maxPos).Error; err != nil {
			return err
		}
		if maxPos.Max != nil {
			m.Position = *maxPos.Max + 1
		}
		return tx.Create(m).Error
	})
	if err != nil {
		if rmErr := s.Store.Remove(ctx, key); rmErr != nil {
			log.Error().Err(rmErr).Str("key", key).Msg("orphaned media object")
		}
		return nil, err
	}
	log.Info().Uint("listing_id", listingID).Uint("media_id", m.ID).Int64("size", f.Size).Msg("listing media uploaded")
	return m, nil
}

// Delete removes a media row and its object. A failed object removal is logged; the row is gone either way.
func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID, listingID, mediaID uint) error {
	var m domain.ListingMedia
	err := s.withListing(ctx, ownerID, listingID, func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND listing_id = ?", mediaID, listingID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMediaNotFound
			}
			return err
		}
		return tx.Delete(&m).Error
	})
	if err != nil {
		return err
	}
	if err := s.Store.Remove(ctx, m.ObjectKey); err != nil {
		log.Error().Err(err).Str("key", m.ObjectKey).Msg("could not remove media object")
	}
	return nil
}

// withListing runs fn in a transaction holding the listing row lock, after the owner and closed
// checks. A listing whose media changed goes back to moderation before the commit.
func (s *Service) withListing(ctx context.Context, ownerID uuid.UUID, listingID uint, fn func(tx *gorm.DB) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l domain.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, listingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrListingNotFound
			}
			return err
		}
		if err := checkOwned(&l, ownerID); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		from := l.State()
		if from == domain.StatePending {
			return nil
		}
		l.ReturnToModeration()
		if err := tx.Omit(clause.Associations).Save(&l).Error; err != nil {
			return err
		}
		log.Info().Uint("listing_id", l.ID).Str("from", string(from)).Msg("listing media changed: back to moderation")
		return nil
	})
}

func (s *Service) mediaCount(db *gorm.DB, listingID uint) (int64, error) {
	var n int64
	err := db.Model(&domain.ListingMedia{}).Where("listing_id = ?", listingID).Count(&n).Error
	return n, err
}

func (s *Service) ownedListing(ctx context.Context, ownerID uuid.UUID, listingID uint) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.DB.WithContext(ctx).First(&l, listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if err := checkOwned(&l, ownerID); err != nil {
		return nil, err
	}
	return &l, nil
}

func checkOwned(l *domain.Listing, ownerID uuid.UUID) error {
	if !l.OwnedBy(ownerID) {
		return ErrNotOwner
	}
	if l.Sold || l.Archived {
		return ErrListingClosed
	}
	return nil
}
