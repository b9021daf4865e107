package user

import (
	"context"
	"errors"
	"strings"

	authsvc "carmarket-backend/internal/application/auth"
	policies "carmarket-backend/internal/application/policies/user"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/listingfilter"
	"carmarket-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound           = errors.New("User not found")
	ErrNoUpdateFields         = errors.New("No valid update fields provided")
	ErrInvalidFullname        = errors.New("Full name contains invalid characters")
	ErrInvalidPhone           = errors.New("Invalid phone number")
	ErrCurrentPasswordInvalid = errors.New("Current password is incorrect")
)

// SessionInvalidator revokes the tokens a user already holds.
type SessionInvalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

// Service holds DB and the session invalidator for account operations.
type Service struct {
	DB       *gorm.DB
	Sessions SessionInvalidator
}

// UpdateMeInput is the body of PUT /users/me. Nil fields are left unchanged.
type UpdateMeInput struct {
	Fullname        *string `json:"fullname"`
	Phone           *string `json:"phone"`
	Password        *string `json:"password"`
	CurrentPassword string  `json:"current_password"`
}

// ViewUser returns user by ID.
func (s *Service) ViewUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateMe changes the caller's profile. A password change needs the current password and
// revokes the caller's other tokens.
func (s *Service) UpdateMe(ctx context.Context, userID uuid.UUID, in UpdateMeInput) (*domain.User, error) {
	u, err := s.ViewUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	upd := map[string]interface{}{}
	if in.Fullname != nil {
		fn := strings.TrimSpace(*in.Fullname)
		if !validation.IsValidFullname(fn) {
			return nil, ErrInvalidFullname
		}
		upd["fullname"] = validation.NormalizeFullname(fn)
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != "" && !validation.IsValidPhone(phone) {
			return nil, ErrInvalidPhone
		}
		upd["phone"] = phone
	}
	passwordChanged := false
	if in.Password != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)); err != nil {
			return nil, ErrCurrentPasswordInvalid
		}
		hash, err := authsvc.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		upd["password_hash"] = hash
		passwordChanged = true
	}
	if len(upd) == 0 {
		return nil, ErrNoUpdateFields
	}

	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", userID).Updates(upd).Error; err != nil {
		return nil, err
	}
	if passwordChanged {
		s.invalidate(ctx, userID)
	}
	return s.ViewUser(ctx, userID)
}

// List returns accounts newest first.
func (s *Service) List(ctx context.Context, page, size int) (domain.Page[domain.User], error) {
	if size <= 0 {
		size = 20
	}
	req, err := listingfilter.PageRequest{Page: page, Size: size}.Normalize()
	if err != nil {
		return domain.Page[domain.User]{}, err
	}
	q := s.DB.WithContext(ctx).Model(&domain.User{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return domain.Page[domain.User]{}, err
	}
	var users []domain.User
	if err := q.Order("created_at DESC").Limit(req.Size).Offset(req.Offset()).Find(&users).Error; err != nil {
		return domain.Page[domain.User]{}, err
	}
	return domain.NewPage(users, total, req.Page, req.Size), nil
}

// UpdateRole changes another account's role and revokes its tokens.
func (s *Service) UpdateRole(ctx context.Context, actorID, targetID uuid.UUID, role string) (*domain.User, error) {
	target, err := policies.ValidateRoleAssignment(s.DB.WithContext(ctx), policies.ValidateRoleAssignmentParams{
		ActorUserID:  actorID,
		TargetUserID: targetID,
		TargetRole:   role,
	})
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(target).Update("role", role).Error; err != nil {
		return nil, err
	}
	target.Role = role
	s.invalidate(ctx, targetID)
	log.Info().Str("actor", actorID.String()).Str("target", targetID.String()).Str("role", role).Msg("user role changed")
	return target, nil
}

// SetActive enables or disables an account. Disabled sellers drop out of public search and lose their tokens.
func (s *Service) SetActive(ctx context.Context, actorID, targetID uuid.UUID, active bool) (*domain.User, error) {
	target, err := policies.ValidateStatusChange(s.DB.WithContext(ctx), policies.ValidateStatusChangeParams{
		ActorUserID:  actorID,
		TargetUserID: targetID,
		Active:       active,
	})
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(target).Update("active", active).Error; err != nil {
		return nil, err
	}
	target.Active = active
	if !active {
		s.invalidate(ctx, targetID)
	}
	log.Info().Str("actor", actorID.String()).Str("target", targetID.String()).Bool("active", active).Msg("user status changed")
	return target, nil
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.Sessions == nil {
		return
	}
	if err := s.Sessions.InvalidateUser(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("could not revoke user tokens")
	}
}
