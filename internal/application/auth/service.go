package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/pkg/constants"
	"carmarket-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput for the registration request body.
type RegisterInput struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// SessionUser is the current user as returned by /me.
type SessionUser struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Service registers users, issues tokens and keeps the revocation list.
// Revocations may be nil, in which case logout is a no-op and tokens live until they expire.
type Service struct {
	DB          *gorm.DB
	Tokens      *Tokens
	Revocations *Revocations
}

// LoginUser finds user by email and verifies password.
func LoginUser(db *gorm.DB, input LoginInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := db.Where("email = ?", validation.NormalizeEmail(input.Email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &u, nil
}

// HashPassword validates and hashes a new password.
func HashPassword(password string) (string, error) {
	if !validation.IsValidPassword(password) {
		return "", ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates an active user with the user role and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	email := validation.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, "", ErrEmailPasswordRequired
	}
	if !validation.IsValidEmail(email) {
		return nil, "", ErrInvalidEmail
	}
	fullname := strings.TrimSpace(in.Fullname)
	if !validation.IsValidFullname(fullname) {
		return nil, "", ErrInvalidFullname
	}
	phone := strings.TrimSpace(in.Phone)
	if phone != "" && !validation.IsValidPhone(phone) {
		return nil, "", ErrInvalidPhone
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", ErrEmailTaken
	}

	u := &domain.User{
		UserID:       uuid.New(),
		Fullname:     validation.NormalizeFullname(fullname),
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Role:         constants.User,
		Active:       true,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, "", err
	}
	token, _, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	log.Info().Str("user_id", u.UserID.String()).Msg("user registered")
	return u, token, nil
}

// Login checks credentials and issues a token. Deactivated accounts cannot sign in.
func (s *Service) Login(ctx context.Context, in LoginInput) (*domain.User, string, error) {
	u, err := LoginUser(s.DB.WithContext(ctx), in)
	if err != nil {
		return nil, "", err
	}
	if !u.Active {
		return nil, "", ErrAccountDisabled
	}
	token, _, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate parses raw and rejects revoked tokens.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Claims, error) {
	claims, err := s.Tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	if s.Revocations != nil {
		if err := s.Revocations.Check(ctx, claims); err != nil {
			return nil, err
		}
	}
	return claims, nil
}

// Logout revokes the presented token until it would have expired.
func (s *Service) Logout(ctx context.Context, c *Claims) error {
	if s.Revocations == nil || c == nil {
		return nil
	}
	var ttl time.Duration
	if c.ExpiresAt != nil {
		ttl = c.ExpiresAt.Time.Sub(s.Tokens.now())
	}
	return s.Revocations.RevokeToken(ctx, c.ID, ttl)
}

// InvalidateUser revokes every token issued to userID so far. Used after role or status changes.
func (s *Service) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	if s.Revocations == nil {
		return nil
	}
	return s.Revocations.RevokeUser(ctx, userID, s.Tokens.now(), s.Tokens.TTL)
}

// VerifyUser converts the authenticated claims into the /me shape.
func VerifyUser(user any) (*SessionUser, error) {
	c, ok := user.(*Claims)
	if !ok || c == nil || c.UserID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	return &SessionUser{
		UserID:   c.UserID.String(),
		Fullname: c.Fullname,
		Email:    c.Email,
		Role:     c.Role,
	}, nil
}
