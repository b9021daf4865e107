package user

import (
	"context"
	"testing"

	authsvc "carmarket-backend/internal/application/auth"
	policies "carmarket-backend/internal/application/policies/user"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/infrastructure/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingSessions struct{ invalidated []uuid.UUID }

func (r *recordingSessions) InvalidateUser(_ context.Context, id uuid.UUID) error {
	r.invalidated = append(r.invalidated, id)
	return nil
}

func strPtr(s string) *string { return &s }

func setupUsers(t *testing.T) (*Service, *recordingSessions, *gorm.DB) {
	db := dbtest.Open(t)
	sessions := &recordingSessions{}
	return &Service{DB: db, Sessions: sessions}, sessions, db
}

func seedWithPassword(t *testing.T, db *gorm.DB, email, password string) domain.User {
	u := dbtest.SeedUser(t, db, email, "user", true)
	hash, err := authsvc.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, db.Model(&u).Update("password_hash", hash).Error)
	return u
}

func TestViewUser(t *testing.T) {
	svc, _, db := setupUsers(t)
	u := dbtest.SeedUser(t, db, "a@cars.jo", "user", true)

	got, err := svc.ViewUser(context.Background(), u.UserID)
	require.NoError(t, err)
	assert.Equal(t, "a@cars.jo", got.Email)

	_, err = svc.ViewUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateMe(t *testing.T) {
	svc, sessions, db := setupUsers(t)
	u := seedWithPassword(t, db, "a@cars.jo", "old-pass1!")
	ctx := context.Background()

	_, err := svc.UpdateMe(ctx, u.UserID, UpdateMeInput{})
	assert.ErrorIs(t, err, ErrNoUpdateFields)
	_, err = svc.UpdateMe(ctx, u.UserID, UpdateMeInput{Fullname: strPtr("H4x0r")})
	assert.ErrorIs(t, err, ErrInvalidFullname)
	_, err = svc.UpdateMe(ctx, u.UserID, UpdateMeInput{Phone: strPtr("abc")})
	assert.ErrorIs(t, err, ErrInvalidPhone)

	got, err := svc.UpdateMe(ctx, u.UserID, UpdateMeInput{Fullname: strPtr("sami nasser"), Phone: strPtr("0795555555")})
	require.NoError(t, err)
	assert.Equal(t, "Sami Nasser", got.Fullname)
	assert.Equal(t, "0795555555", got.Phone)
	assert.Empty(t, sessions.invalidated)

	_, err = svc.UpdateMe(ctx, u.UserID, UpdateMeInput{Password: strPtr("new-pass1!"), CurrentPassword: "wrong"})
	assert.ErrorIs(t, err, ErrCurrentPasswordInvalid)
	_, err = svc.UpdateMe(ctx, u.UserID, UpdateMeInput{Password: strPtr("weak"), CurrentPassword: "old-pass1!"})
	assert.ErrorIs(t, err, authsvc.ErrInvalidPassword)

	_, err = svc.UpdateMe(ctx, u.UserID, UpdateMeInput{Password: strPtr("new-pass1!"), CurrentPassword: "old-pass1!"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{u.UserID}, sessions.invalidated)

	_, err = authsvc.LoginUser(db, authsvc.LoginInput{Email: "a@cars.jo", Password: "new-pass1!"})
	assert.NoError(t, err)
}

func TestUpdateRoleAndStatus(t *testing.T) {
	svc, sessions, db := setupUsers(t)
	admin := dbtest.SeedUser(t, db, "admin@cars.jo", "admin", true)
	seller := dbtest.SeedUser(t, db, "seller@cars.jo", "user", true)
	ctx := context.Background()

	_, err := svc.UpdateRole(ctx, admin.UserID, admin.UserID, "user")
	assert.ErrorIs(t, err, policies.ErrUsersCannotModifyTheirOwnRole)

	promoted, err := svc.UpdateRole(ctx, admin.UserID, seller.UserID, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", promoted.Role)

	disabled, err := svc.SetActive(ctx, admin.UserID, seller.UserID, false)
	require.NoError(t, err)
	assert.False(t, disabled.Active)
	assert.Equal(t, []uuid.UUID{seller.UserID, seller.UserID}, sessions.invalidated)

	var stored domain.User
	require.NoError(t, db.Where("user_id = ?", seller.UserID).First(&stored).Error)
	assert.False(t, stored.Active)
	assert.Equal(t, "admin", stored.Role)
}

func TestList(t *testing.T) {
	svc, _, db := setupUsers(t)
	for _, email := range []string{"a@cars.jo", "b@cars.jo", "c@cars.jo"} {
		dbtest.SeedUser(t, db, email, "user", true)
	}
	page, err := svc.List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.TotalPages)
}
