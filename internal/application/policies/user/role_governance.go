package policies

import (
	"errors"

	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidateRoleAssignmentParams describes an admin changing another account's role.
type ValidateRoleAssignmentParams struct {
	ActorUserID  uuid.UUID
	TargetUserID uuid.UUID
	TargetRole   string
}

// ValidateRoleAssignment returns the target user when the change is allowed.
func ValidateRoleAssignment(db *gorm.DB, params ValidateRoleAssignmentParams) (*domain.User, error) {
	if !constants.IsValidRole(params.TargetRole) {
		return nil, ErrInvalidRole
	}
	if params.ActorUserID == params.TargetUserID {
		return nil, ErrUsersCannotModifyTheirOwnRole
	}
	target, err := findTarget(db, params.TargetUserID)
	if err != nil {
		return nil, err
	}
	if target.Role == constants.Admin && params.TargetRole != constants.Admin && target.Active {
		if err := ensureAnotherAdmin(db, target.UserID); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// ValidateStatusChangeParams describes an admin activating or deactivating an account.
type ValidateStatusChangeParams struct {
	ActorUserID  uuid.UUID
	TargetUserID uuid.UUID
	Active       bool
}

// ValidateStatusChange returns the target user when the change is allowed.
// Deactivating a seller hides their listings from public search.
func ValidateStatusChange(db *gorm.DB, params ValidateStatusChangeParams) (*domain.User, error) {
	if !params.Active && params.ActorUserID == params.TargetUserID {
		return nil, ErrCannotDeactivateYourself
	}
	target, err := findTarget(db, params.TargetUserID)
	if err != nil {
		return nil, err
	}
	if !params.Active && target.Active && target.Role == constants.Admin {
		if err := ensureAnotherAdmin(db, target.UserID); err != nil {
			return nil, err
		}
	}
	return target, nil
}

func findTarget(db *gorm.DB, id uuid.UUID) (*domain.User, error) {
	var target domain.User
	if err := db.Where("user_id = ?", id).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTargetUserNotFound
		}
		return nil, err
	}
	return &target, nil
}

func ensureAnotherAdmin(db *gorm.DB, except uuid.UUID) error {
	var count int64
	if err := db.Model(&domain.User{}).
		Where("role = ? AND active = ? AND user_id <> ?", constants.Admin, true, except).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrMustHaveAtLeastOneAdmin
	}
	return nil
}
