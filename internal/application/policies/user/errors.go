package policies

import "errors"

var (
	ErrInvalidRole                   = errors.New("Invalid role")
	ErrTargetUserNotFound            = errors.New("Target user not found")
	ErrUsersCannotModifyTheirOwnRole = errors.New("Users cannot modify their own role")
	ErrCannotDeactivateYourself      = errors.New("You cannot deactivate your own account")
	ErrMustHaveAtLeastOneAdmin       = errors.New("There must be at least one active admin")
)
