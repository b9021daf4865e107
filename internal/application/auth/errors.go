package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
	ErrAccountDisabled       = errors.New("Account is disabled")
	ErrEmailTaken            = errors.New("Email already registered")
	ErrInvalidPassword       = errors.New("Invalid password format")
	ErrInvalidFullname       = errors.New("Full name is required and may only contain letters, spaces, hyphens, and apostrophes")
	ErrInvalidPhone          = errors.New("Invalid phone number")
	ErrInvalidToken          = errors.New("Invalid or expired token")
	ErrTokenRevoked          = errors.New("Token has been revoked")
)
