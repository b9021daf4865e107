package listings

import "errors"

var (
	ErrListingNotFound        = errors.New("Listing not found")
	ErrNotOwner               = errors.New("Listing does not belong to user")
	ErrInvalidTransition      = errors.New("Listing state does not allow this action")
	ErrNotEditable            = errors.New("Sold or archived listings cannot be edited")
	ErrInvalidRenewalDuration = errors.New("duration_days must be between 1 and 365")
	ErrInvalidInput           = errors.New("Invalid listing")
	ErrReferenceNotFound      = errors.New("Referenced catalog entry not found")
	ErrModelBrandMismatch     = errors.New("Model does not belong to brand")
)
