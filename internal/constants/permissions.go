package constants

const (
	ModerateListings    = "moderate_listings"
	ManageReferenceData = "manage_reference_data"
	ViewAuditLog        = "view_audit_log"
	ManageUsers         = "manage_users"
)
