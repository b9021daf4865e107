package listings

import (
	listsvc "carmarket-backend/internal/application/listings"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/middleware"
	"carmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

func adminActor(c *fiber.Ctx) listsvc.Actor {
	a := listsvc.Actor{Admin: true}
	if claims := middleware.GetUser(c); claims != nil {
		a.UserID = claims.UserID
	}
	return a
}

// AdminSearch GET /api/v1/admin/listings: same filter, no visibility base.
func (h *Handlers) AdminSearch(c *fiber.Ctx) error {
	f, err := ParseListingFilter(c)
	if err != nil {
		return filterError(c, err)
	}
	page, err := h.Service.AdminSearch(c.UserContext(), f)
	if err != nil {
		return mapError(c, err)
	}
	return pageResponse(c, "Listings retrieved successfully", page)
}

// AdminGet GET /api/v1/admin/listings/:id
func (h *Handlers) AdminGet(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	l, err := h.Service.GetForActor(c.UserContext(), adminActor(c), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Listing retrieved successfully", view(l), nil)
}

func (h *Handlers) adminTransition(message string, fn func(c *fiber.Ctx, id uint) (*domain.Listing, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := listingID(c)
		if !ok {
			return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
		}
		l, err := fn(c, id)
		if err != nil {
			return mapError(c, err)
		}
		return response.Success(c, message, view(l), nil)
	}
}

// Approve POST /api/v1/admin/listings/:id/approve
func (h *Handlers) Approve() fiber.Handler {
	return h.adminTransition("Listing approved", func(c *fiber.Ctx, id uint) (*domain.Listing, error) {
		return h.Service.Approve(c.UserContext(), id)
	})
}

// AdminArchive POST /api/v1/admin/listings/:id/archive
func (h *Handlers) AdminArchive() fiber.Handler {
	return h.adminTransition("Listing archived", func(c *fiber.Ctx, id uint) (*domain.Listing, error) {
		return h.Service.Archive(c.UserContext(), adminActor(c), id)
	})
}

// AdminExpire POST /api/v1/admin/listings/:id/expire
func (h *Handlers) AdminExpire() fiber.Handler {
	return h.adminTransition("Listing expired", func(c *fiber.Ctx, id uint) (*domain.Listing, error) {
		return h.Service.Expire(c.UserContext(), adminActor(c), id)
	})
}

// AdminMarkSold POST /api/v1/admin/listings/:id/sold
func (h *Handlers) AdminMarkSold() fiber.Handler {
	return h.adminTransition("Listing marked as sold", func(c *fiber.Ctx, id uint) (*domain.Listing, error) {
		return h.Service.MarkAsSold(c.UserContext(), adminActor(c), id)
	})
}

// ExpireDue POST /api/v1/admin/listings/expire-due: runs the expiry sweep now.
func (h *Handlers) ExpireDue(c *fiber.Ctx) error {
	n, err := h.Service.ExpireDue(c.UserContext())
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Expiry sweep completed", fiber.Map{"expired": n}, nil)
}

// ListingEvents GET /api/v1/admin/listings/:id/events: the audit trail.
func (h *Handlers) ListingEvents(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	rows, err := h.Events.Events(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	if rows == nil {
		rows = []domain.ListingAuditEvent{}
	}
	return response.Success(c, "Listing events retrieved successfully", rows, nil)
}
