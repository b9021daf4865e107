package listings

import (
	"errors"
	"strconv"

	"carmarket-backend/internal/application/listingevents"
	listsvc "carmarket-backend/internal/application/listings"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/listingfilter"
	"carmarket-backend/internal/middleware"
	"carmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *listsvc.Service
	Events  *listingevents.Service
}

// listingView adds the derived lifecycle state to the stored listing.
type listingView struct {
	*domain.Listing
	State domain.ListingState `json:"state"`
}

func view(l *domain.Listing) listingView {
	return listingView{Listing: l, State: l.State()}
}

func pageResponse(c *fiber.Ctx, message string, p domain.Page[domain.Listing]) error {
	items := make([]listingView, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, view(&p.Items[i]))
	}
	return response.Success(c, message, items, fiber.Map{
		"total":       p.Total,
		"page":        p.Page,
		"size":        p.Size,
		"total_pages": p.TotalPages,
	})
}

func listingID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func sellerActor(c *fiber.Ctx) (listsvc.Actor, bool) {
	claims := middleware.GetUser(c)
	if claims == nil {
		return listsvc.Actor{}, false
	}
	return listsvc.Actor{UserID: claims.UserID}, true
}

// Search GET /api/v1/listings: public search over live listings.
func (h *Handlers) Search(c *fiber.Ctx) error {
	f, err := ParseListingFilter(c)
	if err != nil {
		return filterError(c, err)
	}
	page, err := h.Service.Search(c.UserContext(), f)
	if err != nil {
		return mapError(c, err)
	}
	return pageResponse(c, "Listings retrieved successfully", page)
}

// Get GET /api/v1/listings/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	l, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Listing retrieved successfully", view(l), nil)
}

// Mine GET /api/v1/listings/mine?page=&size=
func (h *Handlers) Mine(c *fiber.Ctx) error {
	actor, ok := sellerActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	size := c.QueryInt("size", 10)
	page := c.QueryInt("page", 0)
	if size < 1 || size > 100 || page < 0 {
		return response.Error(c, "Invalid pagination", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.Mine(c.UserContext(), actor.UserID, page, size)
	if err != nil {
		return mapError(c, err)
	}
	return pageResponse(c, "Listings retrieved successfully", res)
}

// GetMine GET /api/v1/listings/mine/:id: the seller's own listing in any state.
func (h *Handlers) GetMine(c *fiber.Ctx) error {
	actor, ok := sellerActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	l, err := h.Service.GetForActor(c.UserContext(), actor, id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Listing retrieved successfully", view(l), nil)
}

// Create POST /api/v1/listings
func (h *Handlers) Create(c *fiber.Ctx) error {
	actor, ok := sellerActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in listsvc.ListingInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	l, err := h.Service.Create(c.UserContext(), actor.UserID, in)
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Listing created successfully", view(l), nil)
}

// Update PUT /api/v1/listings/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	actor, ok := sellerActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := listingID(c)
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	var in listsvc.ListingInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	l, err := h.Service.Update(c.UserContext(), actor.UserID, id, in)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Listing updated successfully", view(l), nil)
}

type transitionFunc func(h *Handlers, c *fiber.Ctx, actor listsvc.Actor, id uint) (*domain.Listing, error)

func (h *Handlers) transition(message string, fn transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := sellerActor(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		id, ok := listingID(c)
		if !ok {
			return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
		}
		l, err := fn(h, c, actor, id)
		if err != nil {
			return mapError(c, err)
		}
		return response.Success(c, message, view(l), nil)
	}
}

// Pause POST /api/v1/listings/:id/pause
func (h *Handlers) Pause() fiber.Handler {
	return h.transition("Listing paused", func(h *Handlers, c *fiber.Ctx, a listsvc.Actor, id uint) (*domain.Listing, error) {
		return h.Service.Pause(c.UserContext(), a, id)
	})
}

// Resume POST /api/v1/listings/:id/resume
func (h *Handlers) Resume() fiber.Handler {
	return h.transition("Listing resumed", func(h *Handlers, c *fiber.Ctx, a listsvc.Actor, id uint) (*domain.Listing, error) {
		return h.Service.Resume(c.UserContext(), a, id)
	})
}

// MarkSold POST /api/v1/listings/:id/sold
func (h *Handlers) MarkSold() fiber.Handler {
	return h.transition("Listing marked as sold", func(h *Handlers, c *fiber.Ctx, a listsvc.Actor, id uint) (*domain.Listing, error) {
		return h.Service.MarkAsSold(c.UserContext(), a, id)
	})
}

// Archive POST /api/v1/listings/:id/archive
func (h *Handlers) Archive() fiber.Handler {
	return h.transition("Listing archived", func(h *Handlers, c *fiber.Ctx, a listsvc.Actor, id uint) (*domain.Listing, error) {
		return h.Service.Archive(c.UserContext(), a, id)
	})
}

type renewRequest struct {
	DurationDays int `json:"duration_days"`
}

// Renew POST /api/v1/listings/:id/renew {"duration_days": 30}
func (h *Handlers) Renew() fiber.Handler {
	return h.transition("Listing renewed", func(h *Handlers, c *fiber.Ctx, a listsvc.Actor, id uint) (*domain.Listing, error) {
		var req renewRequest
		if err := c.BodyParser(&req); err != nil {
			return nil, listsvc.ErrInvalidRenewalDuration
		}
		return h.Service.Renew(c.UserContext(), a, id, req.DurationDays)
	})
}

func filterError(c *fiber.Ctx, err error) error {
	var fe *FilterError
	if errors.As(err, &fe) {
		return response.Error(c, "Invalid search parameters", fiber.StatusBadRequest, fe.Fields)
	}
	return response.Error(c, "Invalid search parameters", fiber.StatusBadRequest, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, listsvc.ErrListingNotFound), errors.Is(err, listingevents.ErrListingNotFound):
		return response.Error(c, "Listing not found", fiber.StatusNotFound, nil)
	case errors.Is(err, listsvc.ErrNotOwner):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, listsvc.ErrInvalidTransition), errors.Is(err, listsvc.ErrNotEditable):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, listsvc.ErrInvalidInput),
		errors.Is(err, listsvc.ErrReferenceNotFound),
		errors.Is(err, listsvc.ErrModelBrandMismatch),
		errors.Is(err, listsvc.ErrInvalidRenewalDuration),
		errors.Is(err, listingfilter.ErrPageOutOfRange):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("listing handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}
