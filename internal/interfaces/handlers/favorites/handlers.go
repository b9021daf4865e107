package favorites

import (
	"errors"
	"strconv"

	favsvc "carmarket-backend/internal/application/favorites"
	"carmarket-backend/internal/middleware"
	"carmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *favsvc.Service
}

func listingParam(c *fiber.Ctx) (uint, bool) {
	v, err := strconv.ParseUint(c.Params("listingId"), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// List GET /api/v1/favorites
func (h *Handlers) List(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	favs, err := h.Service.List(c.UserContext(), user.UserID)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Favorites retrieved successfully", favs, nil)
}

// Add POST /api/v1/favorites/:listingId
func (h *Handlers) Add(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := listingParam(c)
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	fav, err := h.Service.Add(c.UserContext(), user.UserID, id)
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Listing added to favorites", fav, nil)
}

// Check GET /api/v1/favorites/:listingId/check
func (h *Handlers) Check(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := listingParam(c)
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	fav, err := h.Service.IsFavorite(c.UserContext(), user.UserID, id)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Favorite status retrieved", fiber.Map{"is_favorite": fav}, nil)
}

// Remove DELETE /api/v1/favorites/:listingId
func (h *Handlers) Remove(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := listingParam(c)
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Remove(c.UserContext(), user.UserID, id); err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Listing removed from favorites", nil, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, favsvc.ErrListingNotFound), errors.Is(err, favsvc.ErrNotFavorited):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, favsvc.ErrAlreadyFavorited):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("favorites handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}
