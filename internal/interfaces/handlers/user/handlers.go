package user

import (
	"errors"

	authsvc "carmarket-backend/internal/application/auth"
	policies "carmarket-backend/internal/application/policies/user"
	usersvc "carmarket-backend/internal/application/user"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/domain/listingfilter"
	"carmarket-backend/internal/middleware"
	"carmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *usersvc.Service
}

func safeUser(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":    u.UserID.String(),
		"fullname":   u.Fullname,
		"email":      u.Email,
		"phone":      u.Phone,
		"role":       u.Role,
		"active":     u.Active,
		"created_at": u.CreatedAt,
	}
}

// GetMe GET /api/v1/users/me
func (h *Handlers) GetMe(c *fiber.Ctx) error {
	claims := middleware.GetUser(c)
	if claims == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	u, err := h.Service.ViewUser(c.UserContext(), claims.UserID)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User retrieved successfully", fiber.Map{"user": safeUser(u)}, nil)
}

// UpdateMe PUT /api/v1/users/me: fullname, phone and password (with current_password).
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	claims := middleware.GetUser(c)
	if claims == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req usersvc.UpdateMeInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.UpdateMe(c.UserContext(), claims.UserID, req)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User updated successfully", fiber.Map{"user": safeUser(u)}, nil)
}

// ListUsers GET /api/v1/admin/users?page=&size=
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	size := c.QueryInt("size", 20)
	if size < 1 || size > 100 {
		return response.Error(c, "size must be between 1 and 100", fiber.StatusBadRequest, nil)
	}
	page := c.QueryInt("page", 0)
	if page < 0 {
		return response.Error(c, "page must not be negative", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.List(c.UserContext(), page, size)
	if err != nil {
		return mapError(c, err)
	}
	users := make([]fiber.Map, 0, len(res.Items))
	for i := range res.Items {
		users = append(users, safeUser(&res.Items[i]))
	}
	return response.Success(c, "Users retrieved successfully", users, fiber.Map{
		"total":       res.Total,
		"page":        res.Page,
		"size":        res.Size,
		"total_pages": res.TotalPages,
	})
}

// UpdateRole PUT /api/v1/admin/users/:userId/role {"role": "admin"|"user"}
func (h *Handlers) UpdateRole(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	target, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return response.Error(c, "Invalid user id", fiber.StatusBadRequest, nil)
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil || req.Role == "" {
		return response.Error(c, "role is required", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.UpdateRole(c.UserContext(), actor.UserID, target, req.Role)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User role updated successfully", fiber.Map{"user": safeUser(u)}, nil)
}

// SetActive PUT /api/v1/admin/users/:userId/active {"active": false}
func (h *Handlers) SetActive(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	target, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return response.Error(c, "Invalid user id", fiber.StatusBadRequest, nil)
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return response.Error(c, "active is required", fiber.StatusBadRequest, nil)
	}
	u, err := h.Service.SetActive(c.UserContext(), actor.UserID, target, *req.Active)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "User status updated successfully", fiber.Map{"user": safeUser(u)}, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usersvc.ErrUserNotFound), errors.Is(err, policies.ErrTargetUserNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, usersvc.ErrNoUpdateFields),
		errors.Is(err, usersvc.ErrInvalidFullname),
		errors.Is(err, usersvc.ErrInvalidPhone),
		errors.Is(err, authsvc.ErrInvalidPassword),
		errors.Is(err, policies.ErrInvalidRole),
		errors.Is(err, listingfilter.ErrPageOutOfRange):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, usersvc.ErrCurrentPasswordInvalid):
		return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
	case errors.Is(err, policies.ErrUsersCannotModifyTheirOwnRole),
		errors.Is(err, policies.ErrCannotDeactivateYourself):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, policies.ErrMustHaveAtLeastOneAdmin):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("user handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}
