package auth

import (
	"errors"

	authsvc "carmarket-backend/internal/application/auth"
	"carmarket-backend/internal/domain"
	"carmarket-backend/internal/middleware"
	"carmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service *authsvc.Service
}

func userBody(u *domain.User) fiber.Map {
	return fiber.Map{
		"user_id":  u.UserID.String(),
		"fullname": u.Fullname,
		"email":    u.Email,
		"phone":    u.Phone,
		"role":     u.Role,
	}
}

// Register POST /api/v1/auth/register: create an account and return a token.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req authsvc.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	user, token, err := h.Service.Register(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailPasswordRequired),
			errors.Is(err, authsvc.ErrInvalidEmail),
			errors.Is(err, authsvc.ErrInvalidPassword),
			errors.Is(err, authsvc.ErrInvalidFullname),
			errors.Is(err, authsvc.ErrInvalidPhone):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrEmailTaken):
			return response.Error(c, err.Error(), fiber.StatusConflict, nil)
		default:
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("auth: register failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	return response.SuccessCreated(c, "Registration successful", fiber.Map{"user": userBody(user), "token": token}, nil)
}

// Login POST /api/v1/auth/login: check credentials and return a bearer token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}
	if req.Email == "" || req.Password == "" {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}

	user, token, err := h.Service.Login(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailPasswordRequired):
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case errors.Is(err, authsvc.ErrInvalidEmail), errors.Is(err, authsvc.ErrIncorrectPassword):
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		case errors.Is(err, authsvc.ErrAccountDisabled):
			return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
		default:
			log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("auth: login failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}
	return response.Success(c, "Login successful", fiber.Map{"user": userBody(user), "token": token}, nil)
}

// Me GET /api/v1/auth/me: the caller as carried by the token.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout POST /api/v1/auth/logout: revoke the presented token.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	claims := middleware.GetUser(c)
	if claims == nil {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	if err := h.Service.Logout(c.UserContext(), claims); err != nil {
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("auth: logout failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Logged out successfully", nil, nil)
}
