package reference

import (
	"errors"
	"strconv"

	refsvc "carmarket-backend/internal/application/reference"
	"carmarket-backend/internal/middleware"
	"carmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *refsvc.Service
}

func idParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func list[T any](c *fiber.Ctx, items []T, err error) error {
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Retrieved successfully", items, nil)
}

func (h *Handlers) Brands(c *fiber.Ctx) error {
	items, err := h.Service.Brands(c.UserContext())
	return list(c, items, err)
}

// Models GET /api/v1/reference/brands/:brandId/models
func (h *Handlers) Models(c *fiber.Ctx) error {
	id, ok := idParam(c, "brandId")
	if !ok {
		return response.Error(c, "Invalid brand id", fiber.StatusBadRequest, nil)
	}
	items, err := h.Service.Models(c.UserContext(), id)
	return list(c, items, err)
}

// Trims GET /api/v1/reference/models/:modelId/trims
func (h *Handlers) Trims(c *fiber.Ctx) error {
	id, ok := idParam(c, "modelId")
	if !ok {
		return response.Error(c, "Invalid model id", fiber.StatusBadRequest, nil)
	}
	items, err := h.Service.Trims(c.UserContext(), id)
	return list(c, items, err)
}

func (h *Handlers) BodyStyles(c *fiber.Ctx) error {
	items, err := h.Service.BodyStyles(c.UserContext())
	return list(c, items, err)
}

func (h *Handlers) Transmissions(c *fiber.Ctx) error {
	items, err := h.Service.Transmissions(c.UserContext())
	return list(c, items, err)
}

func (h *Handlers) FuelTypes(c *fiber.Ctx) error {
	items, err := h.Service.FuelTypes(c.UserContext())
	return list(c, items, err)
}

func (h *Handlers) SellerTypes(c *fiber.Ctx) error {
	items, err := h.Service.SellerTypes(c.UserContext())
	return list(c, items, err)
}

func (h *Handlers) Countries(c *fiber.Ctx) error {
	items, err := h.Service.Countries(c.UserContext())
	return list(c, items, err)
}

// Governorates GET /api/v1/reference/countries/:countryId/governorates
func (h *Handlers) Governorates(c *fiber.Ctx) error {
	id, ok := idParam(c, "countryId")
	if !ok {
		return response.Error(c, "Invalid country id", fiber.StatusBadRequest, nil)
	}
	items, err := h.Service.Governorates(c.UserContext(), id)
	return list(c, items, err)
}

// CreateBrand POST /api/v1/reference/brands
func (h *Handlers) CreateBrand(c *fiber.Ctx) error {
	var req struct {
		refsvc.NameInput
		LogoURL string `json:"logo_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	b, err := h.Service.CreateBrand(c.UserContext(), req.NameInput, req.LogoURL)
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Brand created successfully", b, nil)
}

// CreateModel POST /api/v1/reference/brands/:brandId/models
func (h *Handlers) CreateModel(c *fiber.Ctx) error {
	id, ok := idParam(c, "brandId")
	if !ok {
		return response.Error(c, "Invalid brand id", fiber.StatusBadRequest, nil)
	}
	var req refsvc.NameInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	m, err := h.Service.CreateModel(c.UserContext(), id, req)
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Model created successfully", m, nil)
}

// CreateGovernorate POST /api/v1/reference/countries/:countryId/governorates
func (h *Handlers) CreateGovernorate(c *fiber.Ctx) error {
	id, ok := idParam(c, "countryId")
	if !ok {
		return response.Error(c, "Invalid country id", fiber.StatusBadRequest, nil)
	}
	var req refsvc.NameInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	g, err := h.Service.CreateGovernorate(c.UserContext(), id, req)
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Governorate created successfully", g, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, refsvc.ErrBrandNotFound), errors.Is(err, refsvc.ErrModelNotFound), errors.Is(err, refsvc.ErrCountryNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, refsvc.ErrNameRequired):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, refsvc.ErrDuplicateName):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("reference handler failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}
