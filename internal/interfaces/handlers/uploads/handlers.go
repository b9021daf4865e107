package uploads

import (
	"errors"
	"strconv"

	uploadsvc "carmarket-backend/internal/application/uploads"
	"carmarket-backend/internal/middleware"
	"carmarket-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles listing media handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"file_name"`
}

func uintParam(c *fiber.Ctx, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// UploadURL POST /api/v1/listings/:id/media/upload-url: presigned PUT for direct upload.
func (h *Handlers) UploadURL(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, ok := uintParam(c, "id")
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return response.Error(c, "file_name is required", fiber.StatusBadRequest, nil)
	}

	res, err := h.Service.UploadURL(c.UserContext(), user.UserID, listingID, req.FileName)
	if err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}

// Upload POST /api/v1/listings/:id/media: multipart form field "file".
func (h *Handlers) Upload(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, ok := uintParam(c, "id")
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "file is required", fiber.StatusBadRequest, nil)
	}
	f, err := fh.Open()
	if err != nil {
		return response.Error(c, "file could not be read", fiber.StatusBadRequest, nil)
	}
	defer f.Close()

	m, err := h.Service.Upload(c.UserContext(), user.UserID, listingID, uploadsvc.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return mapError(c, err)
	}
	return response.SuccessCreated(c, "Media uploaded", m, nil)
}

// Delete DELETE /api/v1/listings/:id/media/:mediaId
func (h *Handlers) Delete(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	listingID, ok := uintParam(c, "id")
	if !ok {
		return response.Error(c, "Invalid listing id", fiber.StatusBadRequest, nil)
	}
	mediaID, ok := uintParam(c, "mediaId")
	if !ok {
		return response.Error(c, "Invalid media id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.UserContext(), user.UserID, listingID, mediaID); err != nil {
		return mapError(c, err)
	}
	return response.Success(c, "Media deleted", nil, nil)
}

func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, uploadsvc.ErrListingNotFound), errors.Is(err, uploadsvc.ErrMediaNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, uploadsvc.ErrNotOwner):
		return response.Error(c, err.Error(), fiber.StatusForbidden, nil)
	case errors.Is(err, uploadsvc.ErrListingClosed), errors.Is(err, uploadsvc.ErrTooManyMedia):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, uploadsvc.ErrFileNameRequired), errors.Is(err, uploadsvc.ErrEmptyFile):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, uploadsvc.ErrUnsupportedMediaType):
		return response.Error(c, err.Error(), fiber.StatusUnsupportedMediaType, nil)
	case errors.Is(err, uploadsvc.ErrFileTooLarge):
		return response.Error(c, err.Error(), fiber.StatusRequestEntityTooLarge, nil)
	default:
		log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("upload: media request failed")
		return response.Error(c, "Failed to process upload", fiber.StatusInternalServerError, nil)
	}
}
