// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessBody is {status, message, data, metadata}.
type SuccessBody struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Data     any    `json:"data"`
	Metadata any    `json:"metadata,omitempty"`
}

// ErrorBody is {status, error{message, statusCode, details}}.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

func orEmpty(v any) any {
	if v == nil {
		return fiber.Map{}
	}
	return v
}

func success(c *fiber.Ctx, code int, message string, data, metadata any) error {
	return c.Status(code).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: orEmpty(metadata),
	})
}

// Success sends 200 with data.
func Success(c *fiber.Ctx, message string, data any, metadata any) error {
	return success(c, fiber.StatusOK, message, data, metadata)
}

// SuccessCreated sends 201 with data.
func SuccessCreated(c *fiber.Ctx, message string, data any, metadata any) error {
	return success(c, fiber.StatusCreated, message, data, metadata)
}

// Error sends statusCode with message and optional details (field errors, for instance).
func Error(c *fiber.Ctx, message string, statusCode int, details any) error {
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    orEmpty(details),
		},
	})
}

// Unauthorized sends 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}
