package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
)

// ErrorLocal holds the error message of a failed request for the request logger.
const ErrorLocal = "request_error"

// StatusFor maps an error to its HTTP status by kind.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch apperror.Kind(err) {
	case apperror.ErrValidation:
		return fiber.StatusBadRequest
	case apperror.ErrNotFound:
		return fiber.StatusNotFound
	case apperror.ErrConflict:
		return fiber.StatusConflict
	case apperror.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case apperror.ErrGateway:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	c.Locals(ErrorLocal, err.Error())
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
}
