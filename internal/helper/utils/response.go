package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// create a generic response function for success
func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{"data": data})
}

// ResponseServiceError writes errors that carry their own status code;
// anything else is reported as an internal error.
func ResponseServiceError(ctx *fiber.Ctx, err error) error {
	var se interface {
		error
		StatusCode() int
	}
	if errors.As(err, &se) {
		return ResponseError(ctx, se.StatusCode(), se.Error())
	}
	return ResponseError(ctx, fiber.StatusInternalServerError, "internal server error")
}
