package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/sanobery/recipe-be/internal/service"
	"github.com/sanobery/recipe-be/internal/storage"
)

// writeError maps service errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a generic 500.
func writeError(c *fiber.Ctx, err error) error {
	var weak *service.WeakPasswordError

	switch {
	case errors.As(err, &weak):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": weak.Error()})

	case errors.Is(err, service.ErrInvalidPagination),
		errors.Is(err, service.ErrInvalidBucket),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidQuery),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, storage.ErrImageTooLarge),
		errors.Is(err, storage.ErrUnsupportedImage):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrTokenInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrSelfRatingForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrRecipeNotFound),
		errors.Is(err, service.ErrNoRecipesMatch),
		errors.Is(err, service.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrDuplicateRating),
		errors.Is(err, service.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	slog.ErrorContext(c.UserContext(), "Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// errorHandler renders errors returned from handlers and middleware as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	var e *fiber.Error
	if errors.As(err, &e) {
		return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
	}
	return writeError(c, err)
}
