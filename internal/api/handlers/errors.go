package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/m1dnxt404/finalyze/internal/extract"
	"github.com/m1dnxt404/finalyze/internal/extraction"
	"github.com/m1dnxt404/finalyze/internal/history"
	"github.com/m1dnxt404/finalyze/internal/providers"
)

// statusForError maps pipeline errors onto HTTP statuses: bad input is the
// caller's fault, upstream failures are gateway errors, unparseable model
// output is unprocessable, and everything else is internal.
func statusForError(err error) int {
	var (
		configErr   *providers.ConfigurationError
		providerErr *providers.ProviderError
		extractErr  *extraction.ExtractionError
		fetchErr    *extract.FetchError
		formatErr   *extract.UnsupportedFormatError
	)

	switch {
	case errors.As(err, &configErr), errors.As(err, &formatErr):
		return fiber.StatusBadRequest
	case errors.Is(err, history.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &providerErr), errors.As(err, &fetchErr):
		return fiber.StatusBadGateway
	case errors.As(err, &extractErr):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}
