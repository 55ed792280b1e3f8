package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/extract"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

type FilingsHandler struct {
	fetcher *extract.Fetcher
}

func NewFilingsHandler(fetcher *extract.Fetcher) *FilingsHandler {
	return &FilingsHandler{fetcher: fetcher}
}

// HandleSearchFilings lists recent SEC filings for a ticker, for locating an
// earnings document to analyze.
func (h *FilingsHandler) HandleSearchFilings(c *fiber.Ctx) error {
	ticker := c.Query("ticker")
	if ticker == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ticker is required",
		})
	}

	formType := c.Query("type", "8-K")
	limit := c.QueryInt("limit", 5)

	filings, err := h.fetcher.SearchFilings(c.Context(), ticker, formType, limit)
	if err != nil {
		logger.Error("Failed to search filings", zap.String("ticker", ticker), zap.Error(err))
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"ticker":  ticker,
		"filings": filings,
	})
}
