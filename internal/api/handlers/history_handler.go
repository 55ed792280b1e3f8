package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/analyzer"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

type HistoryHandler struct {
	analyzer *analyzer.Analyzer
}

func NewHistoryHandler(a *analyzer.Analyzer) *HistoryHandler {
	return &HistoryHandler{analyzer: a}
}

func (h *HistoryHandler) HandleListHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	summaries, err := h.analyzer.ListHistory(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to list history", zap.Error(err))
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"reports": summaries,
		"count":   len(summaries),
	})
}

func (h *HistoryHandler) HandleGetReport(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "report id is required",
		})
	}

	report, err := h.analyzer.GetReport(c.Context(), id)
	if err != nil {
		logger.Error("Failed to get report", zap.String("id", id), zap.Error(err))
		return errorResponse(c, err)
	}

	return c.JSON(report)
}
