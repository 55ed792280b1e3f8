package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/analyzer"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

type QueryHandler struct {
	analyzer        *analyzer.Analyzer
	defaultProvider string
}

func NewQueryHandler(a *analyzer.Analyzer, defaultProvider string) *QueryHandler {
	return &QueryHandler{
		analyzer:        a,
		defaultProvider: defaultProvider,
	}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var req struct {
		Query    string `json:"query"`
		Company  string `json:"company"`
		Provider string `json:"provider"`
		Model    string `json:"model"`
		Limit    int    `json:"limit"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required",
		})
	}

	provider := req.Provider
	if provider == "" {
		provider = h.defaultProvider
	}

	result, err := h.analyzer.Query(c.Context(), analyzer.QueryRequest{
		Provider: provider,
		Model:    req.Model,
		Question: req.Query,
		Company:  req.Company,
		Limit:    req.Limit,
	})
	if err != nil {
		logger.Error("Failed to answer query", zap.Error(err))
		return errorResponse(c, err)
	}

	return c.JSON(result)
}
