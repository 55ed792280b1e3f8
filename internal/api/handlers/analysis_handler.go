package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/analyzer"
	"github.com/m1dnxt404/finalyze/internal/extract"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

type AnalysisHandler struct {
	analyzer        *analyzer.Analyzer
	fetcher         *extract.Fetcher
	defaultProvider string
}

func NewAnalysisHandler(a *analyzer.Analyzer, fetcher *extract.Fetcher, defaultProvider string) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:        a,
		fetcher:         fetcher,
		defaultProvider: defaultProvider,
	}
}

func (h *AnalysisHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req struct {
		EarningsText string `json:"earnings_text"`
		ReportURL    string `json:"report_url"`
		CompanyName  string `json:"company_name"`
		Provider     string `json:"provider"`
		Model        string `json:"model"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.EarningsText == "" && req.ReportURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "earnings_text or report_url is required",
		})
	}

	text := req.EarningsText
	if text == "" {
		fetched, err := h.fetcher.FetchURL(c.Context(), req.ReportURL)
		if err != nil {
			logger.Error("Failed to fetch report document", zap.String("url", req.ReportURL), zap.Error(err))
			return errorResponse(c, err)
		}
		text = extract.FocusEarningsSection(fetched)
	}

	resp, err := h.analyzer.Analyze(c.Context(), analyzer.AnalyzeRequest{
		Provider:   h.provider(req.Provider),
		Model:      req.Model,
		ReportText: text,
		Company:    req.CompanyName,
	})
	if err != nil {
		logger.Error("Failed to analyze report", zap.Error(err))
		return errorResponse(c, err)
	}

	return c.JSON(resp)
}

func (h *AnalysisHandler) HandleCompare(c *fiber.Ctx) error {
	var req struct {
		CurrentReport  string `json:"current_report"`
		PreviousReport string `json:"previous_report"`
		CompanyName    string `json:"company_name"`
		Provider       string `json:"provider"`
		Model          string `json:"model"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.CurrentReport == "" || req.PreviousReport == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "current_report and previous_report are required",
		})
	}

	comparison, err := h.analyzer.Compare(c.Context(), analyzer.CompareRequest{
		Provider:     h.provider(req.Provider),
		Model:        req.Model,
		CurrentText:  req.CurrentReport,
		PreviousText: req.PreviousReport,
		Company:      req.CompanyName,
	})
	if err != nil {
		logger.Error("Failed to compare reports", zap.Error(err))
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"comparison": comparison,
	})
}

func (h *AnalysisHandler) provider(requested string) string {
	if requested != "" {
		return requested
	}
	return h.defaultProvider
}
