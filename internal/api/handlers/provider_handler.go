package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/m1dnxt404/finalyze/internal/providers"
)

type ProviderHandler struct{}

func NewProviderHandler() *ProviderHandler {
	return &ProviderHandler{}
}

// HandleListProviders lists the registry plus whether each provider's
// credential is currently set. The key itself is never returned.
func (h *ProviderHandler) HandleListProviders(c *fiber.Ctx) error {
	infos := providers.All()

	out := make([]fiber.Map, 0, len(infos))
	for _, info := range infos {
		out = append(out, fiber.Map{
			"id":            info.ID,
			"name":          info.Name,
			"default_model": info.DefaultModel,
			"env_key":       info.EnvKey,
			"configured":    os.Getenv(info.EnvKey) != "",
		})
	}

	return c.JSON(fiber.Map{
		"providers": out,
	})
}
