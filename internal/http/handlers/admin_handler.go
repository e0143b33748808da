package handlers

import (
	"github.com/gofiber/fiber/v2"

	"tradepost/internal/market"
)

type AdminHandler struct {
	Market *market.Market
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	return c.Render("dashboard", fiber.Map{
		"Items":   h.Market.Catalog.List(),
		"Pending": h.Market.Journal.PendingAll(),
		"Top":     h.Market.TopSellers(5),
	})
}
