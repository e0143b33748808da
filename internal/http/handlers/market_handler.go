package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "tradepost/internal/log"
	"tradepost/internal/market"
	"tradepost/internal/validate"
)

type MarketHandler struct {
	Market *market.Market
}

// GET /api/v1/catalog
func (h *MarketHandler) Catalog(c *fiber.Ctx) error {
	return c.JSON(h.Market.Catalog.List())
}

// GET /api/v1/sellers/top?n=5
func (h *MarketHandler) TopSellers(c *fiber.Ctx) error {
	n := c.QueryInt("n", 5)
	if n < 1 || n > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "n out of range"})
	}
	return c.JSON(h.Market.TopSellers(n))
}

// GET /api/v1/accounts/:id/balance
func (h *MarketHandler) Balance(c *fiber.Ctx) error {
	id, ok := validate.AccountID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid account id"})
	}
	bal, err := h.Market.Ledger.Balance(id)
	if err != nil {
		if errors.Is(err, market.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}
		applog.Error("", "api.balance.fail", err, map[string]any{"account": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"account": id, "balance": bal.String()})
}
