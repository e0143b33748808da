package handlers

import (
	"tradepost/internal/market"
)

type Deps struct {
	MarketHandler *MarketHandler
	AdminHandler  *AdminHandler
}

func NewDeps(m *market.Market) *Deps {
	return &Deps{
		MarketHandler: &MarketHandler{Market: m},
		AdminHandler:  &AdminHandler{Market: m},
	}
}
