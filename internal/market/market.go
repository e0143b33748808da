package market

import (
	"fmt"

	"tradepost/internal/domain"
	applog "tradepost/internal/log"
)

// Directory resolves a user id to the user's account id. Users themselves
// live outside the core; this is all it needs to know about them.
type Directory interface {
	AccountOf(userID string) (int, error)
}

// Outcome of a seller's complete action.
type Outcome string

const (
	OutcomeDelivered   Outcome = "delivered"
	OutcomeUnfulfilled Outcome = "unfulfilled"
)

// ErrInvalidStatus rejects an unknown completion outcome.
var ErrInvalidStatus = fmt.Errorf("outcome must be %q or %q", OutcomeDelivered, OutcomeUnfulfilled)

// Market drives a purchase through pending -> fulfilled/unfulfilled,
// coordinating the ledger, catalog and journal.
type Market struct {
	Ledger  *Ledger
	Catalog *Catalog
	Journal *Journal
	Dir     Directory
}

func NewMarket(l *Ledger, c *Catalog, j *Journal, dir Directory) *Market {
	return &Market{Ledger: l, Catalog: c, Journal: j, Dir: dir}
}

// Buy reserves stock, then funds, then records a pending purchase. Stock and
// funds are distinct resources with no shared transaction, so a failed fund
// reservation is compensated by restocking before the error is returned.
func (m *Market) Buy(buyer *domain.User, itemName string, qty int) (domain.Purchase, error) {
	if qty <= 0 {
		return domain.Purchase{}, ErrInvalidQuantity
	}
	it, err := m.Catalog.Reserve(itemName, qty)
	if err != nil {
		return domain.Purchase{}, err
	}
	total := it.Price.Mul(qty)
	if err := m.Ledger.Reserve(buyer.AccountID, total); err != nil {
		if rerr := m.Catalog.Restock(it.Name, qty); rerr != nil {
			applog.Error("", "purchase.compensate.fail", rerr, map[string]any{
				"item": it.Name, "qty": qty, "buyer": buyer.ID,
			})
		}
		return domain.Purchase{}, err
	}
	p, err := m.Journal.Append(buyer.ID, it.Name, qty, total)
	if err != nil {
		return p, err
	}
	applog.Audit("", "purchase.initiated", map[string]any{
		"buyer": buyer.ID, "item": it.Name, "qty": qty, "purchase": p.ID, "total": total.String(),
	})
	return p, nil
}

// Complete settles a pending purchase. Delivered pays the acting seller out
// of the reserved funds; unfulfilled refunds the buyer and restores stock.
// A purchase in a terminal state is rejected without side effects.
func (m *Market) Complete(buyerID string, purchaseID int, outcome Outcome, seller *domain.User) (domain.Purchase, error) {
	if outcome != OutcomeDelivered && outcome != OutcomeUnfulfilled {
		return domain.Purchase{}, ErrInvalidStatus
	}
	p, err := m.Journal.Transition(buyerID, purchaseID, func(p *domain.Purchase) error {
		if p.Terminal() {
			return fmt.Errorf("purchase %s/%d is %s: %w", p.BuyerID, p.ID, p.Status, ErrAlreadyProcessed)
		}
		switch outcome {
		case OutcomeDelivered:
			if _, err := m.Ledger.Deposit(seller.AccountID, p.TotalCost); err != nil {
				return err
			}
			p.Status = domain.StatusFulfilled
			p.SellerID = seller.ID
		case OutcomeUnfulfilled:
			acctID, err := m.Dir.AccountOf(p.BuyerID)
			if err != nil {
				return err
			}
			if err := m.Ledger.Release(acctID, p.TotalCost); err != nil {
				return err
			}
			// The refund must land even if the listing has since vanished.
			if err := m.Catalog.Restock(p.ItemName, p.Quantity); err != nil {
				applog.Error("", "purchase.restock.fail", err, map[string]any{
					"item": p.ItemName, "qty": p.Quantity, "buyer": p.BuyerID,
				})
			}
			p.Status = domain.StatusUnfulfilled
			p.SellerID = domain.SellerUnfulfilled
		}
		return nil
	})
	if err != nil {
		return p, err
	}
	applog.Audit("", "purchase.completed", map[string]any{
		"buyer": buyerID, "purchase": purchaseID, "outcome": string(outcome), "seller": seller.ID,
	})
	return p, nil
}

// TopSellers returns the n sellers with the most fulfilled purchases.
func (m *Market) TopSellers(n int) []SellerCount {
	return m.Journal.TopSellers(n)
}
