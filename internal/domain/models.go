package domain

import "time"

// Purchase lifecycle statuses. A purchase leaves StatusPending exactly once.
const (
	StatusPending     = "pending"
	StatusFulfilled   = "fulfilled"
	StatusUnfulfilled = "unfulfilled"
)

// SellerID placeholder values used while a purchase is not fulfilled.
const (
	SellerPending     = "pending"
	SellerUnfulfilled = "unfulfilled"
)

type Account struct {
	ID      int    `db:"id" json:"id"`
	OwnerID string `db:"owner_id" json:"owner_id"`
	Balance Cents  `db:"balance" json:"balance"`
}

type Item struct {
	Name     string `db:"name" json:"name"`
	Price    Cents  `db:"price" json:"price"`
	Quantity int    `db:"quantity" json:"quantity"`
	SellerID string `db:"seller_id" json:"seller_id"`
}

type Purchase struct {
	ID        int       `db:"purchase_id" json:"id"`
	BuyerID   string    `db:"buyer_id" json:"buyer_id"`
	ItemName  string    `db:"item_name" json:"item_name"`
	Quantity  int       `db:"quantity" json:"quantity"`
	TotalCost Cents     `db:"total_cost" json:"total_cost"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	SellerID  string    `db:"seller_id" json:"seller_id"`
	Status    string    `db:"status" json:"status"`
}

// Terminal reports whether the purchase has left the pending state.
func (p Purchase) Terminal() bool {
	return p.Status != StatusPending
}
