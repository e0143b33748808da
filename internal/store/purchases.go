package store

import (
	"time"

	"github.com/jmoiron/sqlx"

	"tradepost/internal/domain"
)

type PurchaseStore struct{ db *sqlx.DB }

func NewPurchaseStore(db *sqlx.DB) *PurchaseStore { return &PurchaseStore{db: db} }

type purchaseRow struct {
	BuyerID   string `db:"buyer_id"`
	ID        int    `db:"purchase_id"`
	ItemName  string `db:"item_name"`
	Quantity  int    `db:"quantity"`
	TotalCost int64  `db:"total_cost"`
	CreatedAt string `db:"created_at"`
	SellerID  string `db:"seller_id"`
	Status    string `db:"status"`
}

// All loads the whole journal for the startup snapshot.
func (s *PurchaseStore) All() ([]domain.Purchase, error) {
	var rows []purchaseRow
	err := s.db.Select(&rows, `
		SELECT buyer_id, purchase_id, item_name, quantity, total_cost, created_at, seller_id, status
		FROM purchases ORDER BY buyer_id, purchase_id
	`)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Purchase, 0, len(rows))
	for _, r := range rows {
		ts, _ := time.Parse(time.RFC3339, r.CreatedAt)
		out = append(out, domain.Purchase{
			ID:        r.ID,
			BuyerID:   r.BuyerID,
			ItemName:  r.ItemName,
			Quantity:  r.Quantity,
			TotalCost: domain.Cents(r.TotalCost),
			CreatedAt: ts,
			SellerID:  r.SellerID,
			Status:    r.Status,
		})
	}
	return out, nil
}

// SavePurchase upserts one journal record.
func (s *PurchaseStore) SavePurchase(p domain.Purchase) error {
	_, err := s.db.Exec(`
		INSERT INTO purchases(buyer_id, purchase_id, item_name, quantity, total_cost, created_at, seller_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(buyer_id, purchase_id) DO UPDATE SET
		  seller_id = excluded.seller_id,
		  status = excluded.status
	`, p.BuyerID, p.ID, p.ItemName, p.Quantity, int64(p.TotalCost),
		p.CreatedAt.UTC().Format(time.RFC3339), p.SellerID, p.Status)
	return err
}
