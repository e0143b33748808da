package store

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"tradepost/internal/domain"
)

type ItemStore struct{ db *sqlx.DB }

func NewItemStore(db *sqlx.DB) *ItemStore { return &ItemStore{db: db} }

// All loads the catalog for the startup snapshot.
func (s *ItemStore) All() ([]domain.Item, error) {
	var out []domain.Item
	err := s.db.Select(&out, `SELECT name, price, quantity, seller_id FROM items ORDER BY name_key`)
	return out, err
}

// SaveItem upserts one catalog record, keyed by the lowercased name.
func (s *ItemStore) SaveItem(it domain.Item) error {
	_, err := s.db.Exec(`
		INSERT INTO items(name_key, name, price, quantity, seller_id, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name_key) DO UPDATE SET
		  price = excluded.price,
		  quantity = excluded.quantity,
		  seller_id = excluded.seller_id,
		  updated_at = CURRENT_TIMESTAMP
	`, strings.ToLower(it.Name), it.Name, it.Price, it.Quantity, it.SellerID)
	return err
}
