package store

import (
	"github.com/jmoiron/sqlx"

	"tradepost/internal/domain"
)

type AccountStore struct{ db *sqlx.DB }

func NewAccountStore(db *sqlx.DB) *AccountStore { return &AccountStore{db: db} }

// All loads every account for the startup snapshot.
func (s *AccountStore) All() ([]domain.Account, error) {
	var out []domain.Account
	err := s.db.Select(&out, `SELECT id, owner_id, balance FROM accounts ORDER BY id`)
	return out, err
}

// SaveAccount upserts one account record. The ledger calls this while still
// holding the account lock.
func (s *AccountStore) SaveAccount(a domain.Account) error {
	_, err := s.db.Exec(`
		INSERT INTO accounts(id, owner_id, balance, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
		  owner_id = excluded.owner_id,
		  balance = excluded.balance,
		  updated_at = CURRENT_TIMESTAMP
	`, a.ID, a.OwnerID, a.Balance)
	return err
}
