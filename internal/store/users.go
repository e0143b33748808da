package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"tradepost/internal/domain"
	"tradepost/internal/market"
)

type UserStore struct{ db *sqlx.DB }

func NewUserStore(db *sqlx.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := s.db.Get(&u, `SELECT id, name, password_hash, role, account_id FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AccountOf implements the core's user directory lookup.
func (s *UserStore) AccountOf(userID string) (int, error) {
	var id int
	err := s.db.Get(&id, `SELECT account_id FROM users WHERE id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("user %s: %w", userID, market.ErrAccountNotFound)
	}
	return id, nil
}

func (s *UserStore) Save(u domain.User) error {
	_, err := s.db.Exec(`
		INSERT INTO users(id, name, password_hash, role, account_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  password_hash = excluded.password_hash,
		  role = excluded.role,
		  account_id = excluded.account_id
	`, u.ID, u.Name, u.Hash, u.Role, u.AccountID)
	return err
}
