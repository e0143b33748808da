package store

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// single writer; also keeps a :memory: database on one connection
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed demo users/accounts/items if the DB is empty (idempotent)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Users (credentials consumed only at the session boundary)
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('customer','seller')),
  account_id INTEGER NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Accounts
CREATE TABLE IF NOT EXISTS accounts(
  id INTEGER PRIMARY KEY,
  owner_id TEXT NOT NULL,
  balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_accounts_owner ON accounts(owner_id);

-- Items (name is the case-insensitive catalog key)
CREATE TABLE IF NOT EXISTS items(
  name_key TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  price INTEGER NOT NULL CHECK (price > 0),
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  seller_id TEXT NOT NULL,
  updated_at TEXT
);

-- Purchases (ids are sequential per buyer)
CREATE TABLE IF NOT EXISTS purchases(
  buyer_id TEXT NOT NULL,
  purchase_id INTEGER NOT NULL,
  item_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  total_cost INTEGER NOT NULL,
  created_at TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('pending','fulfilled','unfulfilled')),
  PRIMARY KEY(buyer_id, purchase_id)
);
CREATE INDEX IF NOT EXISTS idx_purchases_status ON purchases(status);
`
	_, err := db.Exec(schema)
	return err
}

// seedIfEmpty provisions the sample accounts the simulator ships with,
// matching users to accounts so every login has a funded balance.
func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo users/accounts/items")

	type u struct {
		ID, Name, Role, Hash string
		Account              int
	}
	mk := func(id, name, role, raw string, account int) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Name: name, Role: role, Hash: string(h), Account: account}
	}
	users := []u{
		mk("alice", "Alice", "customer", "Passw0rd!", 1001),
		mk("bob", "Bob", "customer", "Passw0rd!", 2001),
		mk("carol", "Carol", "customer", "Passw0rd!", 3001),
		mk("dana", "Dana", "seller", "Passw0rd!", 4001),
		mk("evan", "Evan", "seller", "Passw0rd!", 4002),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`INSERT INTO users(id,name,password_hash,role,account_id) VALUES(?,?,?,?,?)`,
			x.ID, x.Name, x.Hash, x.Role, x.Account); err != nil {
			return err
		}
	}

	tx.MustExec(`INSERT INTO accounts(id,owner_id,balance) VALUES
	  (1001,'alice',50000),
	  (1002,'alice',100000),
	  (2001,'bob',75000),
	  (3001,'carol',120000),
	  (4001,'dana',0),
	  (4002,'evan',0)`)

	tx.MustExec(`INSERT INTO items(name_key,name,price,quantity,seller_id) VALUES
	  ('widget','Widget',5000,10,'dana'),
	  ('gizmo','Gizmo',60000,3,'dana'),
	  ('sprocket','Sprocket',1250,25,'evan')`)

	return tx.Commit()
}
