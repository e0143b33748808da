package market_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"tradepost/internal/domain"
	"tradepost/internal/market"
	"tradepost/internal/store"
)

func memdbAll(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	schema := `
	CREATE TABLE users(id TEXT PRIMARY KEY, name TEXT, password_hash TEXT, role TEXT, account_id INTEGER, created_at TEXT);
	CREATE TABLE accounts(id INTEGER PRIMARY KEY, owner_id TEXT, balance INTEGER, updated_at TEXT);
	CREATE TABLE items(name_key TEXT PRIMARY KEY, name TEXT, price INTEGER, quantity INTEGER, seller_id TEXT, updated_at TEXT);
	CREATE TABLE purchases(buyer_id TEXT, purchase_id INTEGER, item_name TEXT, quantity INTEGER,
	  total_cost INTEGER, created_at TEXT, seller_id TEXT, status TEXT, PRIMARY KEY(buyer_id, purchase_id));

	INSERT INTO users(id,name,password_hash,role,account_id) VALUES
	  ('alice','Alice','x','customer',1001),
	  ('bob','Bob','x','customer',2001),
	  ('dana','Dana','x','seller',4001),
	  ('evan','Evan','x','seller',4002);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

type fixture struct {
	market *market.Market
	alice  *domain.User
	bob    *domain.User
	dana   *domain.User
	evan   *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memdbAll(t)

	ledger := market.NewLedger([]domain.Account{
		{ID: 1001, OwnerID: "alice", Balance: 50000},
		{ID: 2001, OwnerID: "bob", Balance: 75000},
		{ID: 4001, OwnerID: "dana", Balance: 0},
		{ID: 4002, OwnerID: "evan", Balance: 0},
	}, store.NewAccountStore(db))
	catalog := market.NewCatalog([]domain.Item{
		{Name: "Widget", Price: 5000, Quantity: 10, SellerID: "dana"},
		{Name: "Gizmo", Price: 60000, Quantity: 3, SellerID: "dana"},
	}, store.NewItemStore(db))
	journal := market.NewJournal(nil, store.NewPurchaseStore(db))

	return &fixture{
		market: market.NewMarket(ledger, catalog, journal, store.NewUserStore(db)),
		alice:  &domain.User{ID: "alice", Role: "customer", AccountID: 1001},
		bob:    &domain.User{ID: "bob", Role: "customer", AccountID: 2001},
		dana:   &domain.User{ID: "dana", Role: "seller", AccountID: 4001},
		evan:   &domain.User{ID: "evan", Role: "seller", AccountID: 4002},
	}
}

func (f *fixture) balance(t *testing.T, id int) domain.Cents {
	t.Helper()
	bal, err := f.market.Ledger.Balance(id)
	if err != nil {
		t.Fatal(err)
	}
	return bal
}

func (f *fixture) stock(t *testing.T, name string) int {
	t.Helper()
	it, err := f.market.Catalog.Get(name)
	if err != nil {
		t.Fatal(err)
	}
	return it.Quantity
}

func TestBuyThenDelivered(t *testing.T) {
	f := newFixture(t)

	p, err := f.market.Buy(f.alice, "Widget", 3)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 1 || p.Status != domain.StatusPending || p.SellerID != domain.SellerPending {
		t.Fatalf("bad pending purchase: %+v", p)
	}
	if p.TotalCost != 15000 {
		t.Fatalf("want totalCost 15000, got %d", p.TotalCost)
	}
	if got := f.balance(t, 1001); got != 35000 {
		t.Fatalf("buyer balance: want 35000, got %d", got)
	}
	if got := f.stock(t, "Widget"); got != 7 {
		t.Fatalf("stock: want 7, got %d", got)
	}

	done, err := f.market.Complete("alice", 1, market.OutcomeDelivered, f.dana)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != domain.StatusFulfilled || done.SellerID != "dana" {
		t.Fatalf("bad fulfilled purchase: %+v", done)
	}
	if got := f.balance(t, 4001); got != 15000 {
		t.Fatalf("seller payout: want 15000, got %d", got)
	}

	stored, err := f.market.Journal.Get("alice", 1)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.StatusFulfilled {
		t.Fatalf("journal should record the terminal status, got %+v", stored)
	}
}

func TestBuyInsufficientBalanceCompensatesStock(t *testing.T) {
	f := newFixture(t)

	_, err := f.market.Buy(f.alice, "Gizmo", 1) // 600.00 > 500.00
	if !errors.Is(err, market.ErrInsufficientBalance) {
		t.Fatalf("want ErrInsufficientBalance, got %v", err)
	}
	if got := f.stock(t, "Gizmo"); got != 3 {
		t.Fatalf("stock must be restored to 3, got %d", got)
	}
	if got := f.balance(t, 1001); got != 50000 {
		t.Fatalf("balance must be unchanged, got %d", got)
	}
	if hist := f.market.Journal.History("alice"); len(hist) != 0 {
		t.Fatalf("no purchase should be recorded, got %+v", hist)
	}
}

func TestCompleteUnfulfilledRefundsAndRestocks(t *testing.T) {
	f := newFixture(t)

	p, err := f.market.Buy(f.alice, "Widget", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, 1001); got != 40000 {
		t.Fatalf("want 40000 after reserve, got %d", got)
	}

	done, err := f.market.Complete("alice", p.ID, market.OutcomeUnfulfilled, f.dana)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != domain.StatusUnfulfilled || done.SellerID != domain.SellerUnfulfilled {
		t.Fatalf("bad unfulfilled purchase: %+v", done)
	}
	if got := f.balance(t, 1001); got != 50000 {
		t.Fatalf("refund: want 50000, got %d", got)
	}
	if got := f.stock(t, "Widget"); got != 10 {
		t.Fatalf("restock: want 10, got %d", got)
	}
	if got := f.balance(t, 4001); got != 0 {
		t.Fatalf("seller must not be paid, got %d", got)
	}
}

func TestCompleteTwiceRejectedWithoutSideEffects(t *testing.T) {
	f := newFixture(t)

	p, err := f.market.Buy(f.alice, "Widget", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.market.Complete("alice", p.ID, market.OutcomeDelivered, f.dana); err != nil {
		t.Fatal(err)
	}

	sellerBal := f.balance(t, 4001)
	stock := f.stock(t, "Widget")

	_, err = f.market.Complete("alice", p.ID, market.OutcomeUnfulfilled, f.dana)
	if !errors.Is(err, market.ErrAlreadyProcessed) {
		t.Fatalf("want ErrAlreadyProcessed, got %v", err)
	}
	if got := f.balance(t, 4001); got != sellerBal {
		t.Fatalf("seller balance changed on rejected complete: %d -> %d", sellerBal, got)
	}
	if got := f.stock(t, "Widget"); got != stock {
		t.Fatalf("stock changed on rejected complete: %d -> %d", stock, got)
	}
}

func TestBuyValidation(t *testing.T) {
	f := newFixture(t)

	if _, err := f.market.Buy(f.alice, "Widget", 0); !errors.Is(err, market.ErrInvalidQuantity) {
		t.Fatalf("qty 0: want ErrInvalidQuantity, got %v", err)
	}
	if _, err := f.market.Buy(f.alice, "NoSuchThing", 1); !errors.Is(err, market.ErrItemNotFound) {
		t.Fatalf("want ErrItemNotFound, got %v", err)
	}
	if _, err := f.market.Buy(f.alice, "Widget", 99); !errors.Is(err, market.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
	if _, err := f.market.Complete("alice", 1, market.Outcome("lost"), f.dana); !errors.Is(err, market.ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
	if _, err := f.market.Complete("alice", 42, market.OutcomeDelivered, f.dana); !errors.Is(err, market.ErrPurchaseNotFound) {
		t.Fatalf("want ErrPurchaseNotFound, got %v", err)
	}
}

// Case-insensitive catalog lookup: "widget" resolves the "Widget" listing.
func TestBuyCaseInsensitive(t *testing.T) {
	f := newFixture(t)

	p, err := f.market.Buy(f.alice, "wIdGeT", 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.ItemName != "Widget" {
		t.Fatalf("purchase should record canonical name, got %q", p.ItemName)
	}
}

func TestPurchaseIDsSequentialPerBuyer(t *testing.T) {
	f := newFixture(t)

	p1, _ := f.market.Buy(f.alice, "Widget", 1)
	p2, _ := f.market.Buy(f.alice, "Widget", 1)
	p3, _ := f.market.Buy(f.bob, "Widget", 1)

	if p1.ID != 1 || p2.ID != 2 {
		t.Fatalf("alice ids: want 1,2 got %d,%d", p1.ID, p2.ID)
	}
	if p3.ID != 1 {
		t.Fatalf("bob ids start fresh: want 1, got %d", p3.ID)
	}
}

func TestTopSellers(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		p, err := f.market.Buy(f.alice, "Widget", 1)
		if err != nil {
			t.Fatal(err)
		}
		seller := f.dana
		if i == 2 {
			seller = f.evan
		}
		if _, err := f.market.Complete("alice", p.ID, market.OutcomeDelivered, seller); err != nil {
			t.Fatal(err)
		}
	}

	top := f.market.TopSellers(5)
	if len(top) != 2 {
		t.Fatalf("want 2 sellers, got %+v", top)
	}
	if top[0].SellerID != "dana" || top[0].Fulfilled != 2 {
		t.Fatalf("want dana first with 2, got %+v", top[0])
	}
	if top[1].SellerID != "evan" || top[1].Fulfilled != 1 {
		t.Fatalf("want evan second with 1, got %+v", top[1])
	}

	if got := f.market.TopSellers(1); len(got) != 1 {
		t.Fatalf("n=1 should truncate, got %+v", got)
	}
}
