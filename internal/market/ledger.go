package market

import (
	"fmt"
	"sort"
	"sync"

	"tradepost/internal/domain"
)

// AccountPersister writes an account record to the durable store. It is
// called while the account's lock is still held, so persisted state never
// lags more than the in-flight mutation.
type AccountPersister interface {
	SaveAccount(domain.Account) error
}

type accountEntry struct {
	mu   sync.Mutex
	acct domain.Account
}

// Ledger is the transaction coordinator: the only component that mutates
// balances. Each account carries its own lock so unrelated accounts stay
// independent; the outer RWMutex only guards the map itself.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[int]*accountEntry
	store    AccountPersister
}

func NewLedger(accounts []domain.Account, store AccountPersister) *Ledger {
	l := &Ledger{accounts: make(map[int]*accountEntry), store: store}
	for _, a := range accounts {
		l.accounts[a.ID] = &accountEntry{acct: a}
	}
	return l
}

// Provision registers a new account. Existing accounts are left untouched.
func (l *Ledger) Provision(ownerID string, id int, balance domain.Cents) error {
	if balance < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[id]; ok {
		return fmt.Errorf("account %d: already provisioned", id)
	}
	e := &accountEntry{acct: domain.Account{ID: id, OwnerID: ownerID, Balance: balance}}
	l.accounts[id] = e
	return l.persist(e.acct)
}

func (l *Ledger) lookup(id int) (*accountEntry, error) {
	l.mu.RLock()
	e, ok := l.accounts[id]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, ErrAccountNotFound)
	}
	return e, nil
}

// Balance returns the current balance of an account.
func (l *Ledger) Balance(id int) (domain.Cents, error) {
	e, err := l.lookup(id)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct.Balance, nil
}

// OwnedBy lists the account ids owned by a user, ascending.
func (l *Ledger) OwnedBy(ownerID string) []int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ids []int
	for id, e := range l.accounts {
		if e.acct.OwnerID == ownerID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Reserve debits amount from the account if covered, as a single atomic
// check-then-mutate step. Insufficient balance leaves the account untouched.
func (l *Ledger) Reserve(id int, amount domain.Cents) error {
	return l.debit(id, amount, ErrInsufficientBalance)
}

// Withdraw is Reserve with transfer-style failure reporting.
func (l *Ledger) Withdraw(id int, amount domain.Cents) error {
	return l.debit(id, amount, ErrInsufficientFunds)
}

func (l *Ledger) debit(id int, amount domain.Cents, short error) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	e, err := l.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acct.Balance < amount {
		return fmt.Errorf("account %d: %w", id, short)
	}
	e.acct.Balance -= amount
	return l.persist(e.acct)
}

// Release credits a previously reserved amount back to the account.
func (l *Ledger) Release(id int, amount domain.Cents) error {
	_, err := l.credit(id, amount)
	return err
}

// Deposit credits amount and returns the new balance (top-up, seller payout).
func (l *Ledger) Deposit(id int, amount domain.Cents) (domain.Cents, error) {
	return l.credit(id, amount)
}

func (l *Ledger) credit(id int, amount domain.Cents) (domain.Cents, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	e, err := l.lookup(id)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acct.Balance += amount
	if err := l.persist(e.acct); err != nil {
		return e.acct.Balance, err
	}
	return e.acct.Balance, nil
}

// Transfer moves amount between two accounts as one unit: either both the
// debit and the credit are visible, or neither. Locks are taken in ascending
// account-id order so opposing concurrent transfers cannot deadlock.
func (l *Ledger) Transfer(callerID string, from, to int, amount domain.Cents) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if from == to {
		return fmt.Errorf("transfer to same account: %w", ErrInvalidAmount)
	}
	src, err := l.lookup(from)
	if err != nil {
		return err
	}
	dst, err := l.lookup(to)
	if err != nil {
		return err
	}

	first, second := src, dst
	if to < from {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if src.acct.OwnerID != callerID {
		return fmt.Errorf("account %d not owned by %s: %w", from, callerID, ErrUnauthorized)
	}
	if src.acct.Balance < amount {
		return fmt.Errorf("account %d: %w", from, ErrInsufficientFunds)
	}
	src.acct.Balance -= amount
	dst.acct.Balance += amount
	if err := l.persist(src.acct); err != nil {
		return err
	}
	return l.persist(dst.acct)
}

// persist writes through to the durable store. On failure the in-memory
// mutation stays in place: the caller sees the error, the crash window
// between mutation and persistence remains the sole inconsistency.
func (l *Ledger) persist(a domain.Account) error {
	if err := l.store.SaveAccount(a); err != nil {
		return fmt.Errorf("%w: account %d: %v", ErrPersistence, a.ID, err)
	}
	return nil
}
