package market

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"tradepost/internal/domain"
)

// PurchasePersister writes a purchase record to the durable store while the
// purchase lock is held.
type PurchasePersister interface {
	SavePurchase(domain.Purchase) error
}

type purchaseEntry struct {
	mu sync.Mutex
	p  domain.Purchase
}

type buyerLog struct {
	mu        sync.Mutex
	purchases []*purchaseEntry
}

// Journal keeps each buyer's ordered purchase history. Purchase ids are
// sequential per buyer; allocation happens under the buyer's lock.
type Journal struct {
	mu     sync.RWMutex
	buyers map[string]*buyerLog
	store  PurchasePersister
	now    func() time.Time
}

func NewJournal(purchases []domain.Purchase, store PurchasePersister) *Journal {
	j := &Journal{buyers: make(map[string]*buyerLog), store: store, now: time.Now}
	for _, p := range purchases {
		b := j.buyer(p.BuyerID)
		b.purchases = append(b.purchases, &purchaseEntry{p: p})
	}
	for _, b := range j.buyers {
		sort.Slice(b.purchases, func(i, k int) bool { return b.purchases[i].p.ID < b.purchases[k].p.ID })
	}
	return j
}

func (j *Journal) buyer(id string) *buyerLog {
	j.mu.Lock()
	defer j.mu.Unlock()
	b, ok := j.buyers[id]
	if !ok {
		b = &buyerLog{}
		j.buyers[id] = b
	}
	return b
}

// Append records a fresh pending purchase with id = max existing + 1.
func (j *Journal) Append(buyerID, itemName string, qty int, total domain.Cents) (domain.Purchase, error) {
	b := j.buyer(buyerID)
	b.mu.Lock()
	defer b.mu.Unlock()

	next := 1
	if n := len(b.purchases); n > 0 {
		next = b.purchases[n-1].p.ID + 1
	}
	p := domain.Purchase{
		ID:        next,
		BuyerID:   buyerID,
		ItemName:  itemName,
		Quantity:  qty,
		TotalCost: total,
		CreatedAt: j.now(),
		SellerID:  domain.SellerPending,
		Status:    domain.StatusPending,
	}
	b.purchases = append(b.purchases, &purchaseEntry{p: p})
	if err := j.persist(p); err != nil {
		return p, err
	}
	return p, nil
}

func (j *Journal) find(buyerID string, id int) (*purchaseEntry, error) {
	j.mu.RLock()
	b, ok := j.buyers[buyerID]
	j.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("buyer %s purchase %d: %w", buyerID, id, ErrPurchaseNotFound)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.purchases {
		if e.p.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("buyer %s purchase %d: %w", buyerID, id, ErrPurchaseNotFound)
}

// Get returns a snapshot of one purchase.
func (j *Journal) Get(buyerID string, id int) (domain.Purchase, error) {
	e, err := j.find(buyerID, id)
	if err != nil {
		return domain.Purchase{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p, nil
}

// Transition runs fn on the purchase under its lock and persists the result.
// fn must leave the purchase unchanged when it returns an error.
func (j *Journal) Transition(buyerID string, id int, fn func(*domain.Purchase) error) (domain.Purchase, error) {
	e, err := j.find(buyerID, id)
	if err != nil {
		return domain.Purchase{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(&e.p); err != nil {
		return e.p, err
	}
	if err := j.persist(e.p); err != nil {
		return e.p, err
	}
	return e.p, nil
}

// History returns a buyer's purchases in id order.
func (j *Journal) History(buyerID string) []domain.Purchase {
	j.mu.RLock()
	b, ok := j.buyers[buyerID]
	j.mu.RUnlock()
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Purchase, 0, len(b.purchases))
	for _, e := range b.purchases {
		e.mu.Lock()
		out = append(out, e.p)
		e.mu.Unlock()
	}
	return out
}

// PendingAll returns every pending purchase across all buyers, ordered by
// buyer then id, for sellers scanning work to fulfill.
func (j *Journal) PendingAll() []domain.Purchase {
	var out []domain.Purchase
	for _, buyerID := range j.buyerIDs() {
		for _, p := range j.History(buyerID) {
			if p.Status == domain.StatusPending {
				out = append(out, p)
			}
		}
	}
	return out
}

type SellerCount struct {
	SellerID  string `json:"seller_id"`
	Fulfilled int    `json:"fulfilled"`
}

// TopSellers ranks sellers by fulfilled purchase count, descending. Ties keep
// the order sellers were first encountered in a deterministic walk of the
// journal (buyers sorted, purchases in id order).
func (j *Journal) TopSellers(n int) []SellerCount {
	counts := make(map[string]int)
	var order []string
	for _, buyerID := range j.buyerIDs() {
		for _, p := range j.History(buyerID) {
			if p.Status != domain.StatusFulfilled {
				continue
			}
			if _, seen := counts[p.SellerID]; !seen {
				order = append(order, p.SellerID)
			}
			counts[p.SellerID]++
		}
	}
	out := make([]SellerCount, 0, len(order))
	for _, s := range order {
		out = append(out, SellerCount{SellerID: s, Fulfilled: counts[s]})
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].Fulfilled > out[k].Fulfilled })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (j *Journal) buyerIDs() []string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	ids := make([]string, 0, len(j.buyers))
	for id := range j.buyers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (j *Journal) persist(p domain.Purchase) error {
	if err := j.store.SavePurchase(p); err != nil {
		return fmt.Errorf("%w: purchase %s/%d: %v", ErrPersistence, p.BuyerID, p.ID, err)
	}
	return nil
}
