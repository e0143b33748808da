package market

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"tradepost/internal/domain"
)

// ItemPersister writes an item record to the durable store while the item
// lock is held.
type ItemPersister interface {
	SaveItem(domain.Item) error
}

type itemEntry struct {
	mu   sync.Mutex
	item domain.Item
}

// Catalog holds the sellable items, keyed case-insensitively by name.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]*itemEntry
	store ItemPersister
}

func NewCatalog(items []domain.Item, store ItemPersister) *Catalog {
	c := &Catalog{items: make(map[string]*itemEntry), store: store}
	for _, it := range items {
		c.items[strings.ToLower(it.Name)] = &itemEntry{item: it}
	}
	return c
}

func (c *Catalog) lookup(name string) (*itemEntry, error) {
	c.mu.RLock()
	e, ok := c.items[strings.ToLower(name)]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("item %q: %w", name, ErrItemNotFound)
	}
	return e, nil
}

// Get returns a snapshot of the named item.
func (c *Catalog) Get(name string) (domain.Item, error) {
	e, err := c.lookup(name)
	if err != nil {
		return domain.Item{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.item, nil
}

// List returns all items ordered by name.
func (c *Catalog) List() []domain.Item {
	c.mu.RLock()
	out := make([]domain.Item, 0, len(c.items))
	for _, e := range c.items {
		e.mu.Lock()
		out = append(out, e.item)
		e.mu.Unlock()
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Upsert is the seller "add" action: a new item is created with the acting
// seller as owner; an existing one gets its price overwritten and quantity
// increased. Only the owning seller may update an existing listing.
func (c *Catalog) Upsert(sellerID, name string, price domain.Cents, qty int) (domain.Item, error) {
	if price <= 0 {
		return domain.Item{}, ErrInvalidAmount
	}
	if qty < 0 {
		return domain.Item{}, ErrInvalidQuantity
	}
	key := strings.ToLower(name)

	c.mu.Lock()
	e, ok := c.items[key]
	if !ok {
		e = &itemEntry{item: domain.Item{Name: name, SellerID: sellerID}}
		c.items[key] = e
	}
	c.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.item.SellerID != sellerID {
		return domain.Item{}, fmt.Errorf("item %q owned by %s: %w", e.item.Name, e.item.SellerID, ErrUnauthorized)
	}
	e.item.Price = price
	e.item.Quantity += qty
	if err := c.persist(e.item); err != nil {
		return e.item, err
	}
	return e.item, nil
}

// Reserve decrements available stock under the item lock and returns a
// snapshot carrying the price the reservation was made at.
func (c *Catalog) Reserve(name string, qty int) (domain.Item, error) {
	if qty <= 0 {
		return domain.Item{}, ErrInvalidQuantity
	}
	e, err := c.lookup(name)
	if err != nil {
		return domain.Item{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.item.Quantity < qty {
		return domain.Item{}, fmt.Errorf("item %q has %d: %w", e.item.Name, e.item.Quantity, ErrInsufficientStock)
	}
	e.item.Quantity -= qty
	if err := c.persist(e.item); err != nil {
		return e.item, err
	}
	return e.item, nil
}

// Restock returns previously reserved stock to the item. It reports
// ErrItemNotFound if the listing vanished in the meantime; callers decide
// whether that is fatal (a refund is not).
func (c *Catalog) Restock(name string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	e, err := c.lookup(name)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.item.Quantity += qty
	return c.persist(e.item)
}

func (c *Catalog) persist(it domain.Item) error {
	if err := c.store.SaveItem(it); err != nil {
		return fmt.Errorf("%w: item %q: %v", ErrPersistence, it.Name, err)
	}
	return nil
}
