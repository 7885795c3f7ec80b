// Package cart holds the diner's currently-unsubmitted selection.
// Every mutation is persisted before it returns, so a crash right
// after a tap loses nothing that was committed.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tableside/internal/common/logger"
	"tableside/internal/domain"
	"tableside/internal/storage"
)

// ErrItemNotFound is returned by Add when the catalog has no such
// item (or it is currently unavailable).
var ErrItemNotFound = errors.New("menu item not found")

// Catalog is the lookup surface the cart needs from the menu replica.
type Catalog interface {
	Item(id string) (domain.MenuItem, bool)
}

// Cart maps item ids to lines. At most one line exists per item; a
// line whose quantity would drop to zero or below is removed.
type Cart struct {
	store   storage.Store
	catalog Catalog
	lg      *logger.Logger

	mu    sync.Mutex
	lines []domain.CartLine
}

// Load restores the persisted cart. A corrupt payload degrades to an
// empty cart.
func Load(ctx context.Context, store storage.Store, catalog Catalog, lg *logger.Logger) (*Cart, error) {
	c := &Cart{store: store, catalog: catalog, lg: lg}
	var lines []domain.CartLine
	ok, err := storage.ReadJSON(ctx, store, storage.KeyCart, &lines)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if ok {
		c.lines = lines
		lg.Debug("cart_restored", map[string]any{"lines": len(lines)})
	}
	return c, nil
}

// Add inserts a new line with quantity 1, or bumps an existing line by
// one. Name, price and display fields are snapshotted from the catalog
// at insertion time and never follow later catalog changes.
func (c *Cart) Add(ctx context.Context, itemID string) error {
	item, ok := c.catalog.Item(itemID)
	if !ok {
		c.lg.Error("item_not_found", ErrItemNotFound, map[string]any{"item_id": itemID})
		return ErrItemNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(itemID); i >= 0 {
		c.lines[i].Quantity++
	} else {
		c.lines = append(c.lines, domain.CartLine{
			ItemID:      item.ID,
			Name:        item.Name,
			UnitPrice:   item.Price,
			Quantity:    1,
			Category:    item.Category,
			Description: item.Description,
			ImageURL:    item.ImageURL,
		})
	}
	return c.persist(ctx)
}

// SetQuantity updates an existing line. n <= 0 removes the line; n > 0
// with no existing line is a no-op, because only Add may create one.
func (c *Cart) SetQuantity(ctx context.Context, itemID string, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(itemID)
	switch {
	case n <= 0:
		if i < 0 {
			return nil
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	case i < 0:
		return nil
	default:
		c.lines[i].Quantity = n
	}
	return c.persist(ctx)
}

// Clear empties the cart and persists the empty state. It is only
// invoked as a side effect of a successful submission or session end.
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	return c.persist(ctx)
}

// Reset drops the in-memory lines without touching the store. Used
// after a session end has already purged the persisted cart.
func (c *Cart) Reset() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a snapshot copy of the cart contents.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CartLine(nil), c.lines...)
}

// Total sums unit price times quantity over all lines.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := 0.0
	for _, l := range c.lines {
		sum += l.LineTotal()
	}
	return sum
}

// ItemCount sums the quantities of all lines.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

func (c *Cart) index(itemID string) int {
	for i, l := range c.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// persist writes the full cart; callers hold the lock.
func (c *Cart) persist(ctx context.Context) error {
	if err := storage.WriteJSON(ctx, c.store, storage.KeyCart, c.lines); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
