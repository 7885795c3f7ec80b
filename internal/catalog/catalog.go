// Package catalog keeps a local replica of the restaurant menu. Each
// feed push carries the complete catalog and replaces the replica
// wholesale; nothing is merged, so removed or re-priced items can
// never linger.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"tableside/internal/common/logger"
	"tableside/internal/domain"
)

// DefaultCategories are always offered; the feed may add custom ones.
var DefaultCategories = []string{"starters", "mains", "desserts", "beverages"}

const defaultDisplayPriority = 5

type Cache struct {
	mu         sync.RWMutex
	byID       map[string]domain.MenuItem
	byCategory map[string][]domain.MenuItem
	categories []string
	feedErr    error
	loaded     bool

	lg *logger.Logger
}

func NewCache(lg *logger.Logger) *Cache {
	return &Cache{
		byID:       make(map[string]domain.MenuItem),
		byCategory: make(map[string][]domain.MenuItem),
		categories: append([]string(nil), DefaultCategories...),
		lg:         lg,
	}
}

// Replace swaps in a full catalog snapshot. Unavailable items are
// dropped here so the rest of the client never sees them; items within
// a category are ordered by display priority, highest first.
func (c *Cache) Replace(snap domain.CatalogSnapshot) {
	byID := make(map[string]domain.MenuItem, len(snap.Items))
	byCategory := make(map[string][]domain.MenuItem)
	for _, item := range snap.Items {
		if !item.Available {
			continue
		}
		if item.DisplayPriority == 0 {
			item.DisplayPriority = defaultDisplayPriority
		}
		byID[item.ID] = item
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}
	for cat := range byCategory {
		items := byCategory[cat]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].DisplayPriority > items[j].DisplayPriority
		})
	}

	categories := append([]string(nil), DefaultCategories...)
	seen := make(map[string]bool, len(categories))
	for _, cat := range categories {
		seen[cat] = true
	}
	for _, cat := range snap.Categories {
		if !seen[cat] {
			categories = append(categories, cat)
			seen[cat] = true
		}
	}

	c.mu.Lock()
	c.byID = byID
	c.byCategory = byCategory
	c.categories = categories
	c.feedErr = nil
	c.loaded = true
	c.mu.Unlock()

	c.lg.Info("catalog_replaced", map[string]any{
		"items": len(byID), "categories": len(byCategory),
	})
}

// MarkFailed records that the feed is down. The surrounding layer can
// surface an explicit error state instead of silently serving stale or
// empty data.
func (c *Cache) MarkFailed(err error) {
	c.mu.Lock()
	c.feedErr = err
	c.mu.Unlock()
	c.lg.Error("catalog_feed_failed", err, nil)
}

// Err reports the current feed failure, if any.
func (c *Cache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feedErr
}

// Loaded reports whether at least one snapshot has arrived.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Item looks up an available item by id.
func (c *Cache) Item(id string) (domain.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.byID[id]
	return item, ok
}

// Categories lists the defaults followed by feed-supplied custom ones.
func (c *Cache) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.categories...)
}

// ItemsByCategory returns the items of one category, display order.
func (c *Cache) ItemsByCategory(category string) []domain.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.MenuItem(nil), c.byCategory[category]...)
}

// Recommended lists items flagged recommended, bestseller or new.
func (c *Cache) Recommended() []domain.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.MenuItem
	for _, items := range c.byCategory {
		for _, item := range items {
			if item.IsRecommended || item.IsBestseller || item.IsNew {
				out = append(out, item)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Search matches term against item names and descriptions,
// case-insensitive, returning at most limit hits.
func (c *Cache) Search(term string, limit int) []domain.MenuItem {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []domain.MenuItem
	for _, id := range ids {
		item := c.byID[id]
		if strings.Contains(strings.ToLower(item.Name), term) ||
			strings.Contains(strings.ToLower(item.Description), term) {
			out = append(out, item)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}
