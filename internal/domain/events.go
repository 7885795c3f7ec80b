package domain

import "time"

// OrderMessage is the wire form of a submitted order as published to
// the kitchen-facing exchange.
type OrderMessage struct {
	ExternalID   string     `json:"external_id"`
	SessionID    string     `json:"session_id"`
	OrderNumber  int        `json:"order_number"`
	TableNumber  int        `json:"table_number"`
	Items        []CartLine `json:"items"`
	Total        float64    `json:"total"`
	Status       string     `json:"status"`
	Priority     int        `json:"priority"`
	RestaurantID string     `json:"restaurant_id"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CatalogSnapshot is one push from the live menu feed. Each push
// carries the complete current catalog, not a delta; consumers must
// replace their local copy wholesale.
type CatalogSnapshot struct {
	RestaurantID string     `json:"restaurant_id"`
	Items        []MenuItem `json:"items"`
	Categories   []string   `json:"categories,omitempty"`
	PublishedAt  time.Time  `json:"published_at"`
}
