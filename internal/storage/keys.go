package storage

// Persisted key layout, shared with the other front-of-house clients
// that read the same per-table state.
const (
	KeySessionID     = "customer_session_id"
	KeySessionStart  = "customer_session_start"  // ISO-8601 timestamp
	KeySessionActive = "customer_session_active" // "true" / "false"
	KeyTableNumber   = "customer_table_number"
	KeyCart          = "customer_cart"           // JSON array of cart lines
	KeySessionOrders = "customer_session_orders" // JSON array of orders
)

// SessionKeys is everything purged when a session ends.
var SessionKeys = []string{
	KeySessionID,
	KeySessionStart,
	KeySessionActive,
	KeyTableNumber,
	KeyCart,
	KeySessionOrders,
}
