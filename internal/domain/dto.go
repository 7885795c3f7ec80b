package domain

// HTTP request/response shapes for the client-facing service.

type AddItemRequest struct {
	ItemID string `json:"item_id"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type SelectTableRequest struct {
	TableNumber int `json:"table_number"`
}

type ServiceCallRequest struct {
	Type string `json:"type"`
}

type CartResponse struct {
	Lines     []CartLine `json:"lines"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"item_count"`
}

type SubmitOrderResponse struct {
	OrderID     string  `json:"order_id"`
	OrderNumber int     `json:"order_number"`
	Status      string  `json:"status"`
	Total       float64 `json:"total"`
}

type SessionResponse struct {
	SessionID      string  `json:"session_id"`
	TableNumber    int     `json:"table_number,omitempty"`
	Active         bool    `json:"active"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	OrdersPlaced   int     `json:"orders_placed"`
	ItemsOrdered   int     `json:"items_ordered"`
	SessionTotal   float64 `json:"session_total"`
}

type BillResponse struct {
	Bill      Bill   `json:"bill"`
	ShareText string `json:"share_text"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
