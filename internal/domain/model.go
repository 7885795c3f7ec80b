package domain

import "time"

// Session is one continuous dining visit from a single device.
// TableNumber is 0 until the diner picks a table.
type Session struct {
	ID          string    `json:"session_id"`
	StartedAt   time.Time `json:"started_at"`
	Active      bool      `json:"active"`
	TableNumber int       `json:"table_number,omitempty"`
}

// MenuItem is one entry of the restaurant catalog as delivered by the
// live feed. The core never edits the catalog.
type MenuItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Price           float64 `json:"price"`
	Category        string  `json:"category"`
	ImageURL        string  `json:"image_url,omitempty"`
	Available       bool    `json:"available"`
	DisplayPriority int     `json:"display_priority,omitempty"`
	IsRecommended   bool    `json:"is_recommended,omitempty"`
	IsBestseller    bool    `json:"is_bestseller,omitempty"`
	IsNew           bool    `json:"is_new,omitempty"`
}

// CartLine is a snapshot of a menu item at the moment it was added.
// Price and display fields do not follow later catalog changes.
type CartLine struct {
	ItemID      string  `json:"item_id"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// LineTotal is the extended price of the line.
func (l CartLine) LineTotal() float64 { return l.UnitPrice * float64(l.Quantity) }

const StatusPending = "pending"

// Order is one immutable submission of the cart to the kitchen.
// ID is the external id assigned by the remote order log.
type Order struct {
	ID           string     `json:"id,omitempty"`
	SessionID    string     `json:"session_id"`
	TableNumber  int        `json:"table_number"`
	Items        []CartLine `json:"items"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	Total        float64    `json:"total"`
	OrderNumber  int        `json:"order_number"`
	RestaurantID string     `json:"restaurant_id"`
}

// ItemCount sums the quantities of all lines in the order.
func (o Order) ItemCount() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}

// Bill is the derived financial summary of a session. It is computed
// on demand from the order history and never stored.
type Bill struct {
	SessionID       string        `json:"session_id"`
	TableNumber     int           `json:"table_number"`
	GeneratedAt     time.Time     `json:"generated_at"`
	SessionDuration time.Duration `json:"session_duration"`
	Orders          []Order       `json:"orders"`
	Subtotal        float64       `json:"subtotal"`
	ServiceCharge   float64       `json:"service_charge"`
	GST             float64       `json:"gst"`
	Total           float64       `json:"total"`
	ItemCount       int           `json:"item_count"`
}

// Service request types a diner can raise from the table.
const (
	ServiceWater  = "water"
	ServiceNapkin = "napkin"
	ServiceWaiter = "waiter"
)

// ServiceRequest is a table-side call for staff attention, delivered
// through the same remote log as orders.
type ServiceRequest struct {
	ID           string    `json:"id,omitempty"`
	SessionID    string    `json:"session_id"`
	TableNumber  int       `json:"table_number"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	RestaurantID string    `json:"restaurant_id"`
}
