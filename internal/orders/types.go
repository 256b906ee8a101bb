package orders

import "time"

// Status is the lifecycle state of an order.
type Status string

// Order statuses
const (
	StatusPlaced    Status = "placed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPlaced, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active reports whether the order is still in the kitchen's hands.
func (s Status) Active() bool {
	return s == StatusPlaced || s == StatusPreparing || s == StatusReady
}

// Terminal reports completed or cancelled. Operators may still move an order out of a
// terminal status; nothing enforces finality.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// LineItem is a display-ready summary of one ordered menu item. Price and
// PreparationTime are captured at order time and never re-read from the catalog.
type LineItem struct {
	MenuItemID      string  `json:"menu_item_id" dynamodbav:"menu_item_id"`
	Name            string  `json:"name" dynamodbav:"name"`
	Category        string  `json:"category,omitempty" dynamodbav:"category,omitempty"`
	Quantity        int     `json:"quantity" dynamodbav:"quantity"`
	Price           float64 `json:"price" dynamodbav:"price"` // unit price
	PreparationTime int     `json:"preparation_time" dynamodbav:"preparation_time"`
}

// Order represents the item stored in the orders table.
type Order struct {
	OrderID       string     `json:"id" dynamodbav:"order_id"` // PK
	OrderNumber   string     `json:"order_number" dynamodbav:"order_number"`
	CustomerID    string     `json:"customer_id" dynamodbav:"customer_id"`
	Items         []LineItem `json:"items" dynamodbav:"items"`
	TotalAmount   float64    `json:"total_amount" dynamodbav:"total_amount"`
	EstimatedTime int        `json:"estimated_time" dynamodbav:"estimated_time"` // minutes
	Status        Status     `json:"status" dynamodbav:"status"`
	Notes         string     `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	TableID       string     `json:"table_id,omitempty" dynamodbav:"table_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// NotificationKey routes every event of an order to the same partition.
func (o Order) NotificationKey() string { return o.OrderID }

// Clone returns a detached copy.
func (o Order) Clone() Order {
	o.Items = append([]LineItem(nil), o.Items...)
	return o
}

// StatusUpdate is the payload of the order-status-update event.
type StatusUpdate struct {
	OrderID     string `json:"orderId"`
	Status      Status `json:"status"`
	OrderNumber string `json:"orderNumber"`
}

func (u StatusUpdate) NotificationKey() string { return u.OrderID }

// ItemRequest is one requested line: a catalog item and a quantity.
type ItemRequest struct {
	MenuItemID string
	Quantity   int
}

// CreateInput is the validated input of Create.
type CreateInput struct {
	// OrderID is optional; callers that must find the order again after a crash
	// (idempotent requests) assign it up front.
	OrderID    string
	CustomerID string
	Items      []ItemRequest
	Notes      string
	TableID    string
}

// DateRange bounds created_at; zero ends are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// ListFilter selects orders for FindMany; zero fields do not filter.
type ListFilter struct {
	CustomerID string
	Status     Status
	Range      DateRange
}

// Viewer is the identity reading an order.
type Viewer struct {
	UserID   string
	Operator bool
}
