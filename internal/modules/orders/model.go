package orders

import (
	"slices"
	"time"
)

const (
	StatusCreated   = "created"
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

const (
	ActionPlace   = "place"
	ActionPay     = "pay"
	ActionShip    = "ship"
	ActionDeliver = "deliver"
	ActionCancel  = "cancel"
	ActionRefund  = "refund"
)

// RevenueStatuses are the statuses whose totals count as earned revenue.
var RevenueStatuses = []string{StatusPaid, StatusShipped, StatusDelivered}

// Statuses lists every order status in lifecycle order.
var Statuses = []string{StatusCreated, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded}

func ValidStatus(s string) bool {
	return slices.Contains(Statuses, s)
}

type Order struct {
	ID            string      `gorm:"primaryKey;size:36" json:"id"`
	ShopID        string      `gorm:"size:36;not null;index:ix_orders_shop_created,priority:1" json:"shop_id"`
	CustomerID    string      `gorm:"size:36;not null;index:ix_orders_customer_created,priority:1" json:"customer_id"`
	Status        string      `gorm:"size:16;not null;default:created" json:"status"`
	SubtotalCents int64       `gorm:"not null" json:"subtotal_cents"`
	DiscountCents int64       `gorm:"not null;default:0" json:"discount_cents"`
	TotalCents    int64       `gorm:"not null" json:"total_cents"`
	Currency      string      `gorm:"size:3;not null" json:"currency"`
	VoucherCode   *string     `gorm:"size:40" json:"voucher_code"`
	PaidAt        *time.Time  `json:"paid_at"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt     time.Time   `gorm:"index:ix_orders_shop_created,priority:2;index:ix_orders_customer_created,priority:2" json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID        string    `gorm:"size:36;not null;index:ix_order_items_order" json:"order_id"`
	ProductID      string    `gorm:"size:36;not null" json:"product_id"`
	ProductName    string    `gorm:"size:200;not null" json:"product_name"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	LineTotalCents int64     `gorm:"not null" json:"line_total_cents"`
	CreatedAt      time.Time `json:"-"`
}

func (OrderItem) TableName() string { return "order_items" }

type OrderEvent struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	OrderID     string    `gorm:"size:36;not null;index:ix_order_events_order" json:"order_id"`
	ActorUserID string    `gorm:"size:36;not null" json:"actor_user_id"`
	Action      string    `gorm:"size:16;not null" json:"action"`
	FromStatus  string    `gorm:"size:16;not null" json:"from_status"`
	ToStatus    string    `gorm:"size:16;not null" json:"to_status"`
	Note        *string   `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

func (OrderEvent) TableName() string { return "order_events" }

// Detail is an order with its lines and history.
type Detail struct {
	Order
	Events []OrderEvent `json:"events"`
}
