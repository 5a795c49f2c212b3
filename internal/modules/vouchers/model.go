package vouchers

import "time"

const (
	KindPercent = "percent"
	KindFixed   = "fixed"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type Voucher struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	ShopID        string     `gorm:"size:36;not null;uniqueIndex:ux_vouchers_shop_code,priority:1" json:"shop_id"`
	Code          string     `gorm:"size:40;not null;uniqueIndex:ux_vouchers_shop_code,priority:2" json:"code"`
	Kind          string     `gorm:"size:16;not null" json:"kind"`
	Value         int64      `gorm:"not null" json:"value"`
	MinOrderCents int64      `gorm:"not null;default:0" json:"min_order_cents"`
	UsageLimit    int        `gorm:"not null;default:0" json:"usage_limit"`
	UsedCount     int        `gorm:"not null;default:0" json:"used_count"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
	Status        string     `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Voucher) TableName() string { return "vouchers" }

// Discount is the amount taken off subtotal. Percent rounds down; the result
// never exceeds the subtotal.
func Discount(kind string, value, subtotal int64) int64 {
	if subtotal <= 0 || value <= 0 {
		return 0
	}
	var d int64
	switch kind {
	case KindPercent:
		// split to keep subtotal*value from overflowing
		d = subtotal/100*value + subtotal%100*value/100
	case KindFixed:
		d = value
	}
	return min(d, subtotal)
}

func (v Voucher) Discount(subtotal int64) int64 { return Discount(v.Kind, v.Value, subtotal) }

// Reason codes returned when a voucher cannot be applied.
const (
	ReasonUnknown    = "unknown"
	ReasonDisabled   = "disabled"
	ReasonNotStarted = "not_started"
	ReasonExpired    = "expired"
	ReasonExhausted  = "exhausted"
	ReasonBelowMin   = "below_minimum"
)

var reasonMessages = map[string]string{
	ReasonUnknown:    "This voucher code does not exist.",
	ReasonDisabled:   "This voucher is no longer active.",
	ReasonNotStarted: "This voucher is not valid yet.",
	ReasonExpired:    "This voucher has expired.",
	ReasonExhausted:  "This voucher has reached its usage limit.",
	ReasonBelowMin:   "Your order does not reach the voucher minimum.",
}

// Applicability checks v against subtotal at now. It returns "" when the
// voucher can be used.
func (v Voucher) Applicability(subtotal int64, now time.Time) string {
	switch {
	case v.Status != StatusActive:
		return ReasonDisabled
	case v.StartsAt != nil && now.Before(*v.StartsAt):
		return ReasonNotStarted
	case v.EndsAt != nil && !now.Before(*v.EndsAt):
		return ReasonExpired
	case v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit:
		return ReasonExhausted
	case subtotal < v.MinOrderCents:
		return ReasonBelowMin
	}
	return ""
}
