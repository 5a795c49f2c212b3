package orders

import (
	"fmt"

	"marketly.com/app/internal/shared/apperr"
)

var (
	ErrNoLines           = apperr.InvalidErr("Your order has no items.", map[string]string{"lines": "At least one item is required."})
	ErrCurrencyMismatch  = apperr.InvalidErr("All items in an order must use the same currency.", nil)
	ErrInvalidTransition = apperr.InvalidErr("This action is not allowed for the order's current status.", nil)
	ErrOrderNotFound     = apperr.NotFoundErr("Order not found.")
	ErrShopUnavailable   = apperr.InvalidErr("This shop is not accepting orders.", map[string]string{"shop_id": "Unknown or suspended shop."})
	ErrOwnShop           = apperr.InvalidErr("You cannot order from your own shop.", nil)
	ErrTotalTooLarge     = apperr.InvalidErr("The order total is too large.", map[string]string{"lines": "Reduce the quantities."})
)

type OutOfStockItem struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type OutOfStockError struct {
	Items []OutOfStockItem
}

func (e *OutOfStockError) Error() string {
	if len(e.Items) == 0 {
		return "out of stock"
	}
	it := e.Items[0]
	return fmt.Sprintf("out of stock: product=%s requested=%d available=%d", it.ProductID, it.Requested, it.Available)
}

// ProductUnavailableError lists products that are missing, inactive or from
// another shop.
type ProductUnavailableError struct {
	ProductIDs []string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("products unavailable: %v", e.ProductIDs)
}
