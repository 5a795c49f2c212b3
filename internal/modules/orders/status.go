package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/modules/vouchers"
	"marketly.com/app/internal/shared/apperr"
)

// transitions maps an action to the statuses it may start from and the
// status it leads to.
var transitions = map[string]struct {
	from []string
	to   string
}{
	ActionPay:     {from: []string{StatusCreated}, to: StatusPaid},
	ActionShip:    {from: []string{StatusPaid}, to: StatusShipped},
	ActionDeliver: {from: []string{StatusShipped}, to: StatusDelivered},
	ActionCancel:  {from: []string{StatusCreated, StatusPaid}, to: StatusCancelled},
	ActionRefund:  {from: []string{StatusPaid, StatusDelivered}, to: StatusRefunded},
}

func NextStatus(from, action string) (string, error) {
	t, ok := transitions[action]
	if !ok {
		return "", apperr.InvalidErr("Unknown order action.", map[string]string{"action": "Must be pay, ship, deliver, cancel or refund."})
	}
	for _, f := range t.from {
		if f == from {
			return t.to, nil
		}
	}
	return "", ErrInvalidTransition
}

type TransitionInput struct {
	OrderID     string
	ShopID      string // empty for admins
	ActorUserID string
	Action      string
	Note        string
}

// Transition moves an order through its lifecycle under a row lock and
// records an OrderEvent. Cancelling puts stock back and releases the voucher.
func (s *Service) Transition(ctx context.Context, in TransitionInput) (Order, error) {
	if in.OrderID == "" || in.ActorUserID == "" {
		return Order{}, ErrOrderNotFound
	}

	var out Order
	err := db.WithTxRetry(ctx, s.db, txAttempts, func(tx *gorm.DB) error {
		var o Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", in.OrderID).Error; err != nil {
			if db.IsNotFound(err) {
				return ErrOrderNotFound
			}
			return err
		}
		if in.ShopID != "" && o.ShopID != in.ShopID {
			return ErrOrderNotFound
		}

		from := o.Status
		to, err := NextStatus(from, in.Action)
		if err != nil {
			return err
		}

		now := s.now()
		updates := map[string]any{"status": to, "updated_at": now}
		if to == StatusPaid && o.PaidAt == nil {
			updates["paid_at"] = now
			o.PaidAt = &now
		}
		res := tx.Model(&Order{}).
			Where("id = ? AND status = ?", o.ID, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrInvalidTransition
		}

		if to == StatusCancelled {
			var items []OrderItem
			if err := tx.Find(&items, "order_id = ?", o.ID).Error; err != nil {
				return err
			}
			lines := make([]StockLine, 0, len(items))
			for _, it := range items {
				lines = append(lines, StockLine{ProductID: it.ProductID, Qty: it.Quantity})
			}
			if err := RestockInTx(ctx, tx, lines); err != nil {
				return err
			}
			if o.VoucherCode != nil {
				if err := vouchers.ReleaseTx(ctx, tx, o.ShopID, *o.VoucherCode); err != nil {
					return err
				}
			}
		}

		var notePtr *string
		if n := strings.TrimSpace(in.Note); n != "" {
			notePtr = &n
		}
		ev := OrderEvent{
			ID:          uuid.NewString(),
			OrderID:     o.ID,
			ActorUserID: in.ActorUserID,
			Action:      in.Action,
			FromStatus:  from,
			ToStatus:    to,
			Note:        notePtr,
			CreatedAt:   now,
		}
		if err := tx.Create(&ev).Error; err != nil {
			return err
		}

		o.Status = to
		o.UpdatedAt = now
		out = o
		return nil
	})
	if err != nil {
		return Order{}, apperr.Wrap(err)
	}
	return out, nil
}
