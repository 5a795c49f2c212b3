package orders

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketly.com/app/internal/db"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/vouchers"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

const (
	MaxLines    = 50
	MaxQuantity = 999
	txAttempts  = 3
)

type Service struct {
	db   *gorm.DB
	repo *Repo
	now  func() time.Time
}

func NewService(gdb *gorm.DB) *Service {
	return &Service{db: gdb, repo: NewRepo(gdb), now: func() time.Time { return time.Now().UTC() }}
}

type Line struct {
	ProductID string
	Quantity  int
}

type PlaceInput struct {
	CustomerID  string
	ShopID      string
	Lines       []Line
	VoucherCode string
}

func (in PlaceInput) validate() error {
	if len(in.Lines) == 0 {
		return ErrNoLines
	}
	if len(in.Lines) > MaxLines {
		return apperr.InvalidErr("Too many items in one order.", map[string]string{"lines": "At most 50 lines."})
	}
	for _, ln := range in.Lines {
		if strings.TrimSpace(ln.ProductID) == "" || ln.Quantity < 1 || ln.Quantity > MaxQuantity {
			return apperr.InvalidErr("Each item needs a product and a quantity between 1 and 999.", map[string]string{
				"lines": "Invalid product or quantity.",
			})
		}
	}
	return nil
}

// Place creates an order for one shop. Stock is deducted and the voucher
// consumed in the same transaction; the whole transaction is retried on
// deadlock or lock timeout.
func (s *Service) Place(ctx context.Context, in PlaceInput) (Order, error) {
	if err := in.validate(); err != nil {
		return Order{}, err
	}

	var out Order
	err := db.WithTxRetry(ctx, s.db, txAttempts, func(tx *gorm.DB) error {
		o, err := s.placeTx(ctx, tx, in)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		var oos *OutOfStockError
		if errors.As(err, &oos) {
			return Order{}, apperr.ConflictErr("Some items are out of stock.").WithErr(oos)
		}
		var pu *ProductUnavailableError
		if errors.As(err, &pu) {
			return Order{}, apperr.InvalidErr("Some items are no longer available.", map[string]string{
				"lines": strings.Join(pu.ProductIDs, ","),
			}).WithErr(pu)
		}
		return Order{}, apperr.Wrap(err)
	}
	return out, nil
}

// lineTotal reports false when price*qty does not fit in int64.
func lineTotal(price int64, qty int) (int64, bool) {
	if price < 0 || qty < 0 {
		return 0, false
	}
	if qty > 0 && price > math.MaxInt64/int64(qty) {
		return 0, false
	}
	return price * int64(qty), true
}

func (s *Service) placeTx(ctx context.Context, tx *gorm.DB, in PlaceInput) (Order, error) {
	var shop shops.Shop
	if err := tx.First(&shop, "id = ? AND status = ?", in.ShopID, shops.StatusActive).Error; err != nil {
		if db.IsNotFound(err) {
			return Order{}, ErrShopUnavailable
		}
		return Order{}, err
	}
	if shop.OwnerID == in.CustomerID {
		return Order{}, ErrOwnShop
	}

	stock := make([]StockLine, 0, len(in.Lines))
	for _, ln := range in.Lines {
		stock = append(stock, StockLine{ProductID: ln.ProductID, Qty: ln.Quantity})
	}
	want, ids := mergeLines(stock)

	var found []products.Product
	if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return Order{}, err
	}
	byID := make(map[string]products.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	var unavailable []string
	currency := ""
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || p.ShopID != shop.ID || p.Status != products.StatusActive {
			unavailable = append(unavailable, id)
			continue
		}
		if currency == "" {
			currency = p.Currency
		} else if p.Currency != currency {
			return Order{}, ErrCurrencyMismatch
		}
	}
	if len(unavailable) > 0 {
		return Order{}, &ProductUnavailableError{ProductIDs: unavailable}
	}

	if err := DeductStockInTx(ctx, tx, stock); err != nil {
		return Order{}, err
	}

	now := s.now()
	o := Order{
		ID:         uuid.NewString(),
		ShopID:     shop.ID,
		CustomerID: in.CustomerID,
		Status:     StatusCreated,
		Currency:   currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	items := make([]OrderItem, 0, len(ids))
	for _, id := range ids {
		p := byID[id]
		qty := want[id]
		line, ok := lineTotal(p.PriceCents, qty)
		if !ok || line > math.MaxInt64-o.SubtotalCents {
			return Order{}, ErrTotalTooLarge
		}
		o.SubtotalCents += line
		items = append(items, OrderItem{
			ID:             uuid.NewString(),
			OrderID:        o.ID,
			ProductID:      p.ID,
			ProductName:    p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       qty,
			LineTotalCents: line,
			CreatedAt:      now,
		})
	}

	if code := strings.TrimSpace(in.VoucherCode); code != "" {
		v, discount, err := vouchers.RedeemTx(ctx, tx, shop.ID, code, o.SubtotalCents, now)
		if err != nil {
			return Order{}, err
		}
		o.DiscountCents = discount
		o.VoucherCode = &v.Code
	}
	o.TotalCents = o.SubtotalCents - o.DiscountCents

	if err := tx.Omit(clause.Associations).Create(&o).Error; err != nil {
		return Order{}, err
	}
	if err := tx.Create(&items).Error; err != nil {
		return Order{}, err
	}
	ev := OrderEvent{
		ID:          uuid.NewString(),
		OrderID:     o.ID,
		ActorUserID: in.CustomerID,
		Action:      ActionPlace,
		FromStatus:  "",
		ToStatus:    StatusCreated,
		CreatedAt:   now,
	}
	if err := tx.Create(&ev).Error; err != nil {
		return Order{}, err
	}

	o.Items = items
	return o, nil
}

func (s *Service) List(ctx context.Context, in ListParams) (pagination.Page[Order], error) {
	if in.Status != "" && !ValidStatus(in.Status) {
		return pagination.Page[Order]{}, apperr.InvalidErr("Unknown order status.", map[string]string{"status": "Unknown status."})
	}
	items, total, err := s.repo.List(ctx, in)
	if err != nil {
		return pagination.Page[Order]{}, apperr.Wrap(err)
	}
	return pagination.NewPage(items, in.Page, total), nil
}

// Scope restricts Get to orders a caller may see. Empty fields do not restrict.
type Scope struct {
	CustomerID string
	ShopID     string
}

func (s *Service) Get(ctx context.Context, id string, scope Scope) (Detail, error) {
	o, err := s.repo.GetWithItems(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Detail{}, ErrOrderNotFound
		}
		return Detail{}, apperr.Wrap(err)
	}
	if (scope.CustomerID != "" && o.CustomerID != scope.CustomerID) ||
		(scope.ShopID != "" && o.ShopID != scope.ShopID) {
		return Detail{}, ErrOrderNotFound
	}
	ev, err := s.repo.Events(ctx, id)
	if err != nil {
		return Detail{}, apperr.Wrap(err)
	}
	if ev == nil {
		ev = []OrderEvent{}
	}
	return Detail{Order: o, Events: ev}, nil
}
