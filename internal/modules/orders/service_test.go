package orders

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"marketly.com/app/internal/db/dbtest"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/modules/vouchers"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

type fixture struct {
	svc      *Service
	db       *gorm.DB
	shop     shops.Shop
	seller   users.User
	customer users.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	gdb := dbtest.Open(t,
		&users.User{}, &shops.Shop{}, &products.Category{}, &products.Product{}, &products.Image{},
		&vouchers.Voucher{}, &Order{}, &OrderItem{}, &OrderEvent{},
	)
	f := fixture{svc: NewService(gdb), db: gdb}
	f.seller = f.user(t, users.RoleSeller)
	f.customer = f.user(t, users.RoleCustomer)
	f.shop = f.newShop(t, f.seller.ID, "shop-"+uuid.NewString()[:8], shops.StatusActive)
	return f
}

func (f fixture) user(t *testing.T, role users.Role) users.User {
	t.Helper()
	u := users.User{ID: uuid.NewString(), Email: uuid.NewString() + "@x.test", PasswordHash: "x", Name: "U", Role: role}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

func (f fixture) newShop(t *testing.T, ownerID, slug, status string) shops.Shop {
	t.Helper()
	sh := shops.Shop{ID: uuid.NewString(), OwnerID: ownerID, Name: slug, Slug: slug, Status: status,
		Settings: datatypes.NewJSONType(shops.DefaultSettings())}
	require.NoError(t, f.db.Create(&sh).Error)
	return sh
}

func (f fixture) product(t *testing.T, shopID string, price int64, stock int, status, currency string) products.Product {
	t.Helper()
	p := products.Product{
		ID: uuid.NewString(), ShopID: shopID, Name: "P " + uuid.NewString()[:6], Slug: uuid.NewString(),
		PriceCents: price, Currency: currency, Stock: stock, Status: status,
	}
	require.NoError(t, f.db.Omit("Shop", "Category", "Images").Create(&p).Error)
	return p
}

func (f fixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	var p products.Product
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func TestPlaceDeductsStockAndAppliesVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, f.shop.ID, 1000, 5, products.StatusActive, "USD")
	b := f.product(t, f.shop.ID, 250, 10, products.StatusActive, "USD")

	_, err := vouchers.NewService(f.db).Create(ctx, f.shop.ID, vouchers.CreateInput{Code: "TEN", Kind: vouchers.KindPercent, Value: 10})
	require.NoError(t, err)

	o, err := f.svc.Place(ctx, PlaceInput{
		CustomerID:  f.customer.ID,
		ShopID:      f.shop.ID,
		Lines:       []Line{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}, {ProductID: a.ID, Quantity: 1}},
		VoucherCode: "ten",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, o.Status)
	assert.Equal(t, int64(3250), o.SubtotalCents)
	assert.Equal(t, int64(325), o.DiscountCents)
	assert.Equal(t, int64(2925), o.TotalCents)
	require.NotNil(t, o.VoucherCode)
	assert.Equal(t, "TEN", *o.VoucherCode)
	assert.Len(t, o.Items, 2)

	assert.Equal(t, 2, f.stockOf(t, a.ID))
	assert.Equal(t, 9, f.stockOf(t, b.ID))

	var v vouchers.Voucher
	require.NoError(t, f.db.First(&v, "code = ?", "TEN").Error)
	assert.Equal(t, 1, v.UsedCount)

	d, err := f.svc.Get(ctx, o.ID, Scope{CustomerID: f.customer.ID})
	require.NoError(t, err)
	require.Len(t, d.Events, 1)
	assert.Equal(t, ActionPlace, d.Events[0].Action)

	_, err = f.svc.Get(ctx, o.ID, Scope{CustomerID: f.seller.ID})
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestPlaceOutOfStockLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product(t, f.shop.ID, 100, 1, products.StatusActive, "USD")
	b := f.product(t, f.shop.ID, 100, 3, products.StatusActive, "USD")

	_, err := f.svc.Place(ctx, PlaceInput{
		CustomerID: f.customer.ID,
		ShopID:     f.shop.ID,
		Lines:      []Line{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Conflict))

	var oos *OutOfStockError
	require.True(t, errors.As(err, &oos))
	require.Len(t, oos.Items, 1)
	assert.Equal(t, OutOfStockItem{ProductID: a.ID, Requested: 2, Available: 1}, oos.Items[0])

	assert.Equal(t, 1, f.stockOf(t, a.ID))
	assert.Equal(t, 3, f.stockOf(t, b.ID))
	var n int64
	require.NoError(t, f.db.Model(&Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPlaceRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usd := f.product(t, f.shop.ID, 100, 5, products.StatusActive, "USD")
	eur := f.product(t, f.shop.ID, 100, 5, products.StatusActive, "EUR")
	draft := f.product(t, f.shop.ID, 100, 5, products.StatusDraft, "USD")
	otherShop := f.newShop(t, f.user(t, users.RoleSeller).ID, "other", shops.StatusActive)
	foreign := f.product(t, otherShop.ID, 100, 5, products.StatusActive, "USD")
	suspended := f.newShop(t, f.user(t, users.RoleSeller).ID, "sus", shops.StatusSuspended)

	tests := []struct {
		name string
		in   PlaceInput
		kind apperr.Kind
	}{
		{"no lines", PlaceInput{CustomerID: f.customer.ID, ShopID: f.shop.ID}, apperr.Invalid},
		{"zero quantity", PlaceInput{CustomerID: f.customer.ID, ShopID: f.shop.ID, Lines: []Line{{ProductID: usd.ID}}}, apperr.Invalid},
		{"mixed currency", PlaceInput{CustomerID: f.customer.ID, ShopID: f.shop.ID, Lines: []Line{{usd.ID, 1}, {eur.ID, 1}}}, apperr.Invalid},
		{"draft product", PlaceInput{CustomerID: f.customer.ID, ShopID: f.shop.ID, Lines: []Line{{draft.ID, 1}}}, apperr.Invalid},
		{"other shop product", PlaceInput{CustomerID: f.customer.ID, ShopID: f.shop.ID, Lines: []Line{{foreign.ID, 1}}}, apperr.Invalid},
		{"suspended shop", PlaceInput{CustomerID: f.customer.ID, ShopID: suspended.ID, Lines: []Line{{usd.ID, 1}}}, apperr.Invalid},
		{"own shop", PlaceInput{CustomerID: f.seller.ID, ShopID: f.shop.ID, Lines: []Line{{usd.ID, 1}}}, apperr.Invalid},
		{"unknown voucher", PlaceInput{CustomerID: f.customer.ID, ShopID: f.shop.ID, Lines: []Line{{usd.ID, 1}}, VoucherCode: "NOPE"}, apperr.Invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Place(ctx, tt.in)
			assert.True(t, apperr.IsKind(err, tt.kind), "got %v", err)
		})
	}
	assert.Equal(t, 5, f.stockOf(t, usd.ID))
}

func TestPlaceRejectsTotalsThatOverflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Written directly: product validation caps prices far below this.
	big := f.product(t, f.shop.ID, 100_000_000_000_000_000, 1000, products.StatusActive, "USD")

	_, err := f.svc.Place(ctx, PlaceInput{
		CustomerID: f.customer.ID,
		ShopID:     f.shop.ID,
		Lines:      []Line{{ProductID: big.ID, Quantity: 100}},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Invalid), err)
	assert.ErrorIs(t, err, ErrTotalTooLarge)
	assert.Equal(t, 1000, f.stockOf(t, big.ID))

	var n int64
	require.NoError(t, f.db.Model(&Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestLineTotal(t *testing.T) {
	for _, tc := range []struct {
		name  string
		price int64
		qty   int
		want  int64
		ok    bool
	}{
		{"simple", 1250, 3, 3750, true},
		{"zero qty", 1250, 0, 0, true},
		{"max fits", math.MaxInt64, 1, math.MaxInt64, true},
		{"overflow", math.MaxInt64/2 + 1, 2, 0, false},
		{"negative price", -1, 1, 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := lineTotal(tc.price, tc.qty)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from, action, to string
		ok               bool
	}{
		{StatusCreated, ActionPay, StatusPaid, true},
		{StatusPaid, ActionShip, StatusShipped, true},
		{StatusShipped, ActionDeliver, StatusDelivered, true},
		{StatusCreated, ActionCancel, StatusCancelled, true},
		{StatusPaid, ActionCancel, StatusCancelled, true},
		{StatusPaid, ActionRefund, StatusRefunded, true},
		{StatusDelivered, ActionRefund, StatusRefunded, true},
		{StatusShipped, ActionCancel, "", false},
		{StatusCreated, ActionShip, "", false},
		{StatusCreated, ActionRefund, "", false},
		{StatusCancelled, ActionPay, "", false},
		{StatusCreated, "teleport", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"_"+tt.action, func(t *testing.T) {
			to, err := NextStatus(tt.from, tt.action)
			if !tt.ok {
				assert.True(t, apperr.IsKind(err, apperr.Invalid))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestTransitionLifecycleAndCancelRestocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.shop.ID, 500, 4, products.StatusActive, "USD")
	_, err := vouchers.NewService(f.db).Create(ctx, f.shop.ID, vouchers.CreateInput{Code: "FIVE", Kind: vouchers.KindFixed, Value: 5})
	require.NoError(t, err)

	place := func() Order {
		o, err := f.svc.Place(ctx, PlaceInput{CustomerID: f.customer.ID, ShopID: f.shop.ID, Lines: []Line{{p.ID, 2}}, VoucherCode: "FIVE"})
		require.NoError(t, err)
		return o
	}

	o := place()
	step := func(id, action string) (Order, error) {
		return f.svc.Transition(ctx, TransitionInput{OrderID: id, ShopID: f.shop.ID, ActorUserID: f.seller.ID, Action: action, Note: " ok "})
	}

	paid, err := step(o.ID, ActionPay)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	_, err = step(o.ID, ActionDeliver)
	assert.True(t, apperr.IsKind(err, apperr.Invalid))

	for _, a := range []string{ActionShip, ActionDeliver, ActionRefund} {
		_, err = step(o.ID, a)
		require.NoError(t, err, a)
	}
	d, err := f.svc.Get(ctx, o.ID, Scope{ShopID: f.shop.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, d.Status)
	assert.Len(t, d.Events, 5)
	require.NotNil(t, d.Events[len(d.Events)-1].Note)

	second := place()
	assert.Equal(t, 0, f.stockOf(t, p.ID))
	_, err = step(second.ID, ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, 2, f.stockOf(t, p.ID))

	var v vouchers.Voucher
	require.NoError(t, f.db.First(&v, "code = ?", "FIVE").Error)
	assert.Equal(t, 1, v.UsedCount)

	otherShop := f.newShop(t, f.user(t, users.RoleSeller).ID, "elsewhere", shops.StatusActive)
	_, err = f.svc.Transition(ctx, TransitionInput{OrderID: second.ID, ShopID: otherShop.ID, ActorUserID: f.seller.ID, Action: ActionRefund})
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestListScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.shop.ID, 100, 100, products.StatusActive, "USD")
	other := f.user(t, users.RoleCustomer)

	var first Order
	for i, cust := range []string{f.customer.ID, f.customer.ID, other.ID} {
		o, err := f.svc.Place(ctx, PlaceInput{CustomerID: cust, ShopID: f.shop.ID, Lines: []Line{{p.ID, 1}}})
		require.NoError(t, err)
		if i == 0 {
			first = o
		}
	}
	_, err := f.svc.Transition(ctx, TransitionInput{OrderID: first.ID, ActorUserID: f.seller.ID, Action: ActionPay})
	require.NoError(t, err)

	pg := pagination.Params{Page: 1, PageSize: 20}

	mine, err := f.svc.List(ctx, ListParams{CustomerID: f.customer.ID, Page: pg})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)
	assert.Len(t, mine.Items[0].Items, 1)

	paid, err := f.svc.List(ctx, ListParams{ShopID: f.shop.ID, Status: StatusPaid, Page: pg})
	require.NoError(t, err)
	assert.Equal(t, int64(1), paid.Total)

	byPrefix, err := f.svc.List(ctx, ListParams{Q: first.ID[:8], Page: pg})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byPrefix.Total)

	_, err = f.svc.List(ctx, ListParams{Status: "lost", Page: pg})
	assert.True(t, apperr.IsKind(err, apperr.Invalid))
}
