package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"marketly.com/app/internal/db/dbtest"
	"marketly.com/app/internal/modules/chat"
	"marketly.com/app/internal/modules/orders"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/modules/vouchers"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t,
		&users.User{}, &shops.Shop{}, &products.Category{}, &products.Product{}, &products.Image{},
		&vouchers.Voucher{}, &orders.Order{}, &orders.OrderItem{}, &orders.OrderEvent{},
		&chat.Conversation{}, &chat.Message{},
	)
}

func seedUser(t *testing.T, gdb *gorm.DB, role users.Role) users.User {
	t.Helper()
	u := users.User{ID: uuid.NewString(), Email: uuid.NewString() + "@x.test", PasswordHash: "x", Name: "U", Role: role}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func seedShop(t *testing.T, gdb *gorm.DB, owner users.User, status string) shops.Shop {
	t.Helper()
	sh := shops.Shop{ID: uuid.NewString(), OwnerID: owner.ID, Name: "S", Slug: uuid.NewString(), Status: status,
		Settings: datatypes.NewJSONType(shops.DefaultSettings())}
	require.NoError(t, gdb.Create(&sh).Error)
	return sh
}

func TestSellerStatsEmptyShopIsAllZero(t *testing.T) {
	gdb := openDB(t)
	owner := seedUser(t, gdb, users.RoleSeller)
	sh := seedShop(t, gdb, owner, shops.StatusActive)

	st, err := NewService(gdb).Seller(context.Background(), sh)
	require.NoError(t, err)
	assert.Equal(t, ProductStats{}, st.Products)
	assert.Empty(t, st.Revenue)
	assert.NotNil(t, st.Revenue)
	assert.Zero(t, st.RecentOrders)
	assert.Zero(t, st.ActiveVouchers)
	assert.Zero(t, st.OpenConversations)
	assert.Len(t, st.OrdersByStatus, 6)
	for status, n := range st.OrdersByStatus {
		assert.Zero(t, n, status)
	}
}

func TestSellerAndAdminStats(t *testing.T) {
	gdb := openDB(t)
	ctx := context.Background()
	owner := seedUser(t, gdb, users.RoleSeller)
	customer := seedUser(t, gdb, users.RoleCustomer)
	seedUser(t, gdb, users.RoleAdmin)
	sh := seedShop(t, gdb, owner, shops.StatusActive)
	seedShop(t, gdb, seedUser(t, gdb, users.RoleSeller), shops.StatusSuspended)

	for _, p := range []products.Product{
		{Status: products.StatusActive, Stock: 3},
		{Status: products.StatusActive, Stock: 0},
		{Status: products.StatusDraft, Stock: 1},
		{Status: products.StatusArchived, Stock: 0},
	} {
		p.ID, p.ShopID, p.Name, p.Slug, p.Currency = uuid.NewString(), sh.ID, "P", uuid.NewString(), "USD"
		require.NoError(t, gdb.Omit("Shop", "Category", "Images").Create(&p).Error)
	}

	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	for _, o := range []orders.Order{
		{Status: orders.StatusPaid, TotalCents: 1000},
		{Status: orders.StatusDelivered, TotalCents: 2500, CreatedAt: old},
		{Status: orders.StatusCreated, TotalCents: 700},
		{Status: orders.StatusCancelled, TotalCents: 900},
	} {
		o.ID, o.ShopID, o.CustomerID, o.Currency, o.SubtotalCents = uuid.NewString(), sh.ID, customer.ID, "USD", o.TotalCents
		require.NoError(t, gdb.Omit("Items").Create(&o).Error)
	}

	_, err := vouchers.NewService(gdb).Create(ctx, sh.ID, vouchers.CreateInput{Code: "LIVE", Kind: vouchers.KindFixed, Value: 1})
	require.NoError(t, err)

	chatSvc := chat.NewService(gdb, nil)
	conv, err := chatSvc.Start(ctx, customer.ID, sh.ID)
	require.NoError(t, err)
	_, err = chatSvc.Send(ctx, customer.ID, conv.ID, "hello")
	require.NoError(t, err)

	svc := NewService(gdb)
	st, err := svc.Seller(ctx, sh)
	require.NoError(t, err)

	assert.Equal(t, ProductStats{Total: 3, Active: 2, OutOfStock: 1}, st.Products)
	assert.Equal(t, int64(1), st.OrdersByStatus[orders.StatusPaid])
	assert.Equal(t, int64(1), st.OrdersByStatus[orders.StatusCancelled])
	assert.Equal(t, []Amount{{Currency: "USD", Cents: 3500, Display: "$35.00"}}, st.Revenue)
	assert.Equal(t, []Amount{{Currency: "USD", Cents: 1000, Display: "$10.00"}}, st.RecentRevenue)
	assert.Equal(t, int64(3), st.RecentOrders)
	assert.Equal(t, int64(1), st.ActiveVouchers)
	assert.Equal(t, int64(1), st.OpenConversations)

	adm, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), adm.UsersByRole["customer"])
	assert.Equal(t, int64(2), adm.UsersByRole["seller"])
	assert.Equal(t, int64(1), adm.UsersByRole["admin"])
	assert.Equal(t, int64(1), adm.ShopsByStatus[shops.StatusActive])
	assert.Equal(t, int64(1), adm.ShopsByStatus[shops.StatusSuspended])
	assert.Equal(t, int64(4), adm.TotalOrders)
	assert.Equal(t, []Amount{{Currency: "USD", Cents: 3500, Display: "$35.00"}}, adm.GMV)
}
