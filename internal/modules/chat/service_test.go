package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"marketly.com/app/internal/db/dbtest"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

type recorder struct {
	mu     sync.Mutex
	events []struct {
		to []string
		v  any
	}
}

func (r *recorder) Publish(userIDs []string, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, struct {
		to []string
		v  any
	}{userIDs, v})
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	pub      *recorder
	owner    users.User
	customer users.User
	shop     shops.Shop
}

func newFixture(t *testing.T, settings shops.Settings) fixture {
	t.Helper()
	gdb := dbtest.Open(t, &users.User{}, &shops.Shop{}, &Conversation{}, &Message{})
	pub := &recorder{}
	f := fixture{svc: NewService(gdb, pub), db: gdb, pub: pub}
	f.owner = f.user(t, "Owner")
	f.customer = f.user(t, "Customer")
	f.shop = shops.Shop{ID: uuid.NewString(), OwnerID: f.owner.ID, Name: "Shop", Slug: "shop-" + uuid.NewString()[:6],
		Status: shops.StatusActive, Settings: datatypes.NewJSONType(settings)}
	require.NoError(t, gdb.Create(&f.shop).Error)
	return f
}

func (f fixture) user(t *testing.T, name string) users.User {
	t.Helper()
	u := users.User{ID: uuid.NewString(), Email: uuid.NewString() + "@x.test", PasswordHash: "x", Name: name, Role: users.RoleCustomer}
	require.NoError(t, f.db.Create(&u).Error)
	return u
}

var firstPage = pagination.Params{Page: 1, PageSize: 20}

func TestStartIsIdempotent(t *testing.T) {
	f := newFixture(t, shops.DefaultSettings())
	ctx := context.Background()

	a, err := f.svc.Start(ctx, f.customer.ID, f.shop.ID)
	require.NoError(t, err)
	b, err := f.svc.Start(ctx, f.customer.ID, f.shop.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	_, err = f.svc.Start(ctx, f.owner.ID, f.shop.ID)
	assert.True(t, apperr.IsKind(err, apperr.Invalid))

	_, err = f.svc.Start(ctx, f.customer.ID, "missing")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}

func TestStartRespectsShopSetting(t *testing.T) {
	f := newFixture(t, shops.Settings{Currency: "USD", AcceptsChat: false})
	_, err := f.svc.Start(context.Background(), f.customer.ID, f.shop.ID)
	assert.True(t, apperr.IsKind(err, apperr.Invalid))
}

func TestSendListAndRead(t *testing.T) {
	f := newFixture(t, shops.DefaultSettings())
	ctx := context.Background()
	c, err := f.svc.Start(ctx, f.customer.ID, f.shop.ID)
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, f.customer.ID, c.ID, "   ")
	assert.True(t, apperr.IsKind(err, apperr.Invalid))

	m1, err := f.svc.Send(ctx, f.customer.ID, c.ID, " Is this in stock? ")
	require.NoError(t, err)
	assert.Equal(t, "Is this in stock?", m1.Body)
	_, err = f.svc.Send(ctx, f.customer.ID, c.ID, "Hello?")
	require.NoError(t, err)

	require.Len(t, f.pub.events, 2)
	assert.ElementsMatch(t, []string{f.customer.ID, f.owner.ID}, f.pub.events[0].to)
	ev, ok := f.pub.events[0].v.(Event)
	require.True(t, ok)
	assert.Equal(t, "message", ev.Type)

	stranger := f.user(t, "Stranger")
	_, err = f.svc.Send(ctx, stranger.ID, c.ID, "hi")
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
	_, err = f.svc.Messages(ctx, stranger.ID, c.ID, firstPage)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))

	ownerView, err := f.svc.Conversations(ctx, f.owner.ID, firstPage)
	require.NoError(t, err)
	require.Len(t, ownerView.Items, 1)
	assert.Equal(t, int64(2), ownerView.Items[0].Unread)
	assert.Equal(t, "Customer", ownerView.Items[0].CustomerName)

	open, err := f.svc.CountOpenForShop(ctx, f.shop.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), open)

	n, err := f.svc.MarkRead(ctx, f.owner.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	open, err = f.svc.CountOpenForShop(ctx, f.shop.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, open)

	msgs, err := f.svc.Messages(ctx, f.owner.ID, c.ID, firstPage)
	require.NoError(t, err)
	assert.Equal(t, int64(2), msgs.Total)
	assert.NotNil(t, msgs.Items[0].ReadAt)

	customerView, err := f.svc.Conversations(ctx, f.customer.ID, firstPage)
	require.NoError(t, err)
	require.Len(t, customerView.Items, 1)
	assert.Zero(t, customerView.Items[0].Unread)
	assert.NotNil(t, customerView.Items[0].LastMessageAt)

	strangerView, err := f.svc.Conversations(ctx, stranger.ID, firstPage)
	require.NoError(t, err)
	assert.Empty(t, strangerView.Items)
}

func TestMissingConversation(t *testing.T) {
	f := newFixture(t, shops.DefaultSettings())
	_, err := f.svc.MarkRead(context.Background(), f.owner.ID, "nope")
	assert.True(t, apperr.IsKind(err, apperr.NotFound))
}
