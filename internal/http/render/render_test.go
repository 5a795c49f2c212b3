package render

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketly.com/app/internal/modules/dashboard"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/pkg/view"
	"marketly.com/app/templates"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(templates.FS, "Marketly")
	require.NoError(t, err)
	return e
}

func renderPage(t *testing.T, e *Engine, name string, p view.Page) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HTMLRender = e
	r.Use(Use(e))
	r.GET("/", func(c *gin.Context) { HTML(c, http.StatusOK, name, p) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestEngineParsesEveryPage(t *testing.T) {
	e := newEngine(t)
	for _, name := range []string{"home", "product", "shop", "login", "register", "seller", "seller_settings", "admin", "chat", "error"} {
		assert.True(t, e.Has(name), name)
	}
}

func TestRenderPages(t *testing.T) {
	e := newEngine(t)
	card := products.Card{Slug: "blue-mug", Name: "Blue <Mug>", Price: "$12.00", InStock: true,
		Shop: shops.Summary{Name: "Cups", Slug: "cups"}}
	shop := shops.Shop{Name: "Cups", Slug: "cups"}

	tests := []struct {
		name string
		page view.Page
		want string
	}{
		{"home", view.Page{Data: view.StorefrontPage{Heading: "All products", Products: []products.Card{card},
			Pager: view.Pager{Page: 1, TotalPages: 2, NextURL: "/?page=2"}}}, "Blue &lt;Mug&gt;"},
		{"home", view.Page{Data: view.StorefrontPage{Heading: "Nothing", Errors: map[string]string{"min_price": "Must be 0 or more."}}}, "Must be 0 or more."},
		{"product", view.Page{Data: view.ProductPage{Product: products.Detail{Card: card, Stock: 3}}}, "3 in stock"},
		{"shop", view.Page{Data: view.ShopPage{Shop: shops.Public{Summary: shop.Summary(), CreatedAt: time.Now()}}}, "This shop has no products yet."},
		{"login", view.Page{Data: view.Form[view.LoginForm]{Values: view.LoginForm{Email: "a@b.co"}, Message: "Invalid email or password."}}, "Invalid email or password."},
		{"register", view.Page{Data: view.Form[view.RegisterForm]{Errors: map[string]string{"email": "Taken."}}}, "Taken."},
		{"seller", view.Page{Data: view.SellerDashboardPage{Shop: shop, Stats: dashboard.SellerStats{ActiveVouchers: 4},
			Orders: []view.StatusCount{{Status: "paid", Count: 2}}}}, "Active vouchers"},
		{"seller_settings", view.Page{Data: view.ShopSettingsPage{Form: view.Form[view.ShopForm]{Values: view.ShopForm{Currency: "USD"}}}}, "Open your shop"},
		{"admin", view.Page{Section: "admin", User: &view.User{Email: "root@x.io", Role: "admin"},
			Data: view.AdminDashboardPage{Stats: dashboard.AdminStats{TotalOrders: 9}}}, "Platform overview"},
		{"chat", view.Page{Data: view.ChatPage{}}, "No conversations yet."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := renderPage(t, e, tt.name, tt.page)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.want)
			assert.Contains(t, w.Body.String(), "Marketly")
		})
	}
}

func TestErrorPage(t *testing.T) {
	e := newEngine(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HTMLRender = e
	r.GET("/", func(c *gin.Context) { ErrorPage(c, http.StatusNotFound, "Product not found.", "rid-1") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Product not found.")
	assert.Contains(t, w.Body.String(), "rid-1")
}
