package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/flash"
	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/http/render"
	"marketly.com/app/internal/http/validation"
	"marketly.com/app/internal/modules/chat"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
	"marketly.com/app/pkg/view"
)

// PageHandlers serves the server-rendered storefront, seller settings and
// chat pages.
type PageHandlers struct {
	products *products.Service
	shops    *shops.Service
	users    *users.Service
	chat     *chat.Service
	sessions Sessions
	flash    *flash.Codec
}

func NewPageHandlers(productsSvc *products.Service, shopsSvc *shops.Service, usersSvc *users.Service,
	chatSvc *chat.Service, sessions Sessions, flashCodec *flash.Codec) *PageHandlers {
	return &PageHandlers{
		products: productsSvc,
		shops:    shopsSvc,
		users:    usersSvc,
		chat:     chatSvc,
		sessions: sessions,
		flash:    flashCodec,
	}
}

func centsString(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

// GET /
func (h *PageHandlers) Home(c *gin.Context) {
	f, fields := storefrontFilter(c)
	data := view.StorefrontPage{
		Heading: "All products",
		Filter: view.StorefrontFilter{
			Q:        f.Q,
			Category: f.Category,
			Shop:     f.Shop,
			MinPrice: c.Query("min_price"),
			MaxPrice: c.Query("max_price"),
			Sort:     f.Sort,
		},
		Errors: fields,
	}
	if f.Q != "" {
		data.Heading = "Results for “" + f.Q + "”"
	}

	cats, err := h.products.Categories(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	data.Categories = cats

	if len(fields) > 0 {
		render.HTML(c, http.StatusBadRequest, "home", view.Page{Section: "store", Data: data})
		return
	}

	status := http.StatusOK
	page, err := h.products.Storefront(c.Request.Context(), f)
	switch {
	case err == nil:
		data.Products = page.Items
		data.Pager = view.NewPager("/", c.Request.URL.Query(), page.Page, page.TotalPages, page.Total)
		data.Filter.MinPrice = centsString(f.MinPrice)
		data.Filter.MaxPrice = centsString(f.MaxPrice)
	case apperr.IsKind(err, apperr.Invalid):
		ae, _ := apperr.As(err)
		data.Errors = ae.Fields
		status = http.StatusBadRequest
	default:
		middleware.Fail(c, err)
		return
	}
	render.HTML(c, status, "home", view.Page{Section: "store", Data: data})
}

// GET /products/:slug
func (h *PageHandlers) Product(c *gin.Context) {
	d, err := h.products.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	render.HTML(c, http.StatusOK, "product", view.Page{Title: d.Name, Section: "store", Data: view.ProductPage{Product: d}})
}

// GET /shops/:slug
func (h *PageHandlers) Shop(c *gin.Context) {
	sh, err := h.shops.PublicBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	page, err := h.products.Storefront(c.Request.Context(), products.StorefrontFilter{
		Shop: sh.Slug,
		Sort: products.SortNewest,
		Page: pageParams(c, pagination.DefaultStorefrontSize),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	render.HTML(c, http.StatusOK, "shop", view.Page{Title: sh.Name, Section: "store", Data: view.ShopPage{
		Shop:     sh,
		Products: page.Items,
		Pager:    view.NewPager(c.Request.URL.Path, c.Request.URL.Query(), page.Page, page.TotalPages, page.Total),
	}})
}

// GET /chat
func (h *PageHandlers) Chat(c *gin.Context) {
	page, err := h.chat.Conversations(c.Request.Context(), middleware.MustUser(c).ID, pageParams(c, pagination.DefaultDashboardSize))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	render.HTML(c, http.StatusOK, "chat", view.Page{Title: "Messages", Section: "chat", Data: view.ChatPage{
		Conversations: page.Items,
		Pager:         view.NewPager("/chat", c.Request.URL.Query(), page.Page, page.TotalPages, page.Total),
	}})
}

type shopSettingsForm struct {
	Name         string `form:"name" binding:"required,max=120"`
	Description  string `form:"description" binding:"max=4000"`
	LogoURL      string `form:"logo_url" binding:"omitempty,url,max=512"`
	Currency     string `form:"currency" binding:"omitempty,len=3,alpha"`
	AcceptsChat  bool   `form:"accepts_chat"`
	ReturnPolicy string `form:"return_policy" binding:"max=4000"`
}

// GET /seller/settings
func (h *PageHandlers) ShopSettingsGet(c *gin.Context) {
	data := view.ShopSettingsPage{Form: view.Form[view.ShopForm]{Values: view.ShopForm{Currency: "USD", AcceptsChat: true}}}

	sh, err := h.shops.ForOwner(c.Request.Context(), middleware.MustUser(c).ID)
	switch {
	case err == nil:
		st := sh.Settings.Data()
		data.HasShop = true
		data.Slug = sh.Slug
		data.Form.Values = view.ShopForm{
			Name:         sh.Name,
			Description:  sh.Description,
			LogoURL:      sh.LogoURL,
			Currency:     st.Currency,
			AcceptsChat:  st.AcceptsChat,
			ReturnPolicy: st.ReturnPolicy,
		}
	case !errors.Is(err, shops.ErrNoShop):
		middleware.Fail(c, err)
		return
	}
	render.HTML(c, http.StatusOK, "seller_settings", view.Page{Title: "Shop settings", Section: "seller", Data: data})
}

// POST /seller/settings creates the shop on first submit and updates it after.
func (h *PageHandlers) ShopSettingsPost(c *gin.Context) {
	u := middleware.MustUser(c)
	ctx := c.Request.Context()

	var in shopSettingsForm
	bindErr := c.ShouldBind(&in)
	values := view.ShopForm{
		Name:         in.Name,
		Description:  in.Description,
		LogoURL:      in.LogoURL,
		Currency:     in.Currency,
		AcceptsChat:  in.AcceptsChat,
		ReturnPolicy: in.ReturnPolicy,
	}

	existing, err := h.shops.ForOwner(ctx, u.ID)
	hasShop := err == nil
	if err != nil && !errors.Is(err, shops.ErrNoShop) {
		middleware.Fail(c, err)
		return
	}

	rerender := func(status int, fields map[string]string, msg string) {
		render.HTML(c, status, "seller_settings", view.Page{Title: "Shop settings", Section: "seller", Data: view.ShopSettingsPage{
			HasShop: hasShop,
			Slug:    existing.Slug,
			Form:    view.Form[view.ShopForm]{Values: values, Errors: fields, Message: msg},
		}})
	}
	if bindErr != nil {
		rerender(http.StatusBadRequest, validation.FromBindError(bindErr, &in), "")
		return
	}

	settings := &shops.Settings{Currency: in.Currency, AcceptsChat: in.AcceptsChat, ReturnPolicy: in.ReturnPolicy}
	if hasShop {
		_, err = h.shops.Update(ctx, u.ID, shops.UpdateInput{
			Name:        &in.Name,
			Description: &in.Description,
			LogoURL:     &in.LogoURL,
			Settings:    shops.ReplaceSettings(*settings),
		})
	} else {
		_, err = h.shops.Create(ctx, u.ID, shops.CreateInput{
			Name:        in.Name,
			Description: in.Description,
			LogoURL:     in.LogoURL,
			Settings:    settings,
		})
	}
	if err != nil {
		if ae, ok := apperr.As(err); ok && ae.Kind != apperr.Internal {
			rerender(apperr.HTTPStatus(err), ae.Fields, ae.PublicMsg)
			return
		}
		middleware.Fail(c, err)
		return
	}

	if hasShop {
		render.RedirectWithFlash(c, h.flash, "/seller/settings", view.FlashSuccess, "Shop settings saved.")
		return
	}
	fresh, err := h.users.Get(ctx, u.ID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if _, _, err := h.sessions.SignIn(c, fresh); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	render.RedirectWithFlash(c, h.flash, "/seller", view.FlashSuccess, "Your shop is open.")
}
