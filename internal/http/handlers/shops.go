package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

type ShopHandlers struct {
	shops    *shops.Service
	users    *users.Service
	sessions Sessions
}

func NewShopHandlers(shopsSvc *shops.Service, usersSvc *users.Service, sessions Sessions) *ShopHandlers {
	return &ShopHandlers{shops: shopsSvc, users: usersSvc, sessions: sessions}
}

// GET /api/shops
func (h *ShopHandlers) List(c *gin.Context) {
	page, err := h.shops.ListActive(c.Request.Context(), strings.TrimSpace(c.Query("q")), pageParams(c, pagination.DefaultStorefrontSize))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/shops/:slug
func (h *ShopHandlers) Get(c *gin.Context) {
	p, err := h.shops.PublicBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type settingsRequest struct {
	Currency     string `json:"currency" binding:"omitempty,len=3,alpha"`
	AcceptsChat  bool   `json:"accepts_chat"`
	ReturnPolicy string `json:"return_policy" binding:"max=4000"`
}

func (r *settingsRequest) toSettings() *shops.Settings {
	if r == nil {
		return nil
	}
	return &shops.Settings{Currency: r.Currency, AcceptsChat: r.AcceptsChat, ReturnPolicy: r.ReturnPolicy}
}

type createShopRequest struct {
	Name        string           `json:"name" binding:"required,max=120"`
	Description string           `json:"description" binding:"max=4000"`
	LogoURL     string           `json:"logo_url" binding:"omitempty,url,max=512"`
	Settings    *settingsRequest `json:"settings"`
}

// POST /api/seller/shop
func (h *ShopHandlers) Create(c *gin.Context) {
	var in createShopRequest
	if !bindJSON(c, &in) {
		return
	}
	u := middleware.MustUser(c)
	sh, err := h.shops.Create(c.Request.Context(), u.ID, shops.CreateInput{
		Name:        in.Name,
		Description: in.Description,
		LogoURL:     in.LogoURL,
		Settings:    in.Settings.toSettings(),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if err := h.refreshSession(c, u.ID); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sh)
}

// refreshSession re-issues the token so the new seller role takes effect.
func (h *ShopHandlers) refreshSession(c *gin.Context, userID string) error {
	fresh, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		return err
	}
	if _, _, err := h.sessions.SignIn(c, fresh); err != nil {
		return apperr.Wrap(err)
	}
	return nil
}

// GET /api/seller/shop
func (h *ShopHandlers) Mine(c *gin.Context) {
	sh, err := h.shops.ForOwner(c.Request.Context(), middleware.MustUser(c).ID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

type updateShopRequest struct {
	Name        *string               `json:"name" binding:"omitempty,max=120"`
	Description *string               `json:"description" binding:"omitempty,max=4000"`
	LogoURL     *string               `json:"logo_url" binding:"omitzero,url,max=512"`
	Settings    *settingsPatchRequest `json:"settings"`
}

// settingsPatchRequest leaves absent fields unchanged.
type settingsPatchRequest struct {
	Currency     *string `json:"currency" binding:"omitzero,len=3,alpha"`
	AcceptsChat  *bool   `json:"accepts_chat"`
	ReturnPolicy *string `json:"return_policy" binding:"omitempty,max=4000"`
}

func (r *settingsPatchRequest) toPatch() *shops.SettingsPatch {
	if r == nil {
		return nil
	}
	return &shops.SettingsPatch{Currency: r.Currency, AcceptsChat: r.AcceptsChat, ReturnPolicy: r.ReturnPolicy}
}

// PUT /api/seller/shop
func (h *ShopHandlers) Update(c *gin.Context) {
	var in updateShopRequest
	if !bindJSON(c, &in) {
		return
	}
	sh, err := h.shops.Update(c.Request.Context(), middleware.MustUser(c).ID, shops.UpdateInput{
		Name:        in.Name,
		Description: in.Description,
		LogoURL:     in.LogoURL,
		Settings:    in.Settings.toPatch(),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}
