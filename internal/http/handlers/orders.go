package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/orders"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

type OrderHandlers struct {
	orders *orders.Service
	shops  *shops.Service
}

func NewOrderHandlers(ordersSvc *orders.Service, shopsSvc *shops.Service) *OrderHandlers {
	return &OrderHandlers{orders: ordersSvc, shops: shopsSvc}
}

type orderLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=1"`
}

type placeOrderRequest struct {
	ShopID      string             `json:"shop_id" binding:"required"`
	Lines       []orderLineRequest `json:"lines" binding:"required,min=1,dive"`
	VoucherCode string             `json:"voucher_code" binding:"max=40"`
}

// POST /api/orders
func (h *OrderHandlers) Place(c *gin.Context) {
	var in placeOrderRequest
	if !bindJSON(c, &in) {
		return
	}
	lines := make([]orders.Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, orders.Line{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	o, err := h.orders.Place(c.Request.Context(), orders.PlaceInput{
		CustomerID:  middleware.MustUser(c).ID,
		ShopID:      in.ShopID,
		Lines:       lines,
		VoucherCode: strings.TrimSpace(in.VoucherCode),
	})
	if err != nil {
		if oos, ok := asOutOfStock(err); ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":      apperr.PublicMessage(err),
				"items":      oos.Items,
				"request_id": middleware.GetRequestID(c),
			})
			return
		}
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func asOutOfStock(err error) (*orders.OutOfStockError, bool) {
	var oos *orders.OutOfStockError
	return oos, errors.As(err, &oos)
}

// GET /api/orders
func (h *OrderHandlers) ListMine(c *gin.Context) {
	page, err := h.orders.List(c.Request.Context(), orders.ListParams{
		CustomerID: middleware.MustUser(c).ID,
		Status:     c.Query("status"),
		Page:       pageParams(c, pagination.DefaultDashboardSize),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/orders/:id
func (h *OrderHandlers) GetMine(c *gin.Context) {
	d, err := h.orders.Get(c.Request.Context(), c.Param("id"), orders.Scope{CustomerID: middleware.MustUser(c).ID})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/seller/orders
func (h *OrderHandlers) SellerList(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	page, err := h.orders.List(c.Request.Context(), orders.ListParams{
		ShopID: sh.ID,
		Status: c.Query("status"),
		Q:      strings.TrimSpace(c.Query("q")),
		Page:   pageParams(c, pagination.DefaultDashboardSize),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/seller/orders/:id
func (h *OrderHandlers) SellerGet(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	d, err := h.orders.Get(c.Request.Context(), c.Param("id"), orders.Scope{ShopID: sh.ID})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type transitionRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// POST /api/seller/orders/:id/:action
func (h *OrderHandlers) SellerTransition(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	h.transition(c, sh.ID)
}

func (h *OrderHandlers) transition(c *gin.Context, shopID string) {
	var in transitionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &in) {
		return
	}
	o, err := h.orders.Transition(c.Request.Context(), orders.TransitionInput{
		OrderID:     c.Param("id"),
		ShopID:      shopID,
		ActorUserID: middleware.MustUser(c).ID,
		Action:      c.Param("action"),
		Note:        strings.TrimSpace(in.Note),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
