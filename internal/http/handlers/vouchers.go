package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/vouchers"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

type VoucherHandlers struct {
	vouchers *vouchers.Service
	shops    *shops.Service
}

func NewVoucherHandlers(vouchersSvc *vouchers.Service, shopsSvc *shops.Service) *VoucherHandlers {
	return &VoucherHandlers{vouchers: vouchersSvc, shops: shopsSvc}
}

// GET /api/seller/vouchers
func (h *VoucherHandlers) List(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	status := c.Query("status")
	if status != "" && status != vouchers.StatusActive && status != vouchers.StatusDisabled {
		middleware.Fail(c, apperr.InvalidErr("Invalid query parameters.", map[string]string{"status": "Must be active or disabled."}))
		return
	}
	page, err := h.vouchers.List(c.Request.Context(), vouchers.ListParams{
		ShopID:    sh.ID,
		Status:    status,
		Q:         strings.TrimSpace(c.Query("q")),
		ActiveNow: parseBool(c.Query("active_now")),
		Page:      pageParams(c, pagination.DefaultDashboardSize),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type createVoucherRequest struct {
	Code          string     `json:"code" binding:"required"`
	Kind          string     `json:"kind" binding:"required,oneof=percent fixed"`
	Value         int64      `json:"value" binding:"gt=0"`
	MinOrderCents int64      `json:"min_order_cents" binding:"gte=0"`
	UsageLimit    int        `json:"usage_limit" binding:"gte=0"`
	StartsAt      *time.Time `json:"starts_at"`
	EndsAt        *time.Time `json:"ends_at"`
}

// POST /api/seller/vouchers
func (h *VoucherHandlers) Create(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	var in createVoucherRequest
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.vouchers.Create(c.Request.Context(), sh.ID, vouchers.CreateInput{
		Code:          in.Code,
		Kind:          in.Kind,
		Value:         in.Value,
		MinOrderCents: in.MinOrderCents,
		UsageLimit:    in.UsageLimit,
		StartsAt:      in.StartsAt,
		EndsAt:        in.EndsAt,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

type voucherStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active disabled"`
}

// PATCH /api/seller/vouchers/:id
func (h *VoucherHandlers) SetStatus(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	var in voucherStatusRequest
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.vouchers.SetStatus(c.Request.Context(), sh.ID, c.Param("id"), in.Status)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type validateVoucherRequest struct {
	ShopID        string `json:"shop_id" binding:"required"`
	Code          string `json:"code" binding:"required"`
	SubtotalCents int64  `json:"subtotal_cents" binding:"gte=0"`
}

// POST /api/vouchers/validate
func (h *VoucherHandlers) Validate(c *gin.Context) {
	var in validateVoucherRequest
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.vouchers.Validate(c.Request.Context(), in.ShopID, in.Code, in.SubtotalCents)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
