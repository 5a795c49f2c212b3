package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/shared/apperr"
)

type ShopsHandler struct {
	shops *shops.Service
}

func NewShopsHandler(shopsSvc *shops.Service) *ShopsHandler {
	return &ShopsHandler{shops: shopsSvc}
}

// GET /api/admin/shops
func (h *ShopsHandler) List(c *gin.Context) {
	q, status, p := listParams(c)
	if status != "" && status != shops.StatusActive && status != shops.StatusSuspended {
		middleware.Fail(c, apperr.InvalidErr("Invalid query parameters.", map[string]string{"status": "Must be active or suspended."}))
		return
	}
	res, err := h.shops.AdminList(c.Request.Context(), shops.ListParams{Q: q, Status: status, Page: p})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type shopStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

// PATCH /api/admin/shops/:id/status
func (h *ShopsHandler) SetStatus(c *gin.Context) {
	var in shopStatusRequest
	if !bindJSON(c, &in) {
		return
	}
	sh, err := h.shops.SetStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}
