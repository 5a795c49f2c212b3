package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/orders"
)

type OrdersHandler struct {
	orders *orders.Service
}

func NewOrdersHandler(ordersSvc *orders.Service) *OrdersHandler {
	return &OrdersHandler{orders: ordersSvc}
}

// GET /api/admin/orders
func (h *OrdersHandler) List(c *gin.Context) {
	q, status, p := listParams(c)
	res, err := h.orders.List(c.Request.Context(), orders.ListParams{Q: q, Status: status, Page: p})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/admin/orders/:id
func (h *OrdersHandler) Get(c *gin.Context) {
	d, err := h.orders.Get(c.Request.Context(), c.Param("id"), orders.Scope{})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type transitionRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// POST /api/admin/orders/:id/:action
func (h *OrdersHandler) Transition(c *gin.Context) {
	var in transitionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &in) {
		return
	}
	o, err := h.orders.Transition(c.Request.Context(), orders.TransitionInput{
		OrderID:     c.Param("id"),
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
