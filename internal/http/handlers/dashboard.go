package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/http/render"
	"marketly.com/app/internal/modules/dashboard"
	"marketly.com/app/internal/modules/orders"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/pkg/view"
)

type DashboardHandlers struct {
	dashboard *dashboard.Service
	shops     *shops.Service
}

func NewDashboardHandlers(dashboardSvc *dashboard.Service, shopsSvc *shops.Service) *DashboardHandlers {
	return &DashboardHandlers{dashboard: dashboardSvc, shops: shopsSvc}
}

// GET /api/seller/dashboard
func (h *DashboardHandlers) SellerStats(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	st, err := h.dashboard.Seller(c.Request.Context(), sh)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /seller; sellers without a shop are sent to the setup form.
func (h *DashboardHandlers) SellerPage(c *gin.Context) {
	sh, err := h.shops.ForOwner(c.Request.Context(), middleware.MustUser(c).ID)
	if errors.Is(err, shops.ErrNoShop) {
		c.Redirect(http.StatusFound, "/seller/settings")
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	st, err := h.dashboard.Seller(c.Request.Context(), sh)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	render.HTML(c, http.StatusOK, "seller", view.Page{
		Title:   sh.Name,
		Section: "seller",
		Data: view.SellerDashboardPage{
			Shop:   sh,
			Stats:  st,
			Orders: view.Counts(orders.Statuses, st.OrdersByStatus),
		},
	})
}
