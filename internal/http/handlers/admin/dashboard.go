package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/http/render"
	"marketly.com/app/internal/modules/dashboard"
	"marketly.com/app/internal/modules/orders"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/pkg/view"
)

var (
	roleKeys       = []string{"customer", "seller", "admin"}
	shopStatusKeys = []string{shops.StatusActive, shops.StatusSuspended}
)

type DashboardHandler struct {
	dashboard *dashboard.Service
}

func NewDashboardHandler(dashboardSvc *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboardSvc}
}

// GET /api/admin/dashboard
func (h *DashboardHandler) Stats(c *gin.Context) {
	st, err := h.dashboard.Admin(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /admin
func (h *DashboardHandler) Page(c *gin.Context) {
	st, err := h.dashboard.Admin(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	render.HTML(c, http.StatusOK, "admin", view.Page{
		Title:   "Admin",
		Section: "admin",
		Data: view.AdminDashboardPage{
			Stats:  st,
			Users:  view.Counts(roleKeys, st.UsersByRole),
			Shops:  view.Counts(shopStatusKeys, st.ShopsByStatus),
			Orders: view.Counts(orders.Statuses, st.OrdersByStatus),
		},
	})
}
