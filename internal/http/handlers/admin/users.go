package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/shared/apperr"
)

type UsersHandler struct {
	users *users.Service
}

func NewUsersHandler(usersSvc *users.Service) *UsersHandler {
	return &UsersHandler{users: usersSvc}
}

// GET /api/admin/users
func (h *UsersHandler) List(c *gin.Context) {
	q, _, p := listParams(c)
	role := users.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		middleware.Fail(c, apperr.InvalidErr("Invalid query parameters.", map[string]string{"role": "Must be customer, seller or admin."}))
		return
	}
	res, err := h.users.AdminList(c.Request.Context(), users.AdminListParams{Q: q, Role: string(role), Page: p})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type roleRequest struct {
	Role string `json:"role" binding:"required,oneof=customer seller admin"`
}

// PATCH /api/admin/users/:id/role
func (h *UsersHandler) SetRole(c *gin.Context) {
	var in roleRequest
	if !bindJSON(c, &in) {
		return
	}
	id := c.Param("id")
	if id == middleware.MustUser(c).ID && in.Role != string(users.RoleAdmin) {
		middleware.Fail(c, apperr.InvalidErr("You cannot remove your own admin role.", nil))
		return
	}
	u, err := h.users.SetRole(c.Request.Context(), id, users.Role(in.Role))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
