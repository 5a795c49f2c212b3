// Package admin serves the operator routes under /api/admin and /admin.
package admin

import (
	"strings"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/http/validation"
	"marketly.com/app/internal/shared/pagination"
)

func listParams(c *gin.Context) (q, status string, p pagination.Params) {
	return strings.TrimSpace(c.Query("q")),
		strings.TrimSpace(c.Query("status")),
		pagination.Parse(c.Query("page"), c.Query("page_size"), pagination.DefaultDashboardSize)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.Fail(c, validation.AsAppError(err, dst))
		return false
	}
	return true
}
