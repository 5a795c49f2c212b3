package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/http/validation"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

// normalizeReturnTo only accepts local absolute paths.
func normalizeReturnTo(s string) string {
	if s == "" || s[0] != '/' {
		return ""
	}
	if strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/\\") {
		return ""
	}
	if strings.Contains(s, "://") {
		return ""
	}
	return s
}

func pageParams(c *gin.Context, defaultSize int) pagination.Params {
	return pagination.Parse(c.Query("page"), c.Query("page_size"), defaultSize)
}

// bindJSON binds and validates the body, failing the request on error.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.Fail(c, validation.AsAppError(err, dst))
		return false
	}
	return true
}

// optionalCents parses a non-negative integer query value. Empty means unset.
func optionalCents(c *gin.Context, key string, fields map[string]string) *int64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		fields[key] = "Must be a non-negative whole number of cents."
		return nil
	}
	return &n
}

func parseBool(raw string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(raw))
	return b
}

// sellerShop loads the caller's shop or fails the request.
func sellerShop(c *gin.Context, svc *shops.Service) (shops.Shop, bool) {
	u := middleware.MustUser(c)
	sh, err := svc.ForOwner(c.Request.Context(), u.ID)
	if err != nil {
		middleware.Fail(c, err)
		return shops.Shop{}, false
	}
	if sh.Status != shops.StatusActive {
		middleware.Fail(c, apperr.ForbiddenErr("Your shop is suspended."))
		return shops.Shop{}, false
	}
	return sh, true
}
