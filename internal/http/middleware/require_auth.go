package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/flash"
	"marketly.com/app/pkg/view"
)

// RequireAuth answers 401 JSON for API clients and redirects pages to
// /login?return_to=<uri> with a flash.
func RequireAuth(flashCodec *flash.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}

		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "Authentication required.",
				"request_id": GetRequestID(c),
			})
			return
		}

		returnTo := c.Request.URL.RequestURI()
		SetFlashCookie(c, flashCodec, view.Flash{
			Kind:    view.FlashWarning,
			Message: "Please sign in to continue.",
		})

		c.Redirect(http.StatusFound, "/login?return_to="+url.QueryEscape(returnTo))
		c.Abort()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(flashCodec *flash.Codec, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if ok && u.HasRole(roles...) {
			c.Next()
			return
		}

		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "You do not have access to this resource.",
				"request_id": GetRequestID(c),
			})
			return
		}

		SetFlashCookie(c, flashCodec, view.Flash{
			Kind:    view.FlashError,
			Message: "You do not have access to that page.",
		})
		c.Redirect(http.StatusFound, "/")
		c.Abort()
	}
}
