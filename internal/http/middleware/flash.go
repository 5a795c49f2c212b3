package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/flash"
	"marketly.com/app/pkg/view"
)

const CtxKeyFlash = "flash"

// Flash moves a pending flash cookie into the context. The cookie is expired
// whether or not it decodes, so a bad value is never replayed.
func Flash(codec *flash.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(codec.CookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}
		clearCookie(c, codec.CookieName, codec.Secure)
		if f, err := codec.Decode(raw); err == nil {
			c.Set(CtxKeyFlash, f)
		}
		c.Next()
	}
}

func GetFlash(c *gin.Context) *view.Flash {
	v, _ := c.Get(CtxKeyFlash)
	f, _ := v.(*view.Flash)
	return f
}

// SetFlashCookie queues f for the next request. Encoding only fails on a
// marshal error, in which case the notice is dropped.
func SetFlashCookie(c *gin.Context, codec *flash.Codec, f view.Flash) {
	val, err := codec.Encode(f)
	if err != nil {
		return
	}
	setCookie(c, codec.CookieName, val, codec.CookieMaxAge(), codec.Secure)
}

func setCookie(c *gin.Context, name, value string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", secure, true)
}

func clearCookie(c *gin.Context, name string, secure bool) {
	setCookie(c, name, "", -1, secure)
}
