package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/modules/auth"
)

const CtxKeyUser = "current_user"

type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u SessionUser) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// AuthCookie describes the session token cookie.
type AuthCookie struct {
	Name   string
	Secure bool
}

// Authenticate reads the session token from the cookie or an Authorization
// bearer header. A valid token puts the user in the context; a bad cookie is
// cleared. It never aborts.
func Authenticate(issuer *auth.Issuer, cookie AuthCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, fromCookie := tokenFromRequest(c, cookie.Name)
		if raw == "" {
			c.Next()
			return
		}

		id, err := issuer.Parse(raw)
		if err != nil {
			if fromCookie {
				ClearAuthCookie(c, cookie)
			}
			c.Next()
			return
		}

		c.Set(CtxKeyUser, SessionUser{ID: id.UserID, Email: id.Email, Role: id.Role})
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieName string) (string, bool) {
	if h := c.GetHeader("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok), false
		}
	}
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		return v, true
	}
	return "", false
}

func CurrentUser(c *gin.Context) (SessionUser, bool) {
	if v, ok := c.Get(CtxKeyUser); ok {
		if u, ok := v.(SessionUser); ok {
			return u, true
		}
	}
	return SessionUser{}, false
}

// MustUser is for handlers mounted behind RequireAuth.
func MustUser(c *gin.Context) SessionUser {
	u, _ := CurrentUser(c)
	return u
}

// SetAuthCookie stores token and makes the user visible to the rest of the
// current request.
func SetAuthCookie(c *gin.Context, cookie AuthCookie, token string, exp time.Time, u SessionUser) {
	maxAge := int(time.Until(exp).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	setCookie(c, cookie.Name, token, maxAge, cookie.Secure)
	c.Set(CtxKeyUser, u)
}

func ClearAuthCookie(c *gin.Context, cookie AuthCookie) {
	clearCookie(c, cookie.Name, cookie.Secure)
	c.Set(CtxKeyUser, nil)
}
