package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/flash"
	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/http/render"
	"marketly.com/app/internal/http/validation"
	"marketly.com/app/internal/modules/auth"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/pkg/view"
)

// Sessions issues the token cookie for a user.
type Sessions struct {
	Issuer *auth.Issuer
	Cookie middleware.AuthCookie
}

func (s Sessions) SignIn(c *gin.Context, u users.User) (string, time.Time, error) {
	tok, exp, err := s.Issuer.Issue(auth.Identity{UserID: u.ID, Email: u.Email, Role: string(u.Role)})
	if err != nil {
		return "", time.Time{}, err
	}
	middleware.SetAuthCookie(c, s.Cookie, tok, exp, middleware.SessionUser{ID: u.ID, Email: u.Email, Role: string(u.Role)})
	return tok, exp, nil
}

type AuthHandlers struct {
	users    *users.Service
	sessions Sessions
	flash    *flash.Codec
}

func NewAuthHandlers(usersSvc *users.Service, sessions Sessions, flashCodec *flash.Codec) *AuthHandlers {
	return &AuthHandlers{users: usersSvc, sessions: sessions, flash: flashCodec}
}

type registerForm struct {
	Name            string `form:"name" binding:"required,max=120"`
	Email           string `form:"email" binding:"required,email,max=255"`
	Password        string `form:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `form:"password_confirm" binding:"required,eqfield=Password"`
}

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

func (h *AuthHandlers) RegisterGet(c *gin.Context) {
	render.HTML(c, http.StatusOK, "register", view.Page{
		Title: "Register",
		Data:  view.Form[view.RegisterForm]{Values: view.RegisterForm{ReturnTo: normalizeReturnTo(c.Query("return_to"))}},
	})
}

func (h *AuthHandlers) RegisterPost(c *gin.Context) {
	returnTo := normalizeReturnTo(c.PostForm("return_to"))

	var in registerForm
	bindErr := c.ShouldBind(&in)
	form := view.Form[view.RegisterForm]{Values: view.RegisterForm{Email: in.Email, Name: in.Name, ReturnTo: returnTo}}
	if bindErr != nil {
		form.Errors = validation.FromBindError(bindErr, &in)
		if _, ok := form.Errors["password_confirm"]; ok && in.PasswordConfirm != "" {
			form.Errors["password_confirm"] = "Passwords do not match."
		}
		render.HTML(c, http.StatusBadRequest, "register", view.Page{Title: "Register", Data: form})
		return
	}

	u, err := h.users.Register(c.Request.Context(), users.RegisterInput{Email: in.Email, Password: in.Password, Name: in.Name})
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok || ae.Kind == apperr.Internal {
			middleware.Fail(c, err)
			return
		}
		form.Errors = ae.Fields
		if ae.Kind == apperr.Conflict {
			form.Errors = map[string]string{"email": ae.PublicMsg}
		}
		form.Message = ae.PublicMsg
		render.HTML(c, apperr.HTTPStatus(err), "register", view.Page{Title: "Register", Data: form})
		return
	}

	if _, _, err := h.sessions.SignIn(c, u); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	dest := "/"
	if returnTo != "" {
		dest = returnTo
	}
	render.RedirectWithFlash(c, h.flash, dest, view.FlashSuccess, "Welcome to the marketplace, "+u.Name+".")
}

func (h *AuthHandlers) LoginGet(c *gin.Context) {
	render.HTML(c, http.StatusOK, "login", view.Page{
		Title: "Sign in",
		Data:  view.Form[view.LoginForm]{Values: view.LoginForm{ReturnTo: normalizeReturnTo(c.Query("return_to"))}},
	})
}

func (h *AuthHandlers) LoginPost(c *gin.Context) {
	returnTo := normalizeReturnTo(c.PostForm("return_to"))

	var in loginForm
	bindErr := c.ShouldBind(&in)
	form := view.Form[view.LoginForm]{Values: view.LoginForm{Email: in.Email, ReturnTo: returnTo}}
	if bindErr != nil {
		form.Errors = validation.FromBindError(bindErr, &in)
		render.HTML(c, http.StatusBadRequest, "login", view.Page{Title: "Sign in", Data: form})
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		if !apperr.IsKind(err, apperr.Unauthorized) {
			middleware.Fail(c, err)
			return
		}
		form.Message = apperr.PublicMessage(err)
		render.HTML(c, http.StatusUnauthorized, "login", view.Page{Title: "Sign in", Data: form})
		return
	}

	if _, _, err := h.sessions.SignIn(c, u); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	dest := "/"
	if returnTo != "" {
		dest = returnTo
	}
	render.RedirectWithFlash(c, h.flash, dest, view.FlashSuccess, "Signed in.")
}

func (h *AuthHandlers) LogoutPost(c *gin.Context) {
	middleware.ClearAuthCookie(c, h.sessions.Cookie)
	render.RedirectWithFlash(c, h.flash, "/", view.FlashInfo, "Signed out.")
}

// JSON API

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	User      users.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func (h *AuthHandlers) APIRegister(c *gin.Context) {
	var in registerRequest
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.users.Register(c.Request.Context(), users.RegisterInput{Email: in.Email, Password: in.Password, Name: in.Name})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.respondSession(c, http.StatusCreated, u)
}

func (h *AuthHandlers) APILogin(c *gin.Context) {
	var in loginRequest
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, u)
}

func (h *AuthHandlers) respondSession(c *gin.Context, status int, u users.User) {
	tok, exp, err := h.sessions.SignIn(c, u)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(status, sessionResponse{User: u, Token: tok, ExpiresAt: exp})
}

func (h *AuthHandlers) APILogout(c *gin.Context) {
	middleware.ClearAuthCookie(c, h.sessions.Cookie)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandlers) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), middleware.MustUser(c).ID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
