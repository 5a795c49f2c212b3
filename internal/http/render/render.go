// Package render owns the HTML side of responses: the template engine plugged
// into gin, the layout envelope and flash redirects.
package render

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	ginrender "github.com/gin-gonic/gin/render"

	"marketly.com/app/internal/http/flash"
	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/shared/money"
	"marketly.com/app/pkg/view"
)

const layoutName = "layout"

// Engine keeps one template set per page, each parsed with the layout and
// shared partials. It implements gin's render.HTMLRender.
type Engine struct {
	SiteName string
	pages    map[string]*template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"money":    money.Format,
		"year":     func() int { return time.Now().Year() },
		"date":     func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"datetime": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04 UTC") },
	}
}

// New parses layout.html, partials/*.html and one template set per
// pages/<name>.html from fsys.
func New(fsys fs.FS, siteName string) (*Engine, error) {
	base, err := template.New(layoutName).Funcs(funcs()).ParseFS(fsys, "layout.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, err
	}
	e := &Engine{SiteName: siteName, pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		t, err := clone.ParseFS(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		name := f[len("pages/") : len(f)-len(".html")]
		e.pages[name] = t
	}
	return e, nil
}

func (e *Engine) Has(name string) bool {
	_, ok := e.pages[name]
	return ok
}

func (e *Engine) Instance(name string, data any) ginrender.Render {
	t, ok := e.pages[name]
	if !ok {
		t = e.pages["error"]
		data = view.Page{SiteName: e.SiteName, Data: view.ErrorPage{
			Status:  http.StatusInternalServerError,
			Message: "Page template missing.",
		}}
	}
	return ginrender.HTML{Template: t, Name: layoutName, Data: data}
}

// HTML renders page inside the layout, filling the envelope from the request.
func HTML(c *gin.Context, status int, name string, p view.Page) {
	if p.SiteName == "" {
		if v, ok := c.Get(CtxKeyEngine); ok {
			if e, ok := v.(*Engine); ok {
				p.SiteName = e.SiteName
			}
		}
	}
	if u, ok := middleware.CurrentUser(c); ok {
		p.User = &view.User{ID: u.ID, Email: u.Email, Role: u.Role}
	}
	if p.Flash == nil {
		p.Flash = middleware.GetFlash(c)
	}
	p.RequestID = middleware.GetRequestID(c)
	c.HTML(status, name, p)
}

const CtxKeyEngine = "render_engine"

// Use exposes the engine to HTML for the site name.
func Use(e *Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxKeyEngine, e)
		c.Next()
	}
}

// ErrorPage matches middleware.ErrorPageFunc.
func ErrorPage(c *gin.Context, status int, msg, requestID string) {
	HTML(c, status, "error", view.Page{
		Title: http.StatusText(status),
		Data:  view.ErrorPage{Status: status, Message: msg, RequestID: requestID},
	})
}

func RedirectWithFlash(c *gin.Context, codec *flash.Codec, location string, kind view.FlashKind, msg string) {
	middleware.SetFlashCookie(c, codec, view.Flash{Kind: kind, Message: msg})
	c.Redirect(http.StatusFound, location)
}
