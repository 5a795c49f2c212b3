// Package http wires the gin engine: middleware chain, JSON API and pages.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"marketly.com/app/internal/config"
	"marketly.com/app/internal/http/flash"
	"marketly.com/app/internal/http/handlers"
	"marketly.com/app/internal/http/handlers/admin"
	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/http/render"
	"marketly.com/app/internal/modules/auth"
	"marketly.com/app/internal/modules/chat"
	"marketly.com/app/internal/modules/dashboard"
	"marketly.com/app/internal/modules/orders"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/modules/users"
	"marketly.com/app/internal/modules/vouchers"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/storage"
	"marketly.com/app/templates"
)

const (
	roleSeller = string(users.RoleSeller)
	roleAdmin  = string(users.RoleAdmin)
)

// Deps are the process-wide collaborators the router needs.
type Deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *gorm.DB
	Storage storage.Storage
	Hub     *chat.Hub
	// Users may be set to override the bcrypt cost in tests.
	Users *users.Service
}

func NewRouter(d Deps) (*gin.Engine, error) {
	cfg := d.Config

	engine, err := render.New(templates.FS, cfg.SiteName)
	if err != nil {
		return nil, err
	}

	usersSvc := d.Users
	if usersSvc == nil {
		usersSvc = users.NewService(d.DB)
	}
	shopsSvc := shops.NewService(d.DB)
	productsSvc := products.NewService(d.DB, d.Storage)
	productsSvc.SetLogger(d.Logger)
	vouchersSvc := vouchers.NewService(d.DB)
	ordersSvc := orders.NewService(d.DB)
	var pub chat.Publisher
	if d.Hub != nil {
		pub = d.Hub
	}
	chatSvc := chat.NewService(d.DB, pub)
	dashboardSvc := dashboard.NewService(d.DB)

	flashCodec := flash.NewCodec([]byte(cfg.FlashSecret), "marketly_flash", cfg.IsProduction())
	sessions := handlers.Sessions{
		Issuer: auth.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		Cookie: middleware.AuthCookie{Name: cfg.Auth.CookieName, Secure: cfg.IsProduction()},
	}
	limiter := middleware.NewIPRateLimiter(cfg.AuthRateLimit.RPS, cfg.AuthRateLimit.Burst)

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.HTMLRender = engine
	r.MaxMultipartMemory = 8 << 20

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(render.Use(engine))
	r.Use(middleware.ErrorHandler(d.Logger, render.ErrorPage))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Flash(flashCodec))
	r.Use(middleware.Authenticate(sessions.Issuer, sessions.Cookie))

	r.StaticFS("/static", http.FS(templates.Static()))
	if cfg.Storage.Driver == "local" {
		r.Static(cfg.Storage.LocalURLPrefix, cfg.Storage.LocalDir)
	}

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authH := handlers.NewAuthHandlers(usersSvc, sessions, flashCodec)
	catalogH := handlers.NewCatalogHandlers(productsSvc)
	shopH := handlers.NewShopHandlers(shopsSvc, usersSvc, sessions)
	sellerProductH := handlers.NewSellerProductHandlers(productsSvc, shopsSvc, cfg.Storage.MaxUploadBytes)
	voucherH := handlers.NewVoucherHandlers(vouchersSvc, shopsSvc)
	orderH := handlers.NewOrderHandlers(ordersSvc, shopsSvc)
	dashboardH := handlers.NewDashboardHandlers(dashboardSvc, shopsSvc)
	chatH := handlers.NewChatHandlers(chatSvc, d.Hub, d.Logger)
	pageH := handlers.NewPageHandlers(productsSvc, shopsSvc, usersSvc, chatSvc, sessions, flashCodec)

	adminUsersH := admin.NewUsersHandler(usersSvc)
	adminShopsH := admin.NewShopsHandler(shopsSvc)
	adminOrdersH := admin.NewOrdersHandler(ordersSvc)
	adminDashboardH := admin.NewDashboardHandler(dashboardSvc)

	requireAuth := middleware.RequireAuth(flashCodec)
	requireSeller := middleware.RequireRole(flashCodec, roleSeller, roleAdmin)
	requireAdmin := middleware.RequireRole(flashCodec, roleAdmin)
	rateLimited := middleware.RateLimit(limiter)

	// Pages
	r.GET("/", pageH.Home)
	r.GET("/products/:slug", pageH.Product)
	r.GET("/shops/:slug", pageH.Shop)
	r.GET("/login", authH.LoginGet)
	r.POST("/login", rateLimited, authH.LoginPost)
	r.GET("/register", authH.RegisterGet)
	r.POST("/register", rateLimited, authH.RegisterPost)
	r.POST("/logout", authH.LogoutPost)
	r.GET("/chat", requireAuth, pageH.Chat)
	r.GET("/seller", requireAuth, requireSeller, dashboardH.SellerPage)
	r.GET("/seller/settings", requireAuth, pageH.ShopSettingsGet)
	r.POST("/seller/settings", requireAuth, pageH.ShopSettingsPost)
	r.GET("/admin", requireAuth, requireAdmin, adminDashboardH.Page)

	if d.Hub != nil {
		r.GET("/ws/chat", requireAuth, chatH.Socket)
	}

	api := r.Group("/api")
	{
		api.POST("/auth/register", rateLimited, authH.APIRegister)
		api.POST("/auth/login", rateLimited, authH.APILogin)
		api.POST("/auth/logout", authH.APILogout)
		api.GET("/auth/me", requireAuth, authH.Me)

		api.GET("/products", catalogH.ListProducts)
		api.GET("/products/:slug", catalogH.GetProduct)
		api.GET("/categories", catalogH.ListCategories)
		api.GET("/shops", shopH.List)
		api.GET("/shops/:slug", shopH.Get)
		api.POST("/vouchers/validate", voucherH.Validate)

		me := api.Group("", requireAuth)
		me.POST("/orders", orderH.Place)
		me.GET("/orders", orderH.ListMine)
		me.GET("/orders/:id", orderH.GetMine)

		me.GET("/chat/conversations", chatH.Conversations)
		me.POST("/chat/conversations", chatH.Start)
		me.GET("/chat/conversations/:id/messages", chatH.Messages)
		me.POST("/chat/conversations/:id/messages", chatH.Send)
		me.POST("/chat/conversations/:id/read", chatH.MarkRead)

		// Any signed-in user may open a shop; the rest needs the seller role.
		me.POST("/seller/shop", shopH.Create)

		seller := api.Group("/seller", requireAuth, requireSeller)
		seller.GET("/shop", shopH.Mine)
		seller.PUT("/shop", shopH.Update)
		seller.GET("/dashboard", dashboardH.SellerStats)

		seller.GET("/products", sellerProductH.List)
		seller.GET("/products/export", sellerProductH.Export)
		seller.POST("/products", sellerProductH.Create)
		seller.GET("/products/:id", sellerProductH.Get)
		seller.PUT("/products/:id", sellerProductH.Update)
		seller.DELETE("/products/:id", sellerProductH.Delete)
		seller.POST("/products/:id/images", sellerProductH.AddImage)
		seller.DELETE("/products/:id/images/:imageID", sellerProductH.DeleteImage)

		seller.GET("/vouchers", voucherH.List)
		seller.POST("/vouchers", voucherH.Create)
		seller.PATCH("/vouchers/:id", voucherH.SetStatus)

		seller.GET("/orders", orderH.SellerList)
		seller.GET("/orders/:id", orderH.SellerGet)
		seller.POST("/orders/:id/:action", orderH.SellerTransition)

		adm := api.Group("/admin", requireAuth, requireAdmin)
		adm.GET("/dashboard", adminDashboardH.Stats)
		adm.GET("/users", adminUsersH.List)
		adm.PATCH("/users/:id/role", adminUsersH.SetRole)
		adm.GET("/shops", adminShopsH.List)
		adm.PATCH("/shops/:id/status", adminShopsH.SetStatus)
		adm.GET("/orders", adminOrdersH.List)
		adm.GET("/orders/:id", adminOrdersH.Get)
		adm.POST("/orders/:id/:action", adminOrdersH.Transition)
		adm.POST("/categories", catalogH.CreateCategory)
	}

	r.NoRoute(func(c *gin.Context) {
		middleware.Fail(c, apperr.NotFoundErr("Page not found."))
	})

	return r, nil
}
