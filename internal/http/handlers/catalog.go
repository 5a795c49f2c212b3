package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

type CatalogHandlers struct {
	products *products.Service
}

func NewCatalogHandlers(productsSvc *products.Service) *CatalogHandlers {
	return &CatalogHandlers{products: productsSvc}
}

// storefrontFilter reads the storefront query. Bad price bounds come back as
// field errors.
func storefrontFilter(c *gin.Context) (products.StorefrontFilter, map[string]string) {
	fields := map[string]string{}
	f := products.StorefrontFilter{
		Q:        strings.TrimSpace(c.Query("q")),
		Category: strings.TrimSpace(c.Query("category")),
		Shop:     strings.TrimSpace(c.Query("shop")),
		MinPrice: optionalCents(c, "min_price", fields),
		MaxPrice: optionalCents(c, "max_price", fields),
		Sort:     c.Query("sort"),
		Page:     pageParams(c, pagination.DefaultStorefrontSize),
	}
	switch f.Sort {
	case products.SortNewest, products.SortPriceAsc, products.SortPriceDesc, products.SortName:
	default:
		f.Sort = products.SortNewest
	}
	return f, fields
}

// GET /api/products
func (h *CatalogHandlers) ListProducts(c *gin.Context) {
	f, fields := storefrontFilter(c)
	if len(fields) > 0 {
		middleware.Fail(c, apperr.InvalidErr("Invalid query parameters.", fields))
		return
	}
	page, err := h.products.Storefront(c.Request.Context(), f)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/products/:slug
func (h *CatalogHandlers) GetProduct(c *gin.Context) {
	d, err := h.products.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GET /api/categories
func (h *CatalogHandlers) ListCategories(c *gin.Context) {
	cats, err := h.products.Categories(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cats})
}

type categoryRequest struct {
	Name string `json:"name" binding:"required,max=120"`
}

// POST /api/admin/categories
func (h *CatalogHandlers) CreateCategory(c *gin.Context) {
	var in categoryRequest
	if !bindJSON(c, &in) {
		return
	}
	cat, err := h.products.CreateCategory(c.Request.Context(), in.Name)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}
