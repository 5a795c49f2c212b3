package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketly.com/app/internal/http/middleware"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
	"marketly.com/app/internal/shared/apperr"
	"marketly.com/app/internal/shared/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SellerProductHandlers struct {
	products  *products.Service
	shops     *shops.Service
	maxUpload int64
}

func NewSellerProductHandlers(productsSvc *products.Service, shopsSvc *shops.Service, maxUploadBytes int64) *SellerProductHandlers {
	return &SellerProductHandlers{products: productsSvc, shops: shopsSvc, maxUpload: maxUploadBytes}
}

// GET /api/seller/products
func (h *SellerProductHandlers) List(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	status := c.Query("status")
	switch status {
	case "", products.StatusDraft, products.StatusActive, products.StatusArchived:
	default:
		middleware.Fail(c, apperr.InvalidErr("Invalid query parameters.", map[string]string{"status": "Must be draft, active or archived."}))
		return
	}
	page, err := h.products.SellerList(c.Request.Context(), products.SellerListParams{
		ShopID: sh.ID,
		Q:      strings.TrimSpace(c.Query("q")),
		Status: status,
		Page:   pageParams(c, pagination.DefaultDashboardSize),
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type productRequest struct {
	Name           string  `json:"name" binding:"required"`
	Description    string  `json:"description" binding:"max=20000"`
	CategoryID     *string `json:"category_id"`
	PriceCents     int64   `json:"price_cents" binding:"gte=0"`
	CompareAtCents int64   `json:"compare_at_cents" binding:"gte=0"`
	Currency       string  `json:"currency"`
	Stock          int     `json:"stock" binding:"gte=0"`
	Status         string  `json:"status"`
}

func (r productRequest) input() products.Input {
	return products.Input{
		Name:           r.Name,
		Description:    r.Description,
		CategoryID:     r.CategoryID,
		PriceCents:     r.PriceCents,
		CompareAtCents: r.CompareAtCents,
		Currency:       r.Currency,
		Stock:          r.Stock,
		Status:         r.Status,
	}
}

// GET /api/seller/products/:id
func (h *SellerProductHandlers) Get(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), sh.ID, c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/seller/products
func (h *SellerProductHandlers) Create(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	var in productRequest
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.products.Create(c.Request.Context(), sh, in.input())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// PUT /api/seller/products/:id
func (h *SellerProductHandlers) Update(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	var in productRequest
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.products.Update(c.Request.Context(), sh.ID, c.Param("id"), in.input())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/seller/products/:id
func (h *SellerProductHandlers) Delete(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	removed, err := h.products.Delete(c.Request.Context(), sh.ID, c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusOK, gin.H{"archived": true})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/seller/products/:id/images (multipart field "image")
func (h *SellerProductHandlers) AddImage(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}

	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+1<<20)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.Fail(c, apperr.InvalidErr("Image is too large.", map[string]string{"image": tooLargeMsg(h.maxUpload)}))
			return
		}
		middleware.Fail(c, apperr.InvalidErr("Image is required.", map[string]string{"image": "Attach a file in the image field."}).WithErr(err))
		return
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		middleware.Fail(c, apperr.InvalidErr("Image is too large.", map[string]string{"image": tooLargeMsg(h.maxUpload)}))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	im, err := h.products.AddImage(c.Request.Context(), sh.ID, c.Param("id"), products.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, im)
}

func tooLargeMsg(limit int64) string {
	return fmt.Sprintf("Must be at most %d KB.", limit>>10)
}

// DELETE /api/seller/products/:id/images/:imageID
func (h *SellerProductHandlers) DeleteImage(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	if err := h.products.DeleteImage(c.Request.Context(), sh.ID, c.Param("id"), c.Param("imageID")); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/seller/products/export
func (h *SellerProductHandlers) Export(c *gin.Context) {
	sh, ok := sellerShop(c, h.shops)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.products.Export(c.Request.Context(), sh.ID, &buf); err != nil {
		middleware.Fail(c, err)
		return
	}
	name := fmt.Sprintf("%s-products-%s.xlsx", sh.Slug, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
