// Package pagination holds the page/page_size handling shared by every list route.
package pagination

import (
	"strconv"
	"strings"
)

const (
	DefaultStorefrontSize = 24
	DefaultDashboardSize  = 20
	MaxPageSize           = 100
)

type Params struct {
	Page     int
	PageSize int
}

// Parse reads raw query values. Anything unparsable or below 1 falls back to
// page 1 / defaultSize; sizes above MaxPageSize are capped.
func Parse(rawPage, rawSize string, defaultSize int) Params {
	if defaultSize < 1 || defaultSize > MaxPageSize {
		defaultSize = DefaultDashboardSize
	}
	p := Params{Page: 1, PageSize: defaultSize}
	if n, err := strconv.Atoi(strings.TrimSpace(rawPage)); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(rawSize)); err == nil && n > 0 {
		p.PageSize = min(n, MaxPageSize)
	}
	return p
}

func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

func (p Params) Limit() int { return p.PageSize }

// TotalPages is never below 1 so an empty result still has a page to render.
func (p Params) TotalPages(total int64) int {
	if p.PageSize <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// Clamp keeps Page inside [1, totalPages].
func (p Params) Clamp(totalPages int) Params {
	if totalPages < 1 {
		totalPages = 1
	}
	switch {
	case p.Page < 1:
		p.Page = 1
	case p.Page > totalPages:
		p.Page = totalPages
	}
	return p
}

// Within clamps p to the pages that exist for total rows.
func (p Params) Within(total int64) Params {
	return p.Clamp(p.TotalPages(total))
}

// Page is the JSON envelope returned by list endpoints.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPage reports p clamped to range, matching the offset used by Within.
func NewPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	tp := p.TotalPages(total)
	p = p.Clamp(tp)
	return Page[T]{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: tp,
		HasNext:    p.Page < tp,
		HasPrev:    p.Page > 1,
	}
}

// Map converts the items of a page while keeping its counters.
func Map[T, U any](in Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(in.Items))
	for _, it := range in.Items {
		out = append(out, fn(it))
	}
	return Page[U]{
		Items:      out,
		Page:       in.Page,
		PageSize:   in.PageSize,
		Total:      in.Total,
		TotalPages: in.TotalPages,
		HasNext:    in.HasNext,
		HasPrev:    in.HasPrev,
	}
}
