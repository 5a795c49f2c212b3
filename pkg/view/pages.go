package view

import (
	"marketly.com/app/internal/modules/chat"
	"marketly.com/app/internal/modules/dashboard"
	"marketly.com/app/internal/modules/products"
	"marketly.com/app/internal/modules/shops"
)

type StorefrontFilter struct {
	Q        string
	Category string
	Shop     string
	MinPrice string
	MaxPrice string
	Sort     string
}

type StorefrontPage struct {
	Heading    string
	Filter     StorefrontFilter
	Categories []products.Category
	Products   []products.Card
	Pager      Pager
	Errors     map[string]string
}

type ProductPage struct {
	Product products.Detail
}

type ShopPage struct {
	Shop     shops.Public
	Products []products.Card
	Pager    Pager
}

type StatusCount struct {
	Status string
	Count  int64
}

type SellerDashboardPage struct {
	Shop   shops.Shop
	Stats  dashboard.SellerStats
	Orders []StatusCount
}

type ShopSettingsPage struct {
	HasShop bool
	Slug    string
	Form    Form[ShopForm]
}

type AdminDashboardPage struct {
	Stats  dashboard.AdminStats
	Users  []StatusCount
	Shops  []StatusCount
	Orders []StatusCount
}

type ChatPage struct {
	Conversations []chat.View
	Pager         Pager
}

type ErrorPage struct {
	Status    int
	Message   string
	RequestID string
}

// Counts orders m by keys, so templates render a stable sequence.
func Counts(keys []string, m map[string]int64) []StatusCount {
	out := make([]StatusCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, StatusCount{Status: k, Count: m[k]})
	}
	return out
}
