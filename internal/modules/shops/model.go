package shops

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Settings is stored as a JSON document on the shop row.
type Settings struct {
	Currency     string `json:"currency"`
	AcceptsChat  bool   `json:"accepts_chat"`
	ReturnPolicy string `json:"return_policy"`
}

func DefaultSettings() Settings {
	return Settings{Currency: "USD", AcceptsChat: true}
}

type Shop struct {
	ID          string                       `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     string                       `gorm:"size:36;not null;uniqueIndex:ux_shops_owner_id" json:"owner_id"`
	Name        string                       `gorm:"size:120;not null" json:"name"`
	Slug        string                       `gorm:"size:140;not null;uniqueIndex:ux_shops_slug" json:"slug"`
	Description string                       `gorm:"type:text;not null;default:''" json:"description"`
	LogoURL     string                       `gorm:"size:512;not null;default:''" json:"logo_url"`
	Status      string                       `gorm:"size:16;not null;default:active" json:"status"`
	Settings    datatypes.JSONType[Settings] `gorm:"not null" json:"settings"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

func (Shop) TableName() string { return "shops" }

// Summary is the public view embedded in product and shop responses.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	LogoURL string `json:"logo_url"`
}

func (s Shop) Summary() Summary {
	return Summary{ID: s.ID, Name: s.Name, Slug: s.Slug, LogoURL: s.LogoURL}
}

// Public is returned by GET /api/shops/:slug.
type Public struct {
	Summary
	Description    string    `json:"description"`
	Settings       Settings  `json:"settings"`
	ActiveProducts int64     `json:"active_products"`
	CreatedAt      time.Time `json:"created_at"`
}
