package models

import (
	"strings"
	"time"
)

// Platform is one row of the crawler's platform/domain catalog: a display
// name, a comma-separated domain list, and an availability flag. Read-only
// reference data, cached in-process by the intake layer.
type Platform struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:255"`
	Domain       string `gorm:"size:2000"`
	Availability int
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

func (Platform) TableName() string { return "product_checker_platforms" }

// Domains splits the comma-separated domain column, trimming blanks.
func (p Platform) Domains() []string {
	parts := strings.Split(p.Domain, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if d := strings.TrimSpace(part); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// Campaign, Case and Qflag are catalog reference dimensions used only for
// filter-mode listing preview.
type Campaign struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255"`
	Status    int
	DeletedAt *time.Time
}

func (Campaign) TableName() string { return "campaigns" }

type Case struct {
	ID         uint   `gorm:"primaryKey"`
	CaseNumber string `gorm:"size:255"`
	DeletedAt  *time.Time
}

func (Case) TableName() string { return "cases" }

type Qflag struct {
	ID        uint   `gorm:"primaryKey"`
	Label     string `gorm:"size:255"`
	Status    int
	DeletedAt *time.Time
}

func (Qflag) TableName() string { return "qflag" }

// CatalogListing is a listing row in the external catalog, queried when the
// operator builds a batch from filters instead of an uploaded file.
type CatalogListing struct {
	ID         uint `gorm:"primaryKey"`
	CampaignID uint
	CaseID     uint
	PlatformID uint
	QflagID    uint
	URL        string `gorm:"column:url;size:2000"`
	DeletedAt  *time.Time
}

func (CatalogListing) TableName() string { return "listings" }

// FilterOption is one selectable value of a reference dimension. UI-session
// state only, never persisted.
type FilterOption struct {
	ID      uint   `json:"id"`
	Display string `json:"display"`
}
