package models

import (
	"time"

	"gorm.io/gorm"
)

// RequestInfo is one submission event: a named batch of listings uploaded or
// selected by an operator. Immutable after creation. Requests (the original
// attempt plus any rescans) and listings hang off this row, not off each other.
type RequestInfo struct {
	ID          uint   `gorm:"primaryKey"`
	User        string `gorm:"size:255"`
	FileName    string `gorm:"size:255"`
	Environment string `gorm:"size:50"`
	CreatedAt   time.Time
}

func (RequestInfo) TableName() string { return "request_infos" }

// Request is one processing attempt for a RequestInfo. The external crawler
// moves Status forward; the only way out of a terminal status is a rescan,
// which soft-deletes this row and creates a fresh PENDING one.
type Request struct {
	ID            uint          `gorm:"primaryKey"`
	RequestInfoID uint          `gorm:"index"`
	Status        RequestStatus `gorm:"size:50;index"`
	Priority      int
	RescanKind    int
	RequestEnded  *time.Time
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`

	RequestInfo *RequestInfo `gorm:"foreignKey:RequestInfoID"`
}

func (Request) TableName() string { return "requests" }

// ProductListing is one URL-to-verify row. Verification fields are written by
// the external crawler and reset to NULL when a rescan carries the row
// forward; the row itself is created once per batch and never duplicated.
type ProductListing struct {
	ID            uint    `gorm:"primaryKey"`
	RequestInfoID uint    `gorm:"index"`
	ListingID     string  `gorm:"size:255"`
	CaseNumber    *string `gorm:"size:100"`
	Platform      string  `gorm:"size:50"`
	URL           string  `gorm:"column:url;size:2000"`
	UrlStatus     *string `gorm:"column:status;size:50"`
	CheckedDate   *string `gorm:"size:50"`
	ErrorDetail   *string
	Note          *string
	CreatedAt     time.Time
}

func (ProductListing) TableName() string { return "product_checker_listings" }
