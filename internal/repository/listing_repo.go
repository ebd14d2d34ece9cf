package repository

import (
	"strings"

	"product-checker-backend/internal/models"

	"gorm.io/gorm"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// ByRequestInfo returns all listings of a batch in insertion order.
func (r *ListingRepository) ByRequestInfo(requestInfoID uint) ([]models.ProductListing, error) {
	var listings []models.ProductListing
	err := r.db.
		Where("request_info_id = ?", requestInfoID).
		Order("id ASC").
		Find(&listings).Error
	return listings, err
}

// SearchMatchCounts counts, per batch, the listings whose fields contain the
// search text (case-insensitive substring over id, case number, platform,
// url, status, error detail and note).
func (r *ListingRepository) SearchMatchCounts(search string) (map[uint]int, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return map[uint]int{}, nil
	}
	like := "%" + strings.ToLower(search) + "%"

	var rows []struct {
		RequestInfoID uint
		Count         int
	}
	err := r.db.Model(&models.ProductListing{}).
		Select("request_info_id, COUNT(*) as count").
		Where(`request_info_id > 0 AND (
			LOWER(COALESCE(listing_id, '')) LIKE ? OR
			LOWER(COALESCE(case_number, '')) LIKE ? OR
			LOWER(COALESCE(platform, '')) LIKE ? OR
			LOWER(COALESCE(url, '')) LIKE ? OR
			LOWER(COALESCE(status, '')) LIKE ? OR
			LOWER(COALESCE(error_detail, '')) LIKE ? OR
			LOWER(COALESCE(note, '')) LIKE ?)`,
			like, like, like, like, like, like, like).
		Group("request_info_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.RequestInfoID] = row.Count
	}
	return counts, nil
}

// Progress is processed/total for one batch. Processed means the crawler
// wrote any non-blank, non-PENDING status.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// ProgressFor computes listing-level progress for a batch. A batch with zero
// listings reports 0/0.
func (r *ListingRepository) ProgressFor(requestInfoID uint) (Progress, error) {
	listings, err := r.ByRequestInfo(requestInfoID)
	if err != nil {
		return Progress{}, err
	}
	return ComputeProgress(listings), nil
}

// ComputeProgress derives processed/total from loaded listings.
func ComputeProgress(listings []models.ProductListing) Progress {
	p := Progress{Total: len(listings)}
	for i := range listings {
		if models.ListingProcessed(listings[i].UrlStatus) {
			p.Processed++
		}
	}
	return p
}
