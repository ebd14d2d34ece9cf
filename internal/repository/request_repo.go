package repository

import (
	"time"

	"product-checker-backend/internal/models"

	"gorm.io/gorm"
)

// RequestRow is the denormalized shape the requests view polls: a request
// plus its batch's user/filename and a fresh listings count.
type RequestRow struct {
	ID            uint                 `json:"id"`
	RequestInfoID uint                 `json:"request_info_id"`
	User          string               `json:"user"`
	FileName      string               `json:"file_name"`
	Status        models.RequestStatus `json:"status"`
	Priority      int                  `json:"priority"`
	CreatedAt     time.Time            `json:"created_at"`
	ListingsCount int                  `json:"listings_count"`
}

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) DB() *gorm.DB {
	return r.db
}

// ActiveRequests returns all non-soft-deleted requests with batch metadata
// and per-batch listing counts. gorm's DeletedAt handling keeps superseded
// requests out of this query by default.
func (r *RequestRepository) ActiveRequests() ([]RequestRow, error) {
	var rows []RequestRow
	err := r.db.Model(&models.Request{}).
		Select(`requests.id, requests.request_info_id, requests.status,
			requests.priority, requests.created_at,
			request_infos.user, request_infos.file_name`).
		Joins("JOIN request_infos ON request_infos.id = requests.request_info_id").
		Where("requests.request_info_id > 0").
		Order("requests.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts, err := r.listingCounts()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].ListingsCount = counts[rows[i].RequestInfoID]
	}
	return rows, nil
}

func (r *RequestRepository) listingCounts() (map[uint]int, error) {
	var rows []struct {
		RequestInfoID uint
		Count         int
	}
	err := r.db.Model(&models.ProductListing{}).
		Select("request_info_id, COUNT(*) as count").
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

// GetByID fetches a single active request.
func (r *RequestRepository) GetByID(id uint) (*models.Request, error) {
	var req models.Request
	if err := r.db.Preload("RequestInfo").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// SetPriority updates the scheduling hint. Valid at any request state.
func (r *RequestRepository) SetPriority(id uint, priority int) error {
	return r.db.Model(&models.Request{}).
		Where("id = ?", id).
		Update("priority", priority).Error
}

// CountPending counts active PENDING requests, for the view summary line.
func (r *RequestRepository) CountPending() (int64, error) {
	var n int64
	err := r.db.Model(&models.Request{}).
		Where("status = ?", models.StatusPending).
		Count(&n).Error
	return n, err
}
