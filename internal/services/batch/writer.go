// Package batch persists a validated listing batch: one RequestInfo, one
// PENDING Request, then the listings in fixed-size chunks with one commit per
// chunk. A mid-way failure leaves earlier chunks committed; callers must
// treat a failed batch as possibly partially written.
package batch

import (
	"context"
	"fmt"
	"time"

	"product-checker-backend/internal/models"
	"product-checker-backend/internal/services/intake"

	"gorm.io/gorm"
)

// Meta is the batch-level metadata recorded on the RequestInfo row.
type Meta struct {
	User        string
	FileName    string
	Environment string
}

// Result reports what the writer committed.
type Result struct {
	RequestID        uint   `json:"request_id"`
	RequestInfoID    uint   `json:"request_info_id"`
	RecordsCommitted int    `json:"records_committed"`
	Message          string `json:"message"`
}

// ProgressFunc receives advisory progress (0-100 plus a phase message).
// It must not block; correctness never depends on it being called.
type ProgressFunc func(percent int, message string)

type Writer struct {
	db        *gorm.DB
	chunkSize int
}

func NewWriter(db *gorm.DB, chunkSize int) *Writer {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Writer{db: db, chunkSize: chunkSize}
}

// Write commits the batch. The RequestInfo and Request rows are created in a
// single transaction; every listing chunk after that is its own commit
// boundary.
func (w *Writer) Write(ctx context.Context, meta Meta, listings []intake.UploadedListing, progress ProgressFunc) (*Result, error) {
	report := func(pct int, msg string) {
		if progress != nil {
			progress(pct, msg)
		}
	}

	report(10, "Connecting to database...")

	info := &models.RequestInfo{
		User:        meta.User,
		FileName:    meta.FileName,
		Environment: meta.Environment,
		CreatedAt:   time.Now(),
	}
	request := &models.Request{
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}

	report(30, "Creating request entry...")
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(info).Error; err != nil {
			return err
		}
		request.RequestInfoID = info.ID
		return tx.Create(request).Error
	})
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	result := &Result{RequestID: request.ID, RequestInfoID: info.ID}
	total := len(listings)
	report(50, fmt.Sprintf("Request #%d created. Adding product listings...", request.ID))

	for start := 0; start < total; start += w.chunkSize {
		end := start + w.chunkSize
		if end > total {
			end = total
		}

		chunk := make([]models.ProductListing, 0, end-start)
		for _, item := range listings[start:end] {
			chunk = append(chunk, models.ProductListing{
				RequestInfoID: info.ID,
				ListingID:     item.ListingID,
				CaseNumber:    optional(item.CaseNumber),
				Platform:      item.Platform,
				URL:           item.ProductURL,
				CreatedAt:     time.Now(),
			})
		}

		// Each chunk is its own commit; rows from earlier chunks stay
		// committed if a later chunk fails.
		if err := w.db.WithContext(ctx).Create(&chunk).Error; err != nil {
			result.Message = fmt.Sprintf(
				"batch failed after %d of %d listings were committed", result.RecordsCommitted, total)
			return result, fmt.Errorf("inserting listings (%d/%d committed): %w",
				result.RecordsCommitted, total, err)
		}
		result.RecordsCommitted = end

		pct := 50 + int(float64(end)/float64(total)*40)
		report(pct, fmt.Sprintf("Processing records... (%d/%d)", end, total))
	}

	report(95, "Finalizing request...")
	result.Message = fmt.Sprintf("Request #%d created with %d listings", request.ID, total)
	report(100, result.Message)
	return result, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
