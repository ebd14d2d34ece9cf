// Package rescan supersedes a terminal request with a fresh PENDING one.
// Listings belong to the batch, not the request, so a rescan never copies
// rows: it resets verification fields on the carried subset and swaps the
// active request in a single transaction.
package rescan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"product-checker-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotRescannable = errors.New("request is not in a rescannable state")

type Orchestrator struct {
	db *gorm.DB
}

func NewOrchestrator(db *gorm.DB) *Orchestrator {
	return &Orchestrator{db: db}
}

// Outcome reports the supersession result.
type Outcome struct {
	NewRequest    *models.Request `json:"request"`
	CarriedCount  int             `json:"carried_count"`
	FilteredCount int             `json:"filtered_count"`
}

// Rescan creates a new PENDING request for the batch of requestID and
// soft-deletes the original, atomically. With errorsOnly, listings whose last
// status equals a resolved sentinel (or is still blank) are left untouched;
// everything carried forward has its verification fields cleared.
//
// A rescan that carries zero listings still creates the new request: the
// postcondition is always "one new PENDING request exists for this batch".
func (o *Orchestrator) Rescan(requestID uint, errorsOnly bool, performedBy string) (*Outcome, error) {
	outcome := &Outcome{}

	err := o.db.Transaction(func(tx *gorm.DB) error {
		var original models.Request
		if err := tx.First(&original, "id = ?", requestID).Error; err != nil {
			return fmt.Errorf("loading request %d: %w", requestID, err)
		}
		if !original.Status.RescanAllowed() {
			return fmt.Errorf("%w: status %s", ErrNotRescannable, original.Status)
		}

		var listings []models.ProductListing
		if err := tx.Where("request_info_id = ?", original.RequestInfoID).Find(&listings).Error; err != nil {
			return err
		}

		var carried []uint
		for i := range listings {
			if errorsOnly && !carriedOnErrorsRescan(listings[i].UrlStatus) {
				outcome.FilteredCount++
				continue
			}
			carried = append(carried, listings[i].ID)
		}
		outcome.CarriedCount = len(carried)

		if len(carried) > 0 {
			err := tx.Model(&models.ProductListing{}).
				Where("id IN ?", carried).
				Updates(map[string]interface{}{
					"status":       nil,
					"checked_date": nil,
					"error_detail": nil,
					"note":         nil,
				}).Error
			if err != nil {
				return err
			}
		}

		rescanKind := 0
		if errorsOnly {
			rescanKind = 1
		}
		newRequest := &models.Request{
			RequestInfoID: original.RequestInfoID,
			Status:        models.StatusPending,
			RescanKind:    rescanKind,
			CreatedAt:     time.Now(),
		}
		if err := tx.Create(newRequest).Error; err != nil {
			return err
		}
		outcome.NewRequest = newRequest

		if err := tx.Delete(&models.Request{}, "id = ?", original.ID).Error; err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"original_request_id": original.ID,
			"new_request_id":      newRequest.ID,
			"errors_only":         errorsOnly,
			"carried_count":       outcome.CarriedCount,
		})
		return tx.Create(&models.RequestAuditLog{
			ID:          uuid.New(),
			RequestID:   newRequest.ID,
			Action:      "rescan",
			PerformedBy: performedBy,
			Details:     details,
			CreatedAt:   time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// carriedOnErrorsRescan keeps listings that are unresolved or errored: a
// non-blank status not equal to either resolved sentinel. Blank statuses were
// never processed on the prior attempt and are dropped from an errors-only
// rescan, matching the batch's historical behavior.
func carriedOnErrorsRescan(status *string) bool {
	if status == nil {
		return false
	}
	s := strings.TrimSpace(*status)
	if s == "" {
		return false
	}
	return !strings.EqualFold(s, "Available") && !strings.EqualFold(s, "Not Available")
}
