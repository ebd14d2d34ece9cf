package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"product-checker-backend/internal/models"
	"product-checker-backend/internal/services/rescan"
	"product-checker-backend/internal/services/sheet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListRequests returns the active request view, optionally filtered by the
// `q` search parameter (request fields or listing-level matches).
func (h *Handler) ListRequests(c *gin.Context) {
	search := c.Query("q")
	h.poller.SetSearch(search)

	rows, err := h.requests.ActiveRequests()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var matchCounts map[uint]int
	if search != "" {
		if matchCounts, err = h.listings.SearchMatchCounts(search); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	type item struct {
		ID            uint                 `json:"id"`
		RequestInfoID uint                 `json:"request_info_id"`
		User          string               `json:"user"`
		FileName      string               `json:"file_name"`
		Status        models.RequestStatus `json:"status"`
		Priority      int                  `json:"priority"`
		CreatedAt     time.Time            `json:"created_at"`
		ListingsCount int                  `json:"listings_count"`
		MatchCount    int                  `json:"match_count"`
	}

	pending := 0
	items := make([]item, 0, len(rows))
	for _, row := range rows {
		if row.Status == models.StatusPending {
			pending++
		}
		entry := item{
			ID:            row.ID,
			RequestInfoID: row.RequestInfoID,
			User:          row.User,
			FileName:      row.FileName,
			Status:        row.Status,
			Priority:      row.Priority,
			CreatedAt:     row.CreatedAt,
			ListingsCount: row.ListingsCount,
		}
		if search != "" {
			entry.MatchCount = matchCounts[row.RequestInfoID]
			view := requestViewOf(row.ID, row.User, row.FileName, row.Status)
			if !view.MatchesText(search) && entry.MatchCount == 0 {
				continue
			}
		}
		items = append(items, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"items":         items,
		"pending_count": pending,
	})
}

// RequestListings returns a request's listings plus processed/total progress.
func (h *Handler) RequestListings(c *gin.Context) {
	req, ok := h.loadRequest(c)
	if !ok {
		return
	}

	listings, err := h.listings.ByRequestInfo(req.RequestInfoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    listings,
		"progress": h.progressOf(listings),
	})
}

// SelectRequest marks the request whose listings the poller refreshes
// eagerly on every tick.
func (h *Handler) SelectRequest(c *gin.Context) {
	req, ok := h.loadRequest(c)
	if !ok {
		return
	}
	h.poller.SetSelected(req.ID)
	c.JSON(http.StatusOK, gin.H{"selected": req.ID})
}

// SetPriority toggles the crawler scheduling hint (0 normal, 1 highest).
func (h *Handler) SetPriority(c *gin.Context) {
	req, ok := h.loadRequest(c)
	if !ok {
		return
	}

	var payload struct {
		High bool `json:"high"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	priority := 0
	if payload.High {
		priority = 1
	}
	if err := h.requests.SetPriority(req.ID, priority); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	details, _ := json.Marshal(gin.H{"priority": priority})
	h.requests.DB().Create(&models.RequestAuditLog{
		ID:          uuid.New(),
		RequestID:   req.ID,
		Action:      "priority",
		PerformedBy: submittingUser(c),
		Details:     details,
		CreatedAt:   time.Now(),
	})

	c.JSON(http.StatusOK, gin.H{
		"message":  "priority updated",
		"priority": priority,
	})
}

// Rescan supersedes a terminal request with a new PENDING one.
func (h *Handler) Rescan(c *gin.Context) {
	req, ok := h.loadRequest(c)
	if !ok {
		return
	}

	var payload struct {
		ErrorsOnly bool `json:"errors_only"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	outcome, err := h.rescanner.Rescan(req.ID, payload.ErrorsOnly, submittingUser(c))
	if err != nil {
		if errors.Is(err, rescan.ErrNotRescannable) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Error creating rescan request",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Successfully queued for rescan.",
		"request":       outcome.NewRequest,
		"carried_count": outcome.CarriedCount,
	})
}

// Export streams the request's listings as a result file. Allowed only for
// SUCCESS and COMPLETED_WITH_ISSUES requests.
func (h *Handler) Export(c *gin.Context) {
	req, ok := h.loadRequest(c)
	if !ok {
		return
	}
	if !req.Status.ExportAllowed() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Export is not available for requests with status: " + string(req.Status)})
		return
	}

	listings, err := h.listings.ByRequestInfo(req.RequestInfoID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(listings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no listings found for this request"})
		return
	}

	base := ""
	if req.RequestInfo != nil {
		base = req.RequestInfo.FileName
	}
	fileName := sheet.ResultFileName(base, time.Now())

	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Header("Content-Type", "text/csv")
	if err := sheet.WriteListings(c.Writer, listings); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) loadRequest(c *gin.Context) (*models.Request, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
		return nil, false
	}
	req, err := h.requests.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return req, true
}
