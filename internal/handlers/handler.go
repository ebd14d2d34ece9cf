package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"product-checker-backend/internal/config"
	"product-checker-backend/internal/repository"
	"product-checker-backend/internal/services/batch"
	"product-checker-backend/internal/services/intake"
	"product-checker-backend/internal/services/poller"
	"product-checker-backend/internal/services/rescan"
	"product-checker-backend/internal/services/sheet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".xlsm": true,
	".csv":  true,
}

type Handler struct {
	requests  *repository.RequestRepository
	listings  *repository.ListingRepository
	catalog   *repository.CatalogRepository
	validator *intake.Validator
	platforms *intake.PlatformCache
	writer    *batch.Writer
	rescanner *rescan.Orchestrator
	poller    *poller.Poller
	hub       *ViewHub

	uploads sync.Map // upload id -> *UploadProgress
}

func New(
	requests *repository.RequestRepository,
	listings *repository.ListingRepository,
	catalog *repository.CatalogRepository,
	validator *intake.Validator,
	platforms *intake.PlatformCache,
	writer *batch.Writer,
	rescanner *rescan.Orchestrator,
	p *poller.Poller,
	hub *ViewHub,
) *Handler {
	return &Handler{
		requests:  requests,
		listings:  listings,
		catalog:   catalog,
		validator: validator,
		platforms: platforms,
		writer:    writer,
		rescanner: rescanner,
		poller:    p,
		hub:       hub,
	}
}

// UploadProgress is the advisory state of one background batch write.
type UploadProgress struct {
	Percent int           `json:"percent"`
	Message string        `json:"message"`
	Done    bool          `json:"done"`
	Result  *batch.Result `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Upload accepts a listing file, validates the batch, and starts the chunked
// write in the background. Validation failures return the full error list
// before anything is persisted.
func (h *Handler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	if header.Size > config.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "File size exceeds the maximum allowed size of 10MB."})
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Please select a valid listing file (.xlsx, .xls, .xlsm, .csv)."})
		return
	}

	listings, err := sheet.ReadListings(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file", "details": err.Error()})
		return
	}

	h.startBatch(c, header.Filename, listings)
}

// Submit accepts a filter-mode batch: previewed listings plus an optional
// custom display name.
func (h *Handler) Submit(c *gin.Context) {
	var payload struct {
		FileName string                   `json:"file_name"`
		Listings []intake.UploadedListing `json:"listings"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	fileName := sanitizeFileName(payload.FileName)
	if fileName == "" {
		fileName = fmt.Sprintf("QuerySelection-%s", time.Now().Format("20060102_150405"))
	}
	h.startBatch(c, fileName, payload.Listings)
}

func (h *Handler) startBatch(c *gin.Context, fileName string, listings []intake.UploadedListing) {
	for i := range listings {
		listings[i].Platform = h.platforms.Lookup(listings[i].ProductURL)
	}

	if errs := h.validator.Validate(c.Request.Context(), listings); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Validation failed",
			"errors": errs,
		})
		return
	}

	meta := batch.Meta{
		User:        submittingUser(c),
		FileName:    fileName,
		Environment: config.Environment(),
	}

	uploadID := uuid.New().String()
	h.uploads.Store(uploadID, &UploadProgress{Message: "queued"})

	go func() {
		result, err := h.writer.Write(context.Background(), meta, listings,
			func(pct int, msg string) {
				h.uploads.Store(uploadID, &UploadProgress{Percent: pct, Message: msg})
			})
		if err != nil {
			log.Printf("batch write failed: %v", err)
			state := &UploadProgress{Done: true, Error: err.Error(), Result: result}
			if result != nil {
				state.Message = result.Message
			}
			h.uploads.Store(uploadID, state)
			return
		}
		h.uploads.Store(uploadID, &UploadProgress{
			Percent: 100, Message: result.Message, Done: true, Result: result,
		})
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"upload_id": uploadID,
		"status":    "processing",
		"records":   len(listings),
	})
}

// UploadStatus reports background write progress.
func (h *Handler) UploadStatus(c *gin.Context) {
	val, ok := h.uploads.Load(c.Param("uploadId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
		return
	}
	c.JSON(http.StatusOK, val.(*UploadProgress))
}

// Preview runs the catalog query for the selected filter dimensions and
// returns candidate listings with derived platforms.
func (h *Handler) Preview(c *gin.Context) {
	var payload struct {
		CampaignIDs []uint `json:"campaign_ids"`
		CaseIDs     []uint `json:"case_ids"`
		PlatformIDs []uint `json:"platform_ids"`
		QflagIDs    []uint `json:"qflag_ids"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(payload.CampaignIDs)+len(payload.CaseIDs)+len(payload.PlatformIDs)+len(payload.QflagIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Please select at least one campaign, case, platform, or status."})
		return
	}

	rows, err := h.catalog.QueryListings(payload.CampaignIDs, payload.CaseIDs, payload.PlatformIDs, payload.QflagIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	listings := make([]intake.UploadedListing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, intake.UploadedListing{
			ListingID:  fmt.Sprintf("%d", row.ID),
			CaseNumber: row.CaseNumber,
			ProductURL: row.URL,
			Platform:   h.platforms.Lookup(row.URL),
		})
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings, "count": len(listings)})
}

// FilterOptions returns the catalog reference dimensions.
func (h *Handler) FilterOptions(c *gin.Context) {
	data, err := h.catalog.FilterOptions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

// SwitchEnvironment changes the Stage/Live tag behind a password gate. On
// success the platform cache is invalidated and fresh filter reference data
// is returned.
func (h *Handler) SwitchEnvironment(c *gin.Context) {
	var payload struct {
		Environment string `json:"environment"`
		Password    string `json:"password"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Password != config.EnvironmentSwitchPassword() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid password. Environment was not changed."})
		return
	}

	config.SetEnvironment(payload.Environment)
	h.platforms.Invalidate()

	filters, err := h.catalog.FilterOptions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"environment": config.Environment(),
		"filters":     filters,
	})
}

func submittingUser(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	return "SystemUser"
}

func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(
		"/", "", "\\", "", ":", "", "*", "", "?", "",
		"\"", "", "<", "", ">", "", "|", "",
	)
	return strings.TrimSpace(replacer.Replace(name))
}
