package repository

import (
	"fmt"
	"strings"

	"product-checker-backend/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository reads the external catalog's reference dimensions and
// listings, used for filter-mode batch building.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FilterReferenceData is the full set of selectable filter dimensions.
type FilterReferenceData struct {
	Campaigns []models.FilterOption `json:"campaigns"`
	Cases     []models.FilterOption `json:"cases"`
	Platforms []models.FilterOption `json:"platforms"`
	Qflags    []models.FilterOption `json:"qflags"`
}

// FilterOptions loads all active reference dimensions. Blank display values
// fall back to "<Dimension> #<id>".
func (r *CatalogRepository) FilterOptions() (*FilterReferenceData, error) {
	data := &FilterReferenceData{}

	var campaigns []models.Campaign
	if err := r.db.Where("deleted_at IS NULL AND status = 1").Order("name").Find(&campaigns).Error; err != nil {
		return nil, err
	}
	for _, c := range campaigns {
		data.Campaigns = append(data.Campaigns, option(c.ID, c.Name, "Campaign"))
	}

	var cases []models.Case
	if err := r.db.Where("deleted_at IS NULL").Order("case_number").Find(&cases).Error; err != nil {
		return nil, err
	}
	for _, c := range cases {
		data.Cases = append(data.Cases, option(c.ID, c.CaseNumber, "Case"))
	}

	var platforms []models.Platform
	if err := r.db.Order("name").Find(&platforms).Error; err != nil {
		return nil, err
	}
	for _, p := range platforms {
		data.Platforms = append(data.Platforms, option(p.ID, p.Name, "Platform"))
	}

	var qflags []models.Qflag
	if err := r.db.Where("deleted_at IS NULL AND status = 1").Order("label").Find(&qflags).Error; err != nil {
		return nil, err
	}
	for _, q := range qflags {
		data.Qflags = append(data.Qflags, option(q.ID, q.Label, "QFlag"))
	}

	return data, nil
}

func option(id uint, display, fallback string) models.FilterOption {
	if strings.TrimSpace(display) == "" {
		display = fmt.Sprintf("%s #%d", fallback, id)
	}
	return models.FilterOption{ID: id, Display: display}
}

// CatalogRow is one previewed catalog listing with its joined case number.
type CatalogRow struct {
	ID         uint
	CaseNumber string
	URL        string
}

// QueryListings returns non-deleted catalog listings matching the selected
// filter ids. Empty id slices mean "no restriction" for that dimension.
func (r *CatalogRepository) QueryListings(campaignIDs, caseIDs, platformIDs, qflagIDs []uint) ([]CatalogRow, error) {
	query := r.db.Model(&models.CatalogListing{}).
		Select("listings.id, cases.case_number, listings.url").
		Joins("JOIN cases ON cases.id = listings.case_id").
		Joins("JOIN product_checker_platforms ON product_checker_platforms.id = listings.platform_id").
		Joins("JOIN qflag ON qflag.id = listings.qflag_id").
		Where("listings.deleted_at IS NULL AND cases.deleted_at IS NULL AND qflag.deleted_at IS NULL")

	if len(campaignIDs) > 0 {
		query = query.Where("listings.campaign_id IN ?", campaignIDs)
	}
	if len(caseIDs) > 0 {
		query = query.Where("listings.case_id IN ?", caseIDs)
	}
	if len(platformIDs) > 0 {
		query = query.Where("listings.platform_id IN ?", platformIDs)
	}
	if len(qflagIDs) > 0 {
		query = query.Where("listings.qflag_id IN ?", qflagIDs)
	}

	var rows []CatalogRow
	err := query.Order("listings.id").Scan(&rows).Error
	return rows, err
}
