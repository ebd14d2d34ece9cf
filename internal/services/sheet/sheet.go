// Package sheet reads uploaded listing files and writes result exports.
// The logical contract is three import columns (listing id, case number,
// url) and the eight-column result layout of the original export.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"product-checker-backend/internal/models"
	"product-checker-backend/internal/services/intake"
)

// ReadListings parses an uploaded file into candidate listings. Row 1 is
// treated as a header when any of its first three cells look like column
// titles (listing/id, case/number, url/link). Fully blank rows are skipped.
func ReadListings(r io.Reader) ([]intake.UploadedListing, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var listings []intake.UploadedListing
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading upload: %w", err)
		}

		if first {
			first = false
			if isHeaderRow(record) {
				continue
			}
		}

		listingID := cell(record, 0)
		caseNumber := cell(record, 1)
		url := cell(record, 2)
		if listingID == "" && caseNumber == "" && url == "" {
			continue
		}

		listings = append(listings, intake.UploadedListing{
			ListingID:  listingID,
			CaseNumber: caseNumber,
			ProductURL: url,
		})
	}
	return listings, nil
}

func isHeaderRow(record []string) bool {
	c1 := strings.ToLower(cell(record, 0))
	c2 := strings.ToLower(cell(record, 1))
	c3 := strings.ToLower(cell(record, 2))
	return strings.Contains(c1, "listing") || strings.Contains(c1, "id") ||
		strings.Contains(c2, "case") || strings.Contains(c2, "number") ||
		strings.Contains(c3, "url") || strings.Contains(c3, "link")
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

var exportHeader = []string{
	"Listing ID", "Case Number", "Platform", "Product URL",
	"URL Status", "Checked Date", "Error Detail", "Notes",
}

// WriteListings writes one row per listing under the result header.
func WriteListings(w io.Writer, listings []models.ProductListing) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for i := range listings {
		l := &listings[i]
		row := []string{
			l.ListingID,
			deref(l.CaseNumber),
			l.Platform,
			l.URL,
			deref(l.UrlStatus),
			deref(l.CheckedDate),
			deref(l.ErrorDetail),
			deref(l.Note),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ResultFileName builds the default export name for a batch.
func ResultFileName(base string, now time.Time) string {
	base = strings.TrimSuffix(base, ".xlsx")
	base = strings.TrimSuffix(base, ".xls")
	base = strings.TrimSuffix(base, ".xlsm")
	base = strings.TrimSuffix(base, ".csv")
	if base == "" {
		base = "Listings"
	}
	return fmt.Sprintf("%s-Result-%s.csv", base, now.Format("20060102_150405"))
}
