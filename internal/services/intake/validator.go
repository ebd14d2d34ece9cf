package intake

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// UploadedListing is one candidate row of a batch, before persistence.
type UploadedListing struct {
	ListingID  string `json:"listing_id"`
	CaseNumber string `json:"case_number"`
	ProductURL string `json:"product_url"`
	Platform   string `json:"platform"`
}

// ValidationResult is the remote existence check outcome. A non-empty Message
// means the check failed; MissingIDs names the unknown ids when available.
type ValidationResult struct {
	Message    string
	MissingIDs []string
}

// RemoteValidator checks listing ids against the remote catalog.
type RemoteValidator interface {
	ValidateListingIDs(ctx context.Context, ids []string) (*ValidationResult, error)
}

// Validator runs the full intake validation pass over a candidate batch.
type Validator struct {
	remote    RemoteValidator
	platforms *PlatformCache
}

func NewValidator(remote RemoteValidator, platforms *PlatformCache) *Validator {
	return &Validator{remote: remote, platforms: platforms}
}

// Validate returns a non-empty ordered error list, or nil when the batch is
// clean. Scheme-less URLs are normalized to https:// in place, so callers see
// the normalized form whether or not the batch is accepted overall.
//
// Row numbers in errors are 1-based data rows starting at 2, accounting for
// the spreadsheet header row.
func (v *Validator) Validate(ctx context.Context, listings []UploadedListing) []string {
	var errs []string
	if len(listings) == 0 {
		return []string{"No valid listings found in the file"}
	}

	if dups := duplicateIDs(listings); len(dups) > 0 {
		errs = append(errs, fmt.Sprintf("Duplicate Listing IDs found: %s", strings.Join(dups, ", ")))
	}

	// Remote existence failure is fatal for the whole batch: per-row checks
	// are skipped so the operator sees the missing ids alone.
	if remoteErrs := v.checkRemote(ctx, listings); len(remoteErrs) > 0 {
		return append(errs, remoteErrs...)
	}

	for i := range listings {
		rowNumber := i + 2
		listingID := strings.TrimSpace(listings[i].ListingID)

		if listingID == "" {
			errs = append(errs, fmt.Sprintf("row %d: Listing ID cannot be empty", rowNumber))
		} else if parsed, err := strconv.ParseInt(listingID, 10, 64); err != nil || parsed <= 0 {
			errs = append(errs, fmt.Sprintf("row %d: Listing ID must be positive (Value: %s)", rowNumber, listingID))
		}

		if strings.TrimSpace(listings[i].ProductURL) == "" {
			errs = append(errs, fmt.Sprintf("row %d: Product URL cannot be empty", rowNumber))
			continue
		}

		if !hasHTTPScheme(listings[i].ProductURL) {
			listings[i].ProductURL = "https://" + listings[i].ProductURL
		}
		if !IsValidProductURL(listings[i].ProductURL) {
			errs = append(errs, fmt.Sprintf("row %d: Invalid URL format - %s", rowNumber, listings[i].ProductURL))
		}
	}

	return errs
}

func (v *Validator) checkRemote(ctx context.Context, listings []UploadedListing) []string {
	ids := distinctIDs(listings)
	if len(ids) == 0 {
		return nil
	}

	result, err := v.remote.ValidateListingIDs(ctx, ids)
	if err != nil {
		return []string{fmt.Sprintf("API request failed: %v", err)}
	}
	if result == nil || result.Message == "" {
		return nil
	}

	errs := []string{result.Message}
	errs = append(errs, result.MissingIDs...)
	return errs
}

func duplicateIDs(listings []UploadedListing) []string {
	seen := make(map[string]int)
	var order []string
	for _, l := range listings {
		id := strings.TrimSpace(l.ListingID)
		if id == "" {
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			order = append(order, id)
		}
	}
	return order
}

func distinctIDs(listings []UploadedListing) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range listings {
		id := strings.TrimSpace(l.ListingID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func hasHTTPScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsValidProductURL accepts absolute http/https URLs with a dotted host.
// Single-label hosts ("https://bad") are rejected: every real product URL
// carries at least a registrable domain.
func IsValidProductURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	return strings.Contains(host, ".")
}
