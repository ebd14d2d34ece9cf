package models

import "strings"

// RequestStatus is the crawler-facing lifecycle of a Request.
type RequestStatus string

const (
	StatusPending             RequestStatus = "PENDING"
	StatusProcessing          RequestStatus = "PROCESSING"
	StatusSuccess             RequestStatus = "SUCCESS"
	StatusFailed              RequestStatus = "FAILED"
	StatusCompletedWithIssues RequestStatus = "COMPLETED_WITH_ISSUES"
)

// Terminal reports whether no further crawler transition is expected.
func (s RequestStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCompletedWithIssues
}

// RescanAllowed reports whether a request in this status may be superseded.
func (s RequestStatus) RescanAllowed() bool {
	return s == StatusFailed || s == StatusCompletedWithIssues
}

// ExportAllowed reports whether listings for a request in this status may be
// exported.
func (s RequestStatus) ExportAllowed() bool {
	return s == StatusSuccess || s == StatusCompletedWithIssues
}

// StatusClass buckets the free-form listing status string the crawler writes.
// The column is an external contract: anything may appear there, and only
// blank/"PENDING" and the two resolved sentinels carry meaning in-process.
type StatusClass int

const (
	ListingUnprocessed StatusClass = iota
	ListingResolved
	ListingOther
)

const (
	urlStatusAvailable    = "Available"
	urlStatusNotAvailable = "Not Available"
)

// ClassifyUrlStatus maps a raw listing status to its class. A nil or blank
// status and the literal "PENDING" mean the crawler has not processed the row.
func ClassifyUrlStatus(status *string) StatusClass {
	if status == nil {
		return ListingUnprocessed
	}
	s := strings.TrimSpace(*status)
	if s == "" || strings.EqualFold(s, "PENDING") {
		return ListingUnprocessed
	}
	if strings.EqualFold(s, urlStatusAvailable) || strings.EqualFold(s, urlStatusNotAvailable) {
		return ListingResolved
	}
	return ListingOther
}

// ListingProcessed reports whether the crawler has produced any outcome for
// the row: status non-blank and not literally PENDING.
func ListingProcessed(status *string) bool {
	return ClassifyUrlStatus(status) != ListingUnprocessed
}
