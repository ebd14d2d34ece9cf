package models

import "testing"

func strPtr(s string) *string { return &s }

func TestClassifyUrlStatus(t *testing.T) {
	tests := []struct {
		name   string
		status *string
		want   StatusClass
	}{
		{name: "nil", status: nil, want: ListingUnprocessed},
		{name: "blank", status: strPtr(""), want: ListingUnprocessed},
		{name: "whitespace", status: strPtr("   "), want: ListingUnprocessed},
		{name: "pending literal", status: strPtr("PENDING"), want: ListingUnprocessed},
		{name: "pending mixed case", status: strPtr("Pending"), want: ListingUnprocessed},
		{name: "available", status: strPtr("Available"), want: ListingResolved},
		{name: "available lower", status: strPtr("available"), want: ListingResolved},
		{name: "not available", status: strPtr("Not Available"), want: ListingResolved},
		{name: "crawler error", status: strPtr("Error: timeout"), want: ListingOther},
		{name: "arbitrary crawler string", status: strPtr("BLOCKED_BY_ROBOTS"), want: ListingOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyUrlStatus(tt.status); got != tt.want {
				t.Errorf("ClassifyUrlStatus(%v) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestListingProcessed(t *testing.T) {
	if ListingProcessed(nil) {
		t.Error("nil status should not count as processed")
	}
	if ListingProcessed(strPtr("PENDING")) {
		t.Error("PENDING should not count as processed")
	}
	if !ListingProcessed(strPtr("Available")) {
		t.Error("Available should count as processed")
	}
	if !ListingProcessed(strPtr("Error: timeout")) {
		t.Error("errored listings count as processed")
	}
}

func TestRequestStatusPredicates(t *testing.T) {
	tests := []struct {
		status   RequestStatus
		terminal bool
		rescan   bool
		export   bool
	}{
		{StatusPending, false, false, false},
		{StatusProcessing, false, false, false},
		{StatusSuccess, true, false, true},
		{StatusFailed, true, true, false},
		{StatusCompletedWithIssues, true, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
			if got := tt.status.RescanAllowed(); got != tt.rescan {
				t.Errorf("RescanAllowed() = %v, want %v", got, tt.rescan)
			}
			if got := tt.status.ExportAllowed(); got != tt.export {
				t.Errorf("ExportAllowed() = %v, want %v", got, tt.export)
			}
		})
	}
}

func TestPlatformDomains(t *testing.T) {
	p := Platform{Domain: "ebay.com, ebay.co.uk,,  ebay.de "}
	got := p.Domains()
	want := []string{"ebay.com", "ebay.co.uk", "ebay.de"}
	if len(got) != len(want) {
		t.Fatalf("Domains() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Domains()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
