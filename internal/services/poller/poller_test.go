package poller

import (
	"testing"
	"time"

	"product-checker-backend/internal/models"
	"product-checker-backend/internal/repository"
)

type fakeSource struct {
	rows     []repository.RequestRow
	listings map[uint][]models.ProductListing
	counts   map[uint]int

	listingsCalls int
	countsCalls   int
}

func (f *fakeSource) ActiveRequests() ([]repository.RequestRow, error) {
	out := make([]repository.RequestRow, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeSource) ListingsFor(requestInfoID uint) ([]models.ProductListing, error) {
	f.listingsCalls++
	return f.listings[requestInfoID], nil
}

func (f *fakeSource) SearchMatchCounts(string) (map[uint]int, error) {
	f.countsCalls++
	return f.counts, nil
}

func row(id, infoID uint, status models.RequestStatus, count, priority int) repository.RequestRow {
	return repository.RequestRow{
		ID:            id,
		RequestInfoID: infoID,
		User:          "tester",
		FileName:      "batch.csv",
		Status:        status,
		Priority:      priority,
		CreatedAt:     time.Now(),
		ListingsCount: count,
	}
}

type capture struct {
	updates []Update
}

func (c *capture) fn(u Update) { c.updates = append(c.updates, u) }

func TestTickPublishesInitialView(t *testing.T) {
	src := &fakeSource{rows: []repository.RequestRow{
		row(2, 20, models.StatusProcessing, 5, 0),
		row(1, 10, models.StatusPending, 3, 0),
	}}
	cap := &capture{}
	p := New(src, time.Second, cap.fn)

	p.Tick(nil)

	if len(cap.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(cap.updates))
	}
	u := cap.updates[0]
	if !u.Changed {
		t.Error("first tick over an empty view must signal change")
	}
	if len(u.Requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(u.Requests))
	}
	if u.Requests[0].ID != 2 || u.Requests[1].ID != 1 {
		t.Errorf("view must be id-descending, got %d,%d", u.Requests[0].ID, u.Requests[1].ID)
	}
	if u.PendingCount != 1 {
		t.Errorf("PendingCount = %d, want 1", u.PendingCount)
	}
}

func TestTickSuppressesIdenticalReads(t *testing.T) {
	src := &fakeSource{rows: []repository.RequestRow{
		row(1, 10, models.StatusPending, 3, 0),
	}}
	cap := &capture{}
	p := New(src, time.Second, cap.fn)

	p.Tick(nil)
	p.Tick(nil)
	p.Tick(nil)

	if len(cap.updates) != 1 {
		t.Fatalf("identical reads published %d updates, want 1", len(cap.updates))
	}
}

func TestChangeSignalFields(t *testing.T) {
	base := []repository.RequestRow{row(1, 10, models.StatusPending, 3, 0)}

	tests := []struct {
		name string
		next repository.RequestRow
		want bool
	}{
		{name: "identical", next: row(1, 10, models.StatusPending, 3, 0), want: false},
		{name: "status moved", next: row(1, 10, models.StatusProcessing, 3, 0), want: true},
		{name: "listings grew", next: row(1, 10, models.StatusPending, 4, 0), want: true},
		{name: "priority flipped", next: row(1, 10, models.StatusPending, 3, 1), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{rows: base}
			p := New(src, time.Second, nil)
			p.Tick(nil)

			src.rows = []repository.RequestRow{tt.next}
			p.Tick(nil)

			snap := p.Snapshot()
			changedInView := snap[0].Status != models.StatusPending ||
				snap[0].ListingsCount != 3 || snap[0].Priority != 0
			if changedInView != tt.want {
				t.Errorf("view merged = %v, want %v", changedInView, tt.want)
			}
		})
	}
}

func TestMergePreservesEntryIdentity(t *testing.T) {
	src := &fakeSource{rows: []repository.RequestRow{
		row(1, 10, models.StatusPending, 3, 0),
	}}
	p := New(src, time.Second, nil)
	p.Tick(nil)

	before := p.Snapshot()[0]

	src.rows = []repository.RequestRow{row(1, 10, models.StatusProcessing, 7, 1)}
	p.Tick(nil)

	after := p.Snapshot()[0]
	if before != after {
		t.Fatal("merge must update the existing entry in place, not replace it")
	}
	if after.Status != models.StatusProcessing || after.ListingsCount != 7 || after.Priority != 1 {
		t.Errorf("entry not updated: %+v", after)
	}
}

func TestMergeSortsNewEntriesDescending(t *testing.T) {
	src := &fakeSource{rows: []repository.RequestRow{
		row(2, 20, models.StatusPending, 1, 0),
	}}
	p := New(src, time.Second, nil)
	p.Tick(nil)

	src.rows = []repository.RequestRow{
		row(2, 20, models.StatusPending, 1, 0),
		row(5, 50, models.StatusPending, 2, 0),
		row(1, 10, models.StatusSuccess, 9, 0),
	}
	p.Tick(nil)

	snap := p.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot = %d entries, want 3", len(snap))
	}
	for i, want := range []uint{5, 2, 1} {
		if snap[i].ID != want {
			t.Errorf("snapshot[%d].ID = %d, want %d", i, snap[i].ID, want)
		}
	}
}

func TestSelectedRefreshedEveryTick(t *testing.T) {
	status := "Available"
	src := &fakeSource{
		rows: []repository.RequestRow{row(1, 10, models.StatusProcessing, 2, 0)},
		listings: map[uint][]models.ProductListing{
			10: {
				{ID: 1, RequestInfoID: 10, ListingID: "111", UrlStatus: &status},
				{ID: 2, RequestInfoID: 10, ListingID: "222"},
			},
		},
	}
	cap := &capture{}
	p := New(src, time.Second, cap.fn)
	p.Tick(nil)
	p.SetSelected(1)

	// The request row is unchanged, but the selection forces a publish with
	// fresh listings.
	p.Tick(nil)
	p.Tick(nil)

	if len(cap.updates) != 3 {
		t.Fatalf("updates = %d, want 3", len(cap.updates))
	}
	last := cap.updates[2]
	if last.Changed {
		t.Error("unchanged rows must not report Changed")
	}
	if last.Selected == nil || last.Selected.RequestID != 1 {
		t.Fatalf("Selected = %+v", last.Selected)
	}
	if len(last.Selected.Listings) != 2 {
		t.Errorf("selected listings = %d, want 2", len(last.Selected.Listings))
	}
	if last.Selected.Progress.Processed != 1 || last.Selected.Progress.Total != 2 {
		t.Errorf("progress = %+v, want 1/2", last.Selected.Progress)
	}
	if src.listingsCalls != 2 {
		t.Errorf("listings fetched %d times after select, want 2", src.listingsCalls)
	}
}

func TestSearchFiltersSnapshot(t *testing.T) {
	src := &fakeSource{
		rows: []repository.RequestRow{
			row(2, 20, models.StatusPending, 1, 0),
			row(1, 10, models.StatusPending, 1, 0),
		},
		counts: map[uint]int{10: 3},
	}
	src.rows[0].User = "alice"
	src.rows[1].User = "bob"

	cap := &capture{}
	p := New(src, time.Second, cap.fn)
	p.Tick(nil)

	p.SetSearch("zzz-no-text-match")
	p.Tick(nil)

	u := cap.updates[len(cap.updates)-1]
	if len(u.Requests) != 1 || u.Requests[0].ID != 1 {
		t.Fatalf("only the request with listing matches should survive, got %+v", u.Requests)
	}
	if u.Requests[0].MatchCount != 3 {
		t.Errorf("MatchCount = %d, want 3", u.Requests[0].MatchCount)
	}

	// Text match on the request's own fields keeps it without listing hits.
	p.SetSearch("alice")
	p.Tick(nil)
	u = cap.updates[len(cap.updates)-1]
	found := false
	for _, entry := range u.Requests {
		if entry.ID == 2 {
			found = true
		}
	}
	if !found {
		t.Error("request matching by user text must stay in the filtered view")
	}

	// Clearing the search restores the full view and resets counts.
	p.SetSearch("")
	p.Tick(nil)
	snap := p.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("cleared search should restore both entries, got %d", len(snap))
	}
	for _, entry := range snap {
		if entry.MatchCount != 0 || entry.HasListingMatch {
			t.Errorf("counts must reset when search clears: %+v", entry)
		}
	}
}

func TestStopIdempotentAndRestartable(t *testing.T) {
	p := New(&fakeSource{}, time.Hour, nil)

	p.Stop() // never started
	p.Start()
	p.Start() // second start is a no-op
	p.Stop()
	p.Stop()
	p.Start()
	p.Stop()
}

func TestTickDiscardsResultAfterStop(t *testing.T) {
	src := &fakeSource{rows: []repository.RequestRow{
		row(1, 10, models.StatusPending, 1, 0),
	}}
	cap := &capture{}
	p := New(src, time.Second, cap.fn)

	stopCh := make(chan struct{})
	close(stopCh)
	p.Tick(stopCh)

	if len(cap.updates) != 0 {
		t.Fatalf("tick completing after stop published %d updates, want 0", len(cap.updates))
	}
}

func TestMatchesText(t *testing.T) {
	v := &RequestView{ID: 42, User: "Alice", FileName: "Spring.csv", Status: models.StatusPending}

	tests := []struct {
		search string
		want   bool
	}{
		{"42", true},
		{"alice", true},
		{"spring", true},
		{"pending", true},
		{"nope", false},
	}
	for _, tt := range tests {
		if got := v.MatchesText(tt.search); got != tt.want {
			t.Errorf("MatchesText(%q) = %v, want %v", tt.search, got, tt.want)
		}
	}
}
