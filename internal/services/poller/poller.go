// Package poller keeps an in-memory view of the request store current by
// re-reading it on a fixed interval and publishing only real deltas. The
// store is mutated externally by the crawler, so polling is the only way to
// observe progress; the change signal keeps identical reads from churning
// the view.
package poller

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"product-checker-backend/internal/models"
	"product-checker-backend/internal/repository"
)

// Source abstracts the store reads a tick needs, so the loop is independent
// of the database layer.
type Source interface {
	ActiveRequests() ([]repository.RequestRow, error)
	ListingsFor(requestInfoID uint) ([]models.ProductListing, error)
	SearchMatchCounts(search string) (map[uint]int, error)
}

// RequestView is one entry of the live view. Entries are merged in place
// across ticks so subscribers can hold on to them without losing identity.
type RequestView struct {
	ID              uint                 `json:"id"`
	RequestInfoID   uint                 `json:"request_info_id"`
	User            string               `json:"user"`
	FileName        string               `json:"file_name"`
	Status          models.RequestStatus `json:"status"`
	Priority        int                  `json:"priority"`
	CreatedAt       time.Time            `json:"created_at"`
	ListingsCount   int                  `json:"listings_count"`
	MatchCount      int                  `json:"match_count"`
	HasListingMatch bool                 `json:"has_listing_match"`
}

// MatchesText reports whether the request's own fields contain the search
// text (case-insensitive substring over id, user, filename, status).
func (v *RequestView) MatchesText(search string) bool {
	s := strings.ToLower(search)
	return strings.Contains(strconv.FormatUint(uint64(v.ID), 10), s) ||
		strings.Contains(strings.ToLower(v.User), s) ||
		strings.Contains(strings.ToLower(v.FileName), s) ||
		strings.Contains(strings.ToLower(string(v.Status)), s)
}

// SelectedDetail is the eagerly refreshed state of the operator's selected
// request: its listings and processed/total progress.
type SelectedDetail struct {
	RequestID uint                    `json:"request_id"`
	Listings  []models.ProductListing `json:"listings"`
	Progress  repository.Progress     `json:"progress"`
}

// Update is one published view refresh.
type Update struct {
	Changed      bool            `json:"changed"`
	Requests     []*RequestView  `json:"requests"`
	PendingCount int             `json:"pending_count"`
	Selected     *SelectedDetail `json:"selected,omitempty"`
}

// UpdateFunc receives view refreshes from the poll loop's goroutine.
type UpdateFunc func(Update)

type Poller struct {
	source   Source
	interval time.Duration
	onUpdate UpdateFunc

	mu       sync.Mutex
	snapshot []*RequestView
	selected uint
	search   string

	runMu sync.Mutex
	stop  chan struct{}
	busy  atomic.Bool
}

func New(source Source, interval time.Duration, onUpdate UpdateFunc) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{source: source, interval: interval, onUpdate: onUpdate}
}

// Start launches the poll loop. Starting an already-running poller is a
// no-op; a stopped poller can be started again on the same schedule.
func (p *Poller) Start() {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.stop != nil {
		return
	}
	stopCh := make(chan struct{})
	p.stop = stopCh
	go p.run(stopCh)
}

// Stop halts the loop synchronously and idempotently. No new tick runs after
// Stop returns; a tick already in flight finishes and its results are
// discarded.
func (p *Poller) Stop() {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.stop == nil {
		return
	}
	close(p.stop)
	p.stop = nil
}

func (p *Poller) run(stopCh chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// Skip-if-busy: ticks are never queued behind a slow store.
			if !p.busy.CompareAndSwap(false, true) {
				continue
			}
			go func() {
				defer p.busy.Store(false)
				p.Tick(stopCh)
			}()
		}
	}
}

// SetSelected marks the request whose listings are re-pulled every tick.
// Zero clears the selection.
func (p *Poller) SetSelected(requestID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = requestID
}

// SetSearch sets the free-text filter; match counts are recomputed on every
// tick while it is non-empty.
func (p *Poller) SetSearch(search string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.search = strings.TrimSpace(search)
}

// Snapshot returns the current view entries, filtered by the active search.
func (p *Poller) Snapshot() []*RequestView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filteredLocked()
}

func (p *Poller) filteredLocked() []*RequestView {
	out := make([]*RequestView, 0, len(p.snapshot))
	for _, entry := range p.snapshot {
		if p.search != "" && !entry.MatchesText(p.search) && !entry.HasListingMatch {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Tick performs one synchronization pass. Exported so callers can force an
// immediate refresh (initial page load) outside the timer schedule. Errors
// are logged, never surfaced: background refresh must not interrupt
// interactive use.
func (p *Poller) Tick(stopCh chan struct{}) {
	update, err := p.sync()
	if err != nil {
		log.Printf("auto-refresh error: %v", err)
		return
	}
	if update == nil {
		return
	}
	if stopCh != nil {
		select {
		case <-stopCh:
			return
		default:
		}
	}
	if p.onUpdate != nil {
		p.onUpdate(*update)
	}
}

func (p *Poller) sync() (*Update, error) {
	rows, err := p.source.ActiveRequests()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	changed := changeSignal(p.snapshot, rows)
	if changed {
		p.merge(rows)
	}
	selectedID := p.selected
	search := p.search
	selectedInfoID := uint(0)
	for _, entry := range p.snapshot {
		if entry.ID == selectedID {
			selectedInfoID = entry.RequestInfoID
			break
		}
	}
	p.mu.Unlock()

	// The selected request's listings refresh every tick regardless of the
	// request-level signal: listing progress moves without touching the
	// request row.
	var selected *SelectedDetail
	if selectedID != 0 && selectedInfoID != 0 {
		listings, err := p.source.ListingsFor(selectedInfoID)
		if err != nil {
			return nil, err
		}
		selected = &SelectedDetail{
			RequestID: selectedID,
			Listings:  listings,
			Progress:  repository.ComputeProgress(listings),
		}
	}

	var matchCounts map[uint]int
	if search != "" {
		if matchCounts, err = p.source.SearchMatchCounts(search); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pending := 0
	for _, entry := range p.snapshot {
		if search != "" {
			count := matchCounts[entry.RequestInfoID]
			entry.MatchCount = count
			entry.HasListingMatch = count > 0
		} else {
			entry.MatchCount = 0
			entry.HasListingMatch = false
		}
		if entry.Status == models.StatusPending {
			pending++
		}
	}

	if !changed && search == "" && selected == nil {
		return nil, nil
	}
	return &Update{
		Changed:      changed,
		Requests:     p.filteredLocked(),
		PendingCount: pending,
		Selected:     selected,
	}, nil
}

// changeSignal is true iff the id set differs or any matching id changed
// status, listings count, or priority.
func changeSignal(current []*RequestView, rows []repository.RequestRow) bool {
	if len(current) != len(rows) {
		return true
	}
	byID := make(map[uint]*RequestView, len(current))
	for _, entry := range current {
		byID[entry.ID] = entry
	}
	for _, row := range rows {
		entry, ok := byID[row.ID]
		if !ok {
			return true
		}
		if entry.Status != row.Status ||
			entry.ListingsCount != row.ListingsCount ||
			entry.Priority != row.Priority {
			return true
		}
	}
	return false
}

// merge updates mutable fields on existing entries in place, appends entries
// for new ids, drops vanished ids, and re-sorts by id descending. In-place
// updates preserve entry identity so a subscriber's selection survives.
func (p *Poller) merge(rows []repository.RequestRow) {
	byID := make(map[uint]*RequestView, len(p.snapshot))
	for _, entry := range p.snapshot {
		byID[entry.ID] = entry
	}

	next := make([]*RequestView, 0, len(rows))
	for _, row := range rows {
		if entry, ok := byID[row.ID]; ok {
			entry.Status = row.Status
			entry.ListingsCount = row.ListingsCount
			entry.Priority = row.Priority
			entry.RequestInfoID = row.RequestInfoID
			next = append(next, entry)
			continue
		}
		next = append(next, &RequestView{
			ID:            row.ID,
			RequestInfoID: row.RequestInfoID,
			User:          row.User,
			FileName:      row.FileName,
			Status:        row.Status,
			Priority:      row.Priority,
			CreatedAt:     row.CreatedAt,
			ListingsCount: row.ListingsCount,
		})
	}

	sort.Slice(next, func(i, j int) bool { return next[i].ID > next[j].ID })
	p.snapshot = next
}
