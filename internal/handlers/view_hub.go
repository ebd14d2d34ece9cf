package handler

import (
	"io"
	"sync"

	"product-checker-backend/internal/models"
	"product-checker-backend/internal/repository"
	"product-checker-backend/internal/services/poller"

	"github.com/gin-gonic/gin"
)

// ViewHub fans poller updates out to streaming subscribers. Slow subscribers
// drop updates rather than stall the poll loop.
type ViewHub struct {
	mu   sync.Mutex
	subs map[chan poller.Update]struct{}
}

func NewViewHub() *ViewHub {
	return &ViewHub{subs: make(map[chan poller.Update]struct{})}
}

// Broadcast delivers an update to every subscriber without blocking.
func (h *ViewHub) Broadcast(update poller.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- update:
		default:
		}
	}
}

func (h *ViewHub) subscribe() chan poller.Update {
	ch := make(chan poller.Update, 4)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *ViewHub) unsubscribe(ch chan poller.Update) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// StreamRequests pushes view updates to the client as server-sent events
// until the client disconnects.
func (h *Handler) StreamRequests(c *gin.Context) {
	ch := h.hub.subscribe()
	defer h.hub.unsubscribe(ch)

	c.Stream(func(w io.Writer) bool {
		select {
		case update, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("update", update)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func requestViewOf(id uint, user, fileName string, status models.RequestStatus) *poller.RequestView {
	return &poller.RequestView{ID: id, User: user, FileName: fileName, Status: status}
}

func (h *Handler) progressOf(listings []models.ProductListing) repository.Progress {
	return repository.ComputeProgress(listings)
}
