package poller

import (
	"product-checker-backend/internal/models"
	"product-checker-backend/internal/repository"
)

// StoreSource feeds the poller from the relational store.
type StoreSource struct {
	requests *repository.RequestRepository
	listings *repository.ListingRepository
}

func NewStoreSource(requests *repository.RequestRepository, listings *repository.ListingRepository) *StoreSource {
	return &StoreSource{requests: requests, listings: listings}
}

func (s *StoreSource) ActiveRequests() ([]repository.RequestRow, error) {
	return s.requests.ActiveRequests()
}

func (s *StoreSource) ListingsFor(requestInfoID uint) ([]models.ProductListing, error) {
	return s.listings.ByRequestInfo(requestInfoID)
}

func (s *StoreSource) SearchMatchCounts(search string) (map[uint]int, error) {
	return s.listings.SearchMatchCounts(search)
}
