package intake

import (
	"errors"
	"testing"

	"product-checker-backend/internal/models"
)

func testPlatforms() []models.Platform {
	return []models.Platform{
		{ID: 1, Name: "eBay", Domain: "ebay.com,ebay.co.uk", Availability: 1},
		{ID: 2, Name: "Amazon", Domain: "amazon.", Availability: 1},
		{ID: 3, Name: "Wish", Domain: "wish.com", Availability: 0},
	}
}

func TestPlatformLookup(t *testing.T) {
	cache := NewPlatformCache(func() ([]models.Platform, error) {
		return testPlatforms(), nil
	})

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "exact domain", url: "https://ebay.com/itm/123", want: "eBay"},
		{name: "secondary domain", url: "https://www.ebay.co.uk/itm/9", want: "eBay"},
		{name: "scheme-less input", url: "EBAY.com/itm/4", want: "eBay"},
		{name: "substring match on host", url: "https://amazon.de/dp/B01", want: "Amazon"},
		{name: "unavailable platform", url: "https://wish.com/product/7", want: "Wish|Not Supported"},
		{name: "unknown host", url: "https://bad.com/x", want: "Other|Not Supported"},
		{name: "blank url", url: "   ", want: "Other|Not Supported"},
		{name: "unparseable", url: "https://%zz", want: "Other|Not Supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cache.Lookup(tt.url); got != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestPlatformCacheLoadsOnce(t *testing.T) {
	loads := 0
	cache := NewPlatformCache(func() ([]models.Platform, error) {
		loads++
		return testPlatforms(), nil
	})

	cache.Lookup("https://ebay.com/a")
	cache.Lookup("https://ebay.com/b")
	cache.Lookup("https://amazon.com/c")
	if loads != 1 {
		t.Errorf("catalog loaded %d times, want 1", loads)
	}
}

func TestPlatformCacheInvalidateReloads(t *testing.T) {
	loads := 0
	cache := NewPlatformCache(func() ([]models.Platform, error) {
		loads++
		if loads == 1 {
			return testPlatforms(), nil
		}
		// The second environment has no eBay entry.
		return []models.Platform{
			{ID: 9, Name: "Etsy", Domain: "etsy.com", Availability: 1},
		}, nil
	})

	if got := cache.Lookup("https://ebay.com/a"); got != "eBay" {
		t.Fatalf("Lookup before invalidate = %q", got)
	}

	cache.Invalidate()

	if got := cache.Lookup("https://ebay.com/a"); got != "Other|Not Supported" {
		t.Errorf("Lookup after invalidate = %q, want Other|Not Supported", got)
	}
	if got := cache.Lookup("https://etsy.com/shop"); got != "Etsy" {
		t.Errorf("Lookup after invalidate = %q, want Etsy", got)
	}
	if loads != 2 {
		t.Errorf("catalog loaded %d times, want 2", loads)
	}
}

func TestPlatformCacheFailedLoadRetries(t *testing.T) {
	loads := 0
	cache := NewPlatformCache(func() ([]models.Platform, error) {
		loads++
		if loads == 1 {
			return nil, errors.New("store unreachable")
		}
		return testPlatforms(), nil
	})

	if got := cache.Lookup("https://ebay.com/a"); got != "Other|Not Supported" {
		t.Fatalf("Lookup with failed load = %q", got)
	}
	if got := cache.Lookup("https://ebay.com/a"); got != "eBay" {
		t.Errorf("Lookup after recovery = %q, want eBay", got)
	}
}
