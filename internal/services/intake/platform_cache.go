package intake

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"product-checker-backend/internal/models"
)

const platformNotSupported = "Other|Not Supported"

// PlatformCache holds the platform/domain catalog, loaded lazily once and
// kept until Invalidate is called (on environment switch). The loader is
// injected so the cache carries no database dependency of its own.
type PlatformCache struct {
	mu        sync.RWMutex
	loaded    bool
	platforms []models.Platform
	load      func() ([]models.Platform, error)
}

func NewPlatformCache(load func() ([]models.Platform, error)) *PlatformCache {
	return &PlatformCache{load: load}
}

// Invalidate drops the cached catalog so the next lookup reloads it.
func (c *PlatformCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.platforms = nil
}

func (c *PlatformCache) catalog() []models.Platform {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.platforms
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.platforms
	}
	platforms, err := c.load()
	if err != nil {
		// A failed load leaves the cache unloaded so a later lookup retries.
		log.Printf("platform catalog load failed: %v", err)
		return nil
	}
	c.platforms = platforms
	c.loaded = true
	return c.platforms
}

// Lookup derives the platform label for a product URL: the first platform
// whose domain list contains the URL's host as a substring. Unavailable
// platforms yield "<Name>|Not Supported"; unmatched hosts yield
// "Other|Not Supported".
func (c *PlatformCache) Lookup(rawURL string) string {
	trimmed := strings.ToLower(strings.TrimSpace(rawURL))
	if trimmed == "" {
		return platformNotSupported
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Hostname() == "" {
		return platformNotSupported
	}
	host := strings.ToLower(u.Hostname())

	for _, platform := range c.catalog() {
		for _, domain := range platform.Domains() {
			if !strings.Contains(host, strings.ToLower(domain)) {
				continue
			}
			if platform.Availability == 1 && strings.TrimSpace(platform.Name) != "" {
				return platform.Name
			}
			if strings.TrimSpace(platform.Name) == "" {
				return platformNotSupported
			}
			return fmt.Sprintf("%s|Not Supported", platform.Name)
		}
	}

	return platformNotSupported
}
