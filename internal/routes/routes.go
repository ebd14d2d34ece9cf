package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"product-checker-backend/internal/config"
	handler "product-checker-backend/internal/handlers"
	"product-checker-backend/internal/repository"
	"product-checker-backend/internal/services/artemis"
	"product-checker-backend/internal/services/batch"
	"product-checker-backend/internal/services/intake"
	"product-checker-backend/internal/services/poller"
	"product-checker-backend/internal/services/rescan"
)

// RegisterRoutes wires repositories, services and handlers onto the engine
// and returns the poller so main can manage its lifecycle.
func RegisterRoutes(r *gin.Engine, db *gorm.DB) *poller.Poller {
	requestRepo := repository.NewRequestRepository(db)
	listingRepo := repository.NewListingRepository(db)
	platformRepo := repository.NewPlatformRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	platformCache := intake.NewPlatformCache(platformRepo.GetAll)
	remote := artemis.NewClient(config.ArtemisBaseURL(), config.ArtemisToken())
	validator := intake.NewValidator(remote, platformCache)
	writer := batch.NewWriter(db, config.ChunkSize())
	rescanner := rescan.NewOrchestrator(db)

	hub := handler.NewViewHub()
	source := poller.NewStoreSource(requestRepo, listingRepo)
	p := poller.New(source, config.PollInterval(), hub.Broadcast)

	h := handler.New(requestRepo, listingRepo, catalogRepo, validator,
		platformCache, writer, rescanner, p, hub)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "environment": config.Environment()})
	})

	requests := api.Group("/requests")
	requests.POST("/upload", h.Upload)
	requests.POST("", h.Submit)
	requests.POST("/preview", h.Preview)
	requests.GET("", h.ListRequests)
	requests.GET("/stream", h.StreamRequests)
	requests.GET("/:id/listings", h.RequestListings)
	requests.GET("/:id/export", h.Export)
	requests.POST("/:id/select", h.SelectRequest)
	requests.POST("/:id/priority", h.SetPriority)
	requests.POST("/:id/rescan", h.Rescan)

	api.GET("/uploads/:uploadId", h.UploadStatus)
	api.GET("/filters", h.FilterOptions)
	api.POST("/environment", h.SwitchEnvironment)

	return p
}
