// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/merchstudio/photostudio-backend/internal/catalog"
	"github.com/merchstudio/photostudio-backend/internal/config"
	"github.com/merchstudio/photostudio-backend/internal/handlers"
	"github.com/merchstudio/photostudio-backend/internal/httpclient"
	"github.com/merchstudio/photostudio-backend/internal/imageservice"
	"github.com/merchstudio/photostudio-backend/internal/middleware"
	"github.com/merchstudio/photostudio-backend/internal/probe"
	"github.com/merchstudio/photostudio-backend/internal/productmedia"
	"github.com/merchstudio/photostudio-backend/internal/services"
	"github.com/merchstudio/photostudio-backend/internal/studio"
	"github.com/merchstudio/photostudio-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *studio.Manager) {
	// Upstream clients share one HTTP client so retries and instance-token
	// handling stay in one place.
	upstream := httpclient.New()
	imageClient := imageservice.NewClient(cfg.ImageService.BaseURL, upstream, cfg.ImageService.Retries)
	catalogService := catalog.NewService(
		catalog.NewReader(cfg.Catalog, upstream),
		time.Duration(cfg.Catalog.CacheTTL)*time.Second,
	)
	mediaClient := productmedia.NewClient(cfg.Catalog.BaseURL, upstream)
	prober := probe.New(upstream, cfg.Studio.ProbeMaxBytes)

	// Initialize services
	eventService := services.NewEventService(db)
	entitlementService := services.NewEntitlementService(cfg)
	stagingService, _ := services.NewStagingService(cfg)

	manager := studio.NewManager(studio.Deps{
		Images:       imageClient,
		Catalog:      catalogService,
		Media:        mediaClient,
		Probe:        prober,
		Events:       eventService,
		Entitlements: entitlementService,
		Staging:      stagingService,
		Config:       cfg.Studio,
	})

	// Initialize handlers
	studioHandler := handlers.NewStudioHandler(manager, stagingService)
	subscriptionHandler := handlers.NewSubscriptionHandler(entitlementService)
	eventHandler := handlers.NewEventHandler(eventService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		studioRoutes := v1.Group("/studio")
		studioRoutes.Use(middleware.InstanceAuth())
		{
			// Session lifecycle
			sessions := studioRoutes.Group("/sessions")
			{
				sessions.POST("", middleware.SessionRateLimit(), studioHandler.OpenSession)
				sessions.GET("/:sessionId", studioHandler.GetSession)
				sessions.DELETE("/:sessionId", studioHandler.CloseSession)

				// Image collection and lifecycle
				sessions.POST("/:sessionId/images/fetch", studioHandler.FetchImages)
				sessions.POST("/:sessionId/images/:imageId/select", studioHandler.SelectImage)
				sessions.POST("/:sessionId/images/:imageId/reference", studioHandler.MarkReference)
				sessions.POST("/:sessionId/images/:imageId/publish", studioHandler.PublishImage)
				sessions.DELETE("/:sessionId/images/:imageId", studioHandler.DeleteImage)
				sessions.PATCH("/:sessionId/images/:imageId", studioHandler.UpdateImage)
				sessions.GET("/:sessionId/images/:imageId/versions", studioHandler.GetImageVersions)

				// Staged uploads
				sessions.POST("/:sessionId/uploads", middleware.UploadRateLimit(), studioHandler.UploadImage)

				// Edit history
				sessions.POST("/:sessionId/history/undo", studioHandler.Undo)
				sessions.POST("/:sessionId/history/redo", studioHandler.Redo)

				// Editor state
				sessions.PATCH("/:sessionId/settings", studioHandler.UpdateSettings)
				sessions.GET("/:sessionId/notifications", studioHandler.GetNotifications)
			}

			// Billing status
			studioRoutes.GET("/subscription", subscriptionHandler.GetSubscription)

			// Analytics
			studioRoutes.GET("/events", eventHandler.ListEvents)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r, manager
}
