package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brandshot-backend/internal/billing"
	"brandshot-backend/internal/config"
	"brandshot-backend/internal/entitlement"
	"brandshot-backend/internal/middleware"
	"brandshot-backend/internal/models"
	"brandshot-backend/internal/render"
	"brandshot-backend/internal/session"
	"brandshot-backend/internal/upload"
)

// Dependencies are the services the router wires into handlers.
type Dependencies struct {
	Config       *config.Config
	Sessions     *session.Manager
	Entitlements entitlement.Store
	Rasterizer   render.Rasterizer
	Checkout     *billing.CheckoutService
	Verifier     *billing.WebhookVerifier
	Processor    *billing.PaymentProcessor
}

func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method Not Allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
	})

	checkoutHandler := NewCheckoutHandler(deps.Checkout, cfg.SiteURL)
	webhookHandler := NewStripeWebhookHandler(deps.Verifier, deps.Processor)
	sessionsHandler := NewSessionsHandler(deps.Sessions, deps.Entitlements, deps.Rasterizer, upload.Limits{
		Bytes:  cfg.MaxUploadBytes,
		Pixels: cfg.MaxUploadPixels,
	})
	entitlementHandler := NewEntitlementHandler(deps.Entitlements)

	// Health check (no auth)
	router.GET("/health", HealthHandler(deps.Sessions))

	// Payment endpoints keep the paths the static frontend already calls
	router.POST("/checkout", middleware.OptionalAuth(cfg), checkoutHandler.Create)
	router.POST("/stripe-webhook", webhookHandler.HandleWebhook)

	api := router.Group("/api/v1")
	api.GET("/presets", PresetsHandler)
	api.GET("/entitlement", middleware.AuthMiddleware(cfg), entitlementHandler.Get)

	sessions := api.Group("/sessions")
	sessions.POST("", middleware.OptionalAuth(cfg), sessionsHandler.Create)
	sessions.GET("/:id", sessionsHandler.Get)
	sessions.DELETE("/:id", sessionsHandler.Delete)
	sessions.PATCH("/:id/style", sessionsHandler.UpdateStyle)
	sessions.POST("/:id/image", sessionsHandler.UploadImage)
	sessions.DELETE("/:id/image", sessionsHandler.DeleteImage)
	sessions.GET("/:id/preview", sessionsHandler.Preview)
	sessions.GET("/:id/preview.png", sessionsHandler.PreviewPNG)
	sessions.POST("/:id/export", sessionsHandler.Export)
	sessions.DELETE("/:id/export", sessionsHandler.CancelExport)
	sessions.GET("/:id/events", sessionsHandler.Events)

	return router
}
