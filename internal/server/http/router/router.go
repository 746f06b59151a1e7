package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/tanmaydk/shopcore/internal/config"
	"github.com/tanmaydk/shopcore/internal/server/http/handlers"
	"github.com/tanmaydk/shopcore/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.CommerceFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	checkoutHandler := handlers.NewCheckoutHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	shipmentHandler := handlers.NewShipmentHandler(facade)
	webhookHandler := handlers.NewWebhookHandler(facade, cfg.WebhookSecret, logger)

	api := engine.Group("/api")
	api.POST("/webhooks/payment", webhookHandler.Receive)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.POST("/checkout", checkoutHandler.Create)
	authed.GET("/checkout/:id", checkoutHandler.Get)
	authed.POST("/checkout/:id/retry-payment", checkoutHandler.RetryPayment)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.POST("/orders/:id/shipments", shipmentHandler.Create)
	authed.GET("/shipments/:id", shipmentHandler.Get)
	authed.PATCH("/shipments/:id/status", shipmentHandler.Transition)

	return engine
}
