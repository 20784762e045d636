package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jeffleon2/draftea-checkout-service/internal/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (a *App) RegisterRoutes(checkout *handlers.CheckoutHandler, webhooks *handlers.WebhookHandler, admin *handlers.AdminHandler) {
	a.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if a.config.APP.MetricsOn {
		a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := a.Router.Group("/api")
	api.POST("/checkout", checkout.CreateCheckout)
	api.GET("/security/session", checkout.IssueSession)
	api.POST("/security/csrf", checkout.IssueCSRF)
	api.POST("/webhooks/lemonsqueezy", webhooks.Receive)

	adminGroup := api.Group("/admin", handlers.AdminAuth(a.Services.Guard))
	adminGroup.GET("/transactions", admin.ListTransactions)
	adminGroup.GET("/transactions/stats", admin.Stats)
	adminGroup.GET("/transactions/suspicious", admin.Suspicious)
	adminGroup.GET("/transactions/export", admin.Export)
	adminGroup.GET("/transactions/:id", admin.GetTransaction)
	adminGroup.POST("/transactions/:id/override", admin.Override)
	adminGroup.DELETE("/transactions", admin.Clear)
	adminGroup.GET("/errors/stats", admin.ErrorStats)
	adminGroup.GET("/errors/recent", admin.RecentErrors)
	adminGroup.GET("/security/activities", admin.SuspiciousActivities)
}
