package handlers

import (
	"net/http"

	"github.com/LavaJover/shvark-crm-reconciler/internal/delivery/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(webhooks *WebhookHandler, sync *SyncHandler, ready func() bool, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/webhooks/stripe", webhooks.Stripe)
	r.POST("/sync/:kind/:id", sync.Sync)
	r.GET("/healthz", func(c *gin.Context) {
		if ready != nil && !ready() {
			c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "draining"})
			return
		}
		c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}
