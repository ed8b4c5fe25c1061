package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/video-management-service/internal/handler"
	"github.com/psds-microservice/video-management-service/internal/metrics"
	"github.com/psds-microservice/video-management-service/pkg/constants"
)

// New builds the HTTP router.
func New(
	videoWS *handler.VideoWSHandler,
	health *handler.HealthHandler,
	m *metrics.Metrics,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)
	r.GET(constants.PathMetrics, gin.WrapH(m.Handler()))

	// WebSocket: /ws/video (identity attached by the edge gateway)
	r.GET(constants.PathVideoWS, videoWS.ServeWS)

	return r
}
