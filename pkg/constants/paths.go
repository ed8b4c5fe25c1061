package constants

// Пути health, ready, metrics и WebSocket endpoint.
const (
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathMetrics = "/metrics"
	PathVideoWS = "/ws/video"
)
