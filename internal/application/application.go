package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/psds-microservice/video-management-service/internal/auth"
	"github.com/psds-microservice/video-management-service/internal/config"
	"github.com/psds-microservice/video-management-service/internal/database"
	"github.com/psds-microservice/video-management-service/internal/event"
	"github.com/psds-microservice/video-management-service/internal/handler"
	"github.com/psds-microservice/video-management-service/internal/metrics"
	"github.com/psds-microservice/video-management-service/internal/router"
	"github.com/psds-microservice/video-management-service/internal/service"
	"github.com/psds-microservice/video-management-service/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API is the HTTP + WebSocket API application.
type API struct {
	cfg     *config.Config
	srv     *http.Server
	db      *gorm.DB
	bus     *event.MQTTBus
	emitter *event.Emitter
	videoWS *handler.VideoWSHandler
}

// NewAPI creates the API application: validates config, runs migrations,
// opens DB, connects the event bus, builds the orchestrator and router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	var bus *event.MQTTBus
	bus, err = event.NewMQTTBus(cfg.MQTTBrokerURL, "video-management-service", cfg.MQTTTopic, logger)
	if err != nil {
		log.Printf("warning: mqtt connect failed (analytics events disabled): %v", err)
		bus = nil
	}
	var pub event.BusPublisher
	if bus != nil {
		pub = bus
	}
	emitter := event.NewEmitter(pub, logger)

	m := metrics.New()
	cameraStore := store.NewCameraStore(db, cfg.UploadDir, logger)
	registry := service.NewSessionRegistry()
	rooms := service.NewRoomBroadcaster(logger)
	orch := service.NewOrchestrator(cameraStore, emitter, registry, rooms, cfg, m, logger)

	videoWS := handler.NewVideoWSHandler(orch, auth.GatewayResolver{}, cfg, logger)
	health := handler.NewHealthHandler()

	r := router.New(videoWS, health, m)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, db: db, bus: bus, emitter: emitter, videoWS: videoWS}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:        %s/health", base)
	log.Printf("  Ready:         %s/ready", base)
	log.Printf("  Metrics:       %s/metrics", base)
	log.Printf("  WebSocket:     ws://%s:%s/ws/video", host, a.cfg.HTTPPort)

	// App context bounds stream lifetimes (shutdown propagation)
	a.videoWS.SetContext(ctx)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.srv.Shutdown(shutdownCtx)

	a.emitter.Close()
	if a.bus != nil {
		a.bus.Close()
	}
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
