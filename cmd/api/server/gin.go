package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	ginhandler "user-management-service/internal/adapter/gin/handler"
	ginrouter "user-management-service/internal/adapter/gin/router"
	"user-management-service/internal/config"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	cfg *config.Config,
	handler *ginhandler.UserHandler,
	registry *prometheus.Registry,
	l *zap.Logger,
) *http.Server {
	gin.SetMode(ginMode(cfg.App.Env))

	// Setup Gin router with all middleware and routes
	router := ginrouter.SetupRouter(handler, registry, cfg.Logger.ServiceName, l)

	addr := ":" + cfg.App.Port
	l.Info("Gin REST API configured", zap.String("address", addr))

	return &http.Server{
		Addr:              addr,
		Handler:           corsHandler(cfg.App.CORSAllowedOrigins)(router),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}

func ginMode(env string) string {
	switch env {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
