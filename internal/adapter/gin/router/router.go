package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"user-management-service/internal/adapter/gin/handler"
	"user-management-service/internal/adapter/gin/middleware"
	"user-management-service/pkg/validation"
)

// UserBasePath is the prefix of every user route.
const UserBasePath = "/api/v1/user"

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func userRoutes(h *handler.UserHandler) []route {
	v := validation.New()
	list := []gin.HandlerFunc{middleware.Validate[handler.ListUsersQuery](v), h.ListUsers}
	create := []gin.HandlerFunc{middleware.Validate[handler.CreateUserRequest](v), h.CreateUser}

	// list and create answer with and without the trailing slash, no redirect
	return []route{
		{http.MethodGet, "", list},
		{http.MethodGet, "/", list},
		{http.MethodGet, "/:id", []gin.HandlerFunc{middleware.Validate[handler.UserIDParams](v), h.GetUser}},
		{http.MethodPost, "", create},
		{http.MethodPost, "/", create},
		{http.MethodPatch, "/:id", []gin.HandlerFunc{middleware.Validate[handler.UpdateUserRequest](v), h.UpdateUser}},
		{http.MethodDelete, "/:id", []gin.HandlerFunc{middleware.Validate[handler.UserIDParams](v), h.DeleteUser}},
		{http.MethodPost, "/change-password/:id", []gin.HandlerFunc{middleware.Validate[handler.ChangePasswordRequest](v), h.ChangePassword}},
		{http.MethodPost, "/state/:id", []gin.HandlerFunc{middleware.Validate[handler.UserIDParams](v), h.ToggleStatus}},
	}
}

// SetupRouter configures and returns a Gin router with all routes and middleware.
// HTTP metrics are registered on reg and served from /metrics.
func SetupRouter(
	userHandler *handler.UserHandler,
	reg *prometheus.Registry,
	serviceName string,
	log *zap.Logger,
) *gin.Engine {
	router := gin.New()

	metrics := middleware.NewMetrics(reg)

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(metrics.Handler())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome"})
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	users := router.Group(UserBasePath)
	for _, r := range userRoutes(userHandler) {
		users.Handle(r.method, r.path, r.handlers...)
	}

	return router
}
