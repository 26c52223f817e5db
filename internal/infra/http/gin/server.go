package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentora/internal/infra/config"
	"rentora/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Property       PropertyHTTP
	Availability   AvailabilityHTTP
	Booking        BookingHTTP
	Owner          OwnerHTTP
	Admin          AdminHTTP
	Notifications  NotificationHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Property != nil {
		api.GET("/properties", h.Property.Search)
		api.POST("/properties", h.Property.Create)
		api.GET("/properties/:id", h.Property.Get)
		api.PUT("/properties/:id", h.Property.Update)
		api.DELETE("/properties/:id", h.Property.Delete)
		api.PATCH("/properties/:id/availability", h.Property.SetAvailability)
		api.POST("/properties/:id/photos", h.Property.UploadPhoto)
		api.GET("/properties/:id/stats", h.Property.Stats)
	}
	if h.Availability != nil {
		api.GET("/properties/:id/calendar", h.Availability.Calendar)
		api.GET("/properties/:id/booking-check", h.Availability.Check)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings", h.Booking.ListMine)
		api.GET("/bookings/:id", h.Booking.Get)
		api.PATCH("/bookings/:id/status", h.Booking.Transition)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Owner != nil {
		ownerGroup := api.Group("/owner")
		ownerGroup.GET("/properties", h.Owner.Properties)
		ownerGroup.GET("/bookings", h.Owner.Bookings)
		ownerGroup.GET("/dashboard", h.Owner.Dashboard)
	}
	if h.Notifications != nil {
		api.GET("/notifications", h.Notifications.List)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.GET("/users", h.Admin.ListUsers)
		adminGroup.DELETE("/users/:id", h.Admin.DeleteUser)
		adminGroup.GET("/properties", h.Admin.ListProperties)
		adminGroup.GET("/bookings", h.Admin.ListBookings)
		adminGroup.GET("/stats", h.Admin.Stats)
		if h.Property != nil {
			adminGroup.DELETE("/properties/:id", h.Property.Delete)
		}
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader, obs.RequestIDHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
