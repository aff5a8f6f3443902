package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/controllers"
	"github.com/tavrezsi/tavrezsi-api/middleware"
	"github.com/tavrezsi/tavrezsi-api/models"
	"golang.org/x/time/rate"
)

// Setup wires every route of the API
func Setup(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", controllers.HealthCheck)
	api.GET("/database/status", controllers.DatabaseStatus)

	// Unauthenticated credential endpoints share a per-client budget
	credentialLimiter := middleware.NewRateLimiterStore(rate.Limit(cfg.ResetRateLimit), cfg.ResetRateBurst)
	public := api.Group("", middleware.RateLimit(credentialLimiter))
	{
		public.POST("/login", controllers.Login)
		public.POST("/request-password-reset", controllers.RequestPasswordReset)
		public.GET("/reset-password/:token", controllers.ValidateResetToken)
		public.POST("/reset-password", controllers.ResetPassword)
	}

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	managers := middleware.RequireRole(models.RoleAdmin, models.RoleOwner)

	protected := api.Group("", middleware.EnsureValidToken(cfg))
	{
		protected.GET("/user", controllers.GetCurrentUser)
		protected.PUT("/user", controllers.UpdateCurrentUser)
		protected.GET("/users", adminOnly, controllers.GetUsers)
		protected.POST("/users", adminOnly, controllers.CreateUser)

		protected.GET("/properties", controllers.GetProperties)
		protected.POST("/properties", adminOnly, controllers.CreateProperty)
		protected.GET("/properties/:id", controllers.GetProperty)
		protected.DELETE("/properties/:id", adminOnly, controllers.DeleteProperty)

		protected.GET("/meters", controllers.GetMeters)
		protected.POST("/meters", adminOnly, controllers.CreateMeter)
		protected.GET("/meters/:id", controllers.GetMeter)
		protected.GET("/meters/:id/latest-reading", controllers.GetLatestReading)
		protected.DELETE("/meters/:id", adminOnly, controllers.DeleteMeter)

		protected.GET("/readings", controllers.GetReadings)
		protected.POST("/readings", controllers.CreateReading)
		protected.POST("/readings/device", adminOnly, controllers.CreateDeviceReading)

		protected.GET("/correction-requests", controllers.GetCorrectionRequests)
		protected.POST("/correction-requests", controllers.CreateCorrection)
		protected.GET("/correction-requests/:id", controllers.GetCorrectionRequest)
		protected.PATCH("/correction-requests/:id", adminOnly, controllers.ResolveCorrection)

		protected.GET("/property-tenants", managers, controllers.GetPropertyTenants)
		protected.POST("/property-tenants", managers, controllers.AssignTenant)
		protected.POST("/property-tenants/invite", managers, controllers.InviteTenant)
		protected.PATCH("/property-tenants/:id", managers, controllers.UpdateTenancy)
		protected.DELETE("/property-tenants/:id", managers, controllers.DeleteTenancy)

		protected.GET("/reports/consumption", controllers.GetConsumptionReport)
		protected.POST("/reports/consumption/export", controllers.ExportConsumptionReport)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}

	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
