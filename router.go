package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/controllers"
	"github.com/gbd-solar/solartech-api/middleware"
	"github.com/gbd-solar/solartech-api/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// setupRouter builds the engine with every route of the API.
func setupRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	metrics := middleware.NewMetrics()
	router.Use(metrics.Middleware())

	router.Use(cors.New(corsConfig(cfg)))

	router.GET("/metrics", metrics.Handler())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		v1.POST("/auth/login", controllers.Login)

		protected := v1.Group("")
		protected.Use(middleware.EnsureValidToken(cfg))
		{
			protected.GET("/auth/me", controllers.Me)

			interventions := protected.Group("/interventions")
			interventions.POST("", controllers.CreateIntervention)
			interventions.GET("", controllers.ListInterventions)
			interventions.GET("/:id", controllers.GetIntervention)
			interventions.PUT("/:id", controllers.UpdateIntervention)
			interventions.PUT("/:id/status", controllers.UpdateInterventionStatus)
			interventions.PUT("/:id/gps", controllers.SetInterventionGPS)
			interventions.POST("/:id/appointment", controllers.SetInterventionAppointment)
			interventions.DELETE("/:id", controllers.DeleteIntervention)

			users := protected.Group("/users")
			users.GET("", controllers.ListUsers)
			users.GET("/technicians", controllers.ListTechnicians)
			users.GET("/technicians/locations", middleware.RequireRole(models.RoleMaster, models.RoleDitta), controllers.ListTechnicianLocations)
			users.GET("/:id", controllers.GetUser)
			users.POST("", middleware.RequireRole(models.RoleMaster, models.RoleDitta), controllers.CreateUser)
			users.PUT("/:id", controllers.UpdateUser)
			users.DELETE("/:id", middleware.RequireRole(models.RoleMaster), controllers.DeleteUser)
			users.POST("/:id/reset-password", middleware.RequireRole(models.RoleMaster, models.RoleDitta), controllers.ResetPassword)

			companies := protected.Group("/companies")
			companies.GET("", controllers.ListCompanies)
			companies.GET("/:id", controllers.GetCompany)
			companies.POST("", middleware.RequireRole(models.RoleMaster), controllers.CreateCompany)
			companies.PUT("/:id", middleware.RequireRole(models.RoleMaster, models.RoleDitta), controllers.UpdateCompany)
			companies.DELETE("/:id", middleware.RequireRole(models.RoleMaster), controllers.DeleteCompany)

			photos := protected.Group("/photos")
			photos.GET("/intervention/:interventionId", controllers.ListInterventionPhotos)
			photos.GET("/:id", controllers.GetPhoto)
			photos.GET("/:id/content", controllers.GetPhotoContent)
			photos.POST("", controllers.CreatePhoto)
			photos.POST("/upload", controllers.UploadPhoto)
			photos.DELETE("/:id", controllers.DeletePhoto)

			locations := protected.Group("/locations")
			locations.POST("/update", middleware.RequireRole(models.RoleTecnico), controllers.ReportLocation)
			locations.GET("/technicians", middleware.RequireRole(models.RoleMaster, models.RoleDitta), controllers.ListTechnicianLocations)
			locations.DELETE("/stale", middleware.RequireRole(models.RoleMaster), controllers.PruneStaleLocations(cfg.LocationRetention))

			pushTokens := protected.Group("/push-tokens")
			pushTokens.GET("", controllers.ListPushTokens)
			pushTokens.POST("/register", controllers.RegisterPushToken)
			pushTokens.POST("/unregister", controllers.UnregisterPushToken)
		}
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return corsCfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "SolarTech API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	if err := config.Ping(db); err != nil {
		slog.ErrorContext(c.Request.Context(), "database ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
