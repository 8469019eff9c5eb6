package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/habitflow/backend/config"
	"github.com/habitflow/backend/controllers"
	"github.com/habitflow/backend/middleware"
	"github.com/habitflow/backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	habitController := controllers.NewHabitController(db)
	journalController := controllers.NewJournalController(db)
	stateController := controllers.NewStateController(db)
	onboardingController := controllers.NewOnboardingController(db)
	adminController := controllers.NewAdminController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/anonymous", authController.Anonymous)
	authGroup.GET("/google/login", authController.OAuthRedirect)
	authGroup.GET("/google/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)
	authGroup.POST("/change-password", middleware.AuthRequired(), authController.ChangePassword)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	habits := protected.Group("/habits")
	habits.GET("", habitController.List)
	habits.POST("", habitController.Add)
	// Registered before /:id so "reorder" is not taken for a habit id.
	habits.PUT("/reorder", habitController.Reorder)
	habits.PATCH("/:id", habitController.Update)
	habits.DELETE("/:id", habitController.Delete)
	habits.POST("/:id/complete", habitController.Complete)
	habits.POST("/:id/logs", habitController.AddLog)
	habits.POST("/:id/time", habitController.AddTime)
	habits.PUT("/:id/checklist", habitController.UpdateChecklist)

	journals := protected.Group("/journals")
	journals.GET("/:type", journalController.List)
	journals.POST("/:type", journalController.Create)

	state := protected.Group("/state")
	state.GET("", stateController.GetState)
	state.POST("/day-reset", stateController.DayReset)
	state.POST("/import", stateController.ImportState)

	onboarding := protected.Group("/onboarding")
	onboarding.GET("", onboardingController.Get)
	onboarding.PUT("", onboardingController.Save)
	onboarding.POST("/complete", onboardingController.Complete)

	admin := api.Group("/admin")
	admin.POST("/login", middleware.RateLimitMiddleware(), adminController.Login)
	adminProtected := admin.Group("")
	adminProtected.Use(middleware.AdminRequired())
	adminProtected.GET("/dashboard", adminController.Dashboard)
	adminProtected.GET("/users", adminController.Users)
	adminProtected.GET("/users/:id", adminController.UserDetail)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r
}
