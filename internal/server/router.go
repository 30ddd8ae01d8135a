// Package server assembles the HTTP router from services and middleware.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"presusimple/internal/config"
	"presusimple/internal/handlers"
	"presusimple/internal/middleware"
	"presusimple/internal/services"
)

const (
	loginAttemptsPerWindow    = 10
	exchangeAttemptsPerWindow = 10
	rateLimitWindow           = time.Minute
)

// Deps are the collaborators the router needs beyond the database.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	UserLookup  services.UserDirectory
	Notifier    services.ResetNotifier
	MobileCodes services.MobileAuthServicer
}

// Server is the assembled router plus the background workers it owns.
type Server struct {
	Router       *gin.Engine
	LoginLimiter *middleware.RateLimiter
	CodeLimiter  *middleware.RateLimiter
}

// New builds the router.
func New(deps Deps) *Server {
	cfg := deps.Config
	db := deps.DB

	// Services
	userService := services.NewUserService(db, services.WithLockout(cfg.MaxLoginAttempts, cfg.LockoutDuration))
	budgetService := services.NewBudgetService(db)
	categoryService := services.NewCategoryService(db)
	expenseService := services.NewExpenseService(db)
	resetService := services.NewResetService(db, deps.UserLookup, deps.Notifier)
	featureService := services.NewFeatureFlagService(db)
	auditService := services.NewAuditService(db)

	mobileCodes := deps.MobileCodes
	if mobileCodes == nil {
		mobileCodes = services.NewMobileAuthService(cfg.MobileCodeTTL)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	mobileHandler := handlers.NewMobileAuthHandler(mobileCodes, userService)
	lookupHandler := handlers.NewUserLookupHandler(userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	resetHandler := handlers.NewResetHandler(resetService, auditService)
	featureHandler := handlers.NewFeatureHandler(featureService)

	loginLimiter := middleware.NewRateLimiter(loginAttemptsPerWindow, rateLimitWindow)
	codeLimiter := middleware.NewRateLimiter(exchangeAttemptsPerWindow, rateLimitWindow)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.Config{
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Content-Disposition", "X-Request-ID"},
			MaxAge:        12 * time.Hour,
		}
		if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = cfg.CORSOrigins
			corsConfig.AllowCredentials = true
		}
		router.Use(cors.New(corsConfig))
	}

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.EnablePprof {
		pprof.Register(router, "debug/pprof")
	}

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", loginLimiter.Middleware(), authHandler.Login)
	auth.POST("/refresh", loginLimiter.Middleware(), authHandler.Refresh)
	auth.POST("/mobile/exchange", codeLimiter.Middleware(), mobileHandler.ExchangeCode)

	// Service-to-service routes
	internal := v1.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.InternalAPIKey))
	internal.GET("/users/lookup", lookupHandler.Lookup)
	internal.PUT("/features/:key", featureHandler.UpsertFlag)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/auth/mobile/code", mobileHandler.IssueCode)
	protected.GET("/features", featureHandler.GetFeatures)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/current", budgetHandler.GetCurrentBudget)
	budgets.POST("/reset", resetHandler.ResetBudget)
	budgets.GET("/snapshots", resetHandler.ListSnapshots)
	budgets.GET("/snapshots/:id/export",
		middleware.RequireFeature(featureService, services.FeatureSnapshotExport),
		resetHandler.ExportSnapshot)
	budgets.GET("/:id", budgetHandler.GetBudgetByID)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.PUT("/:id/envelope", budgetHandler.UpdateEnvelope)
	budgets.PUT("/:id/update-section", budgetHandler.RenameSection)
	budgets.POST("/:id/sections", budgetHandler.AddSection)
	budgets.DELETE("/:id/sections/:sectionId", budgetHandler.DeleteSection)
	budgets.GET("/:id/summary", budgetHandler.GetBudgetSummary)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/:id", expenseHandler.GetExpenseByID)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	return &Server{Router: router, LoginLimiter: loginLimiter, CodeLimiter: codeLimiter}
}
