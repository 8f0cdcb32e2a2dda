// Package server assembles the HTTP route table.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/JohanDJ0/restapi-gastos/internal/handlers"
	"github.com/JohanDJ0/restapi-gastos/internal/middleware"
	"github.com/JohanDJ0/restapi-gastos/internal/services"
)

// Services are the business services the routes are served by.
type Services struct {
	Users          services.UserServicer
	Budgets        services.BudgetServicer
	Transactions   services.TransactionServicer
	CycleSummaries services.CycleSummaryServicer
	Categories     services.CategoryServicer
	Subscriptions  services.SubscriptionServicer
	Archival       services.ArchivalServicer
	Audit          services.AuditServicer
}

// Options configure the surface around the routes.
type Options struct {
	Verifier    *middleware.TokenVerifier
	CORSOrigins []string
	// AdminAPIKey guards /api/admin. Empty disables those routes.
	AdminAPIKey string
	// Location is the business time zone for zone-less request dates.
	Location *time.Location
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc Services, opts Options) *gin.Engine {
	budgetHandler := handlers.NewBudgetHandler(svc.Budgets, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, opts.Location)
	summaryHandler := handlers.NewCycleSummaryHandler(svc.CycleSummaries, svc.Audit, opts.Location)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	subscriptionHandler := handlers.NewSubscriptionHandler(svc.Subscriptions)
	userHandler := handlers.NewUserHandler(svc.Users)
	adminHandler := handlers.NewAdminHandler(svc.Archival)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(opts.CORSOrigins))
	router.Use(middleware.ErrorHandler())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Billing provider callbacks carry no user token.
	api.POST("/webhook/subscription", subscriptionHandler.Webhook)

	admin := api.Group("/admin", middleware.APIKey(opts.AdminAPIKey))
	admin.GET("/subscription/stats", subscriptionHandler.GetStats)
	admin.POST("/archival/sweep", adminHandler.SweepArchival)

	protected := api.Group("")
	protected.Use(middleware.Auth(opts.Verifier))
	protected.Use(middleware.MapUser(svc.Users))

	protected.GET("/usuarios/me", userHandler.GetMe)

	subscription := protected.Group("/subscription")
	subscription.GET("/info", subscriptionHandler.GetInfo)
	subscription.GET("/check", subscriptionHandler.Check)

	budgets := protected.Group("/presupuestos")
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/predeterminado", budgetHandler.GetDefaultBudget)
	budgets.GET("/proximos-expirar", budgetHandler.GetUpcomingExpirations)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.POST("", middleware.FreeLimit(svc.Subscriptions, services.FeatureBudgets), budgetHandler.CreateBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.POST("/:id/renovar", budgetHandler.RenewBudget)

	transactions := protected.Group("/transacciones")
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/resumen", transactionHandler.GetSummary)
	transactions.GET("/presupuesto/:presupuesto_id", transactionHandler.GetBudgetTransactions)
	transactions.GET("/categoria/:categoria_id", transactionHandler.GetCategoryTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	summaries := protected.Group("/resumen-ciclo")
	summaries.GET("", summaryHandler.GetSummaries)
	summaries.GET("/estadisticas", summaryHandler.GetStatistics)
	summaries.GET("/presupuesto/:presupuesto_id", summaryHandler.GetBudgetSummaries)
	summaries.GET("/:id", summaryHandler.GetSummary)
	summaries.POST("", summaryHandler.CloseCycle)
	summaries.POST("/automatico", summaryHandler.CloseCycleAutomatic)
	summaries.PUT("/:id", summaryHandler.UpdateSummary)
	summaries.DELETE("/:id", summaryHandler.DeleteSummary)

	categories := protected.Group("/categorias")
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/tipo/:tipo", categoryHandler.GetCategoriesByType)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.POST("", middleware.FreeLimit(svc.Subscriptions, services.FeatureCategories), categoryHandler.CreateCategory)
	categories.POST("/crear-defecto", middleware.FreeLimit(svc.Subscriptions, services.FeatureCategories), categoryHandler.CreateDefaultCategories)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	return router
}
