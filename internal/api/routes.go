package api

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/colletr/colletr/backend/internal/api/handlers"
	"github.com/colletr/colletr/backend/internal/catalog"
	"github.com/colletr/colletr/backend/internal/config"
	"github.com/colletr/colletr/backend/internal/metrics"
	"github.com/colletr/colletr/backend/internal/services"
	"github.com/colletr/colletr/backend/internal/valuation"
)

func SetupRouter(cfg *config.Config, store *catalog.Store, gateway valuation.Gateway, worker *services.AlertWorker) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metricsMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	collectionHandler := handlers.NewCollectionHandler(store)
	itemHandler := handlers.NewItemHandler(store, gateway, worker)
	categoryHandler := handlers.NewCategoryHandler(store)
	oracleHandler := handlers.NewOracleHandler(gateway)
	alertHandler := handlers.NewAlertHandler(worker)

	api := router.Group("/api")
	{
		collections := api.Group("/collections")
		{
			collections.GET("", collectionHandler.ListCollections)
			collections.POST("", collectionHandler.CreateCollection)
			collections.PUT("/:id", collectionHandler.UpdateCollection)
			collections.DELETE("/:id", collectionHandler.DeleteCollection)
			collections.GET("/:id/stats", collectionHandler.GetStats)
			collections.GET("/:id/level", collectionHandler.GetLevel)
			collections.GET("/:id/achievements", collectionHandler.GetAchievements)

			collections.GET("/:id/items", itemHandler.ListItems)
			collections.POST("/:id/items", itemHandler.AddItem)
			collections.PUT("/:id/items/:itemId", itemHandler.UpdateItem)
			collections.DELETE("/:id/items/:itemId", itemHandler.DeleteItem)
			collections.POST("/:id/items/:itemId/valuation/refresh", itemHandler.RefreshValuation)
			collections.PUT("/:id/items/:itemId/alert", itemHandler.SetPriceAlert)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", categoryHandler.ListCategories)
			categories.POST("", categoryHandler.AddCategory)
			categories.PUT("/:id", categoryHandler.RenameCategory)
			categories.DELETE("/:id", categoryHandler.DeleteCategory)
		}

		api.POST("/identify", oracleHandler.Identify)
		api.POST("/valuate", oracleHandler.Valuate)
		api.GET("/alerts/status", alertHandler.GetAlertStatus)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// metricsMiddleware records request counts and latency per route. The
// template path keeps cardinality bounded; ids never become label values.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
