package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/julianjca/op-portfolio-tracker/internal/api/handlers"
	"github.com/julianjca/op-portfolio-tracker/internal/services"
)

// corsAllowHeaders are the headers browser clients of the job endpoints send
var corsAllowHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

func SetupRouter(allowedOrigins []string, db *gorm.DB, syncService *services.SyncService) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), requestMetrics())

	// CORS: any origin unless a list is configured; preflight answers a bare 200
	config := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		config.AllowOrigins = allowedOrigins
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = corsAllowHeaders
	config.AllowCredentials = false
	config.OptionsResponseStatusCode = http.StatusOK
	router.Use(cors.New(config))

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(syncService)
	setHandler := handlers.NewSetHandler(db)
	cardHandler := handlers.NewCardHandler(db, syncService.Prices())

	api := router.Group("/api")
	{
		// Job triggers
		sync := api.Group("/sync")
		{
			sync.POST("/sets", syncHandler.SyncSets)
			sync.POST("/cards", syncHandler.SyncCards)
			sync.POST("/population", syncHandler.SyncPopulation)
			sync.POST("/slab-prices", syncHandler.SyncSlabPrices)
			sync.POST("/set-values", syncHandler.CalculateSetValues)
			sync.GET("/logs", syncHandler.GetSyncLogs)
		}

		sets := api.Group("/sets")
		{
			sets.GET("", setHandler.GetSets)
			sets.GET("/:code", setHandler.GetSet)
		}

		cards := api.Group("/cards")
		{
			cards.GET("/:id/prices", cardHandler.GetCardPrices)
			cards.GET("/:id/population", cardHandler.GetCardPopulation)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
