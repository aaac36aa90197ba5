package main

import (
	"fmt"
	"log"
	"time"

	"github.com/Abhisg5/trafficDetector/config"
	"github.com/Abhisg5/trafficDetector/handlers"
	"github.com/Abhisg5/trafficDetector/middleware"
	"github.com/Abhisg5/trafficDetector/models"
	"github.com/Abhisg5/trafficDetector/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	if err := db.AutoMigrate(&models.TrafficSample{}, &models.InvestmentOpportunity{}); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	// Cache is optional: the API degrades to uncached responses without it.
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, running without cache: %v", err)
	}

	sampleStore := services.NewGormSampleStore(db)
	opportunityStore := services.NewGormOpportunityStore(db)

	providers := buildProviders(cfg.Providers)
	collector := services.NewTrafficCollector(providers...)

	scores := services.NewScoreEngine(sampleStore, services.DefaultScoreTables())
	finder := services.NewOpportunityFinder(scores, opportunityStore)
	hotspots := services.NewHotspotDetector(sampleStore)
	analytics := services.NewAnalyticsEngine(finder, sampleStore, opportunityStore)

	trafficHandler := handlers.NewTrafficHandler(collector, sampleStore, hotspots, cache)
	investmentHandler := handlers.NewInvestmentHandler(finder, opportunityStore, cache)
	analysisHandler := handlers.NewAnalysisHandler(analytics, finder, opportunityStore)
	dashboardHandler := handlers.NewDashboardHandler(analytics)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "Traffic Detector API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		traffic := v1.Group("/traffic")
		{
			traffic.POST("/collect/:location", trafficHandler.Collect)
			traffic.GET("/current/:location", trafficHandler.Current)
			traffic.GET("/historical/:location", trafficHandler.Historical)
			traffic.GET("/hotspots", trafficHandler.Hotspots)
			traffic.GET("/hotspots/90days", trafficHandler.HotspotsLongTerm)
			traffic.GET("/patterns/:location", trafficHandler.Patterns)
		}

		investment := v1.Group("/investment")
		{
			investment.GET("/opportunities", investmentHandler.Opportunities)
			investment.GET("/analysis/:location", investmentHandler.Analysis)
			investment.POST("/opportunities", investmentHandler.Save)
			investment.GET("/opportunities/saved", investmentHandler.Saved)
			investment.PATCH("/opportunities/:id", investmentHandler.Update)
			investment.GET("/market-analysis", investmentHandler.MarketAnalysis)
			investment.GET("/recommendations", investmentHandler.Recommendations)
		}

		analysis := v1.Group("/analysis")
		{
			analysis.GET("/correlation", analysisHandler.Correlation)
			analysis.GET("/segmentation", analysisHandler.Segmentation)
			analysis.POST("/compare", analysisHandler.Compare)
		}

		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/traffic-trend", dashboardHandler.TrafficTrend)
			dashboard.GET("/opportunity-trend", dashboardHandler.OpportunityTrend)
		}
	}

	router.GET("/ws/live", handlers.LiveWebSocket(cache))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildProviders returns the configured real providers, falling back to the
// simulated provider when no API keys are set.
func buildProviders(cfg config.ProviderConfig) []services.Provider {
	var providers []services.Provider
	if cfg.TomTomAPIKey != "" {
		providers = append(providers, services.NewTomTomProvider(cfg.TomTomAPIKey, cfg.TomTomBaseURL))
	}
	if cfg.HereAPIKey != "" {
		providers = append(providers, services.NewHereProvider(cfg.HereAPIKey, cfg.HereBaseURL))
	}
	if len(providers) == 0 {
		log.Printf("No provider API keys configured, using simulated data")
		providers = append(providers, services.NewSimulatedProvider(time.Now().UnixNano()))
	}
	return providers
}
