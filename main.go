package main

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/krolow/brasileirao-backend/config"
	"github.com/krolow/brasileirao-backend/handlers"
	"github.com/krolow/brasileirao-backend/services"
	"github.com/krolow/brasileirao-backend/shared"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	logrus.SetLevel(cfg.GetLogLevel())

	// Scraper configuration, with env template overrides for the source site
	scraperConfig := services.NewDefaultScraperConfiguration()
	if cfg.ChampionshipURL != "" {
		scraperConfig.LandingURLTemplate = cfg.ChampionshipURL
	}
	if cfg.RoundURL != "" {
		scraperConfig.RoundURLTemplate = cfg.RoundURL
	}

	calendarConfig := services.NewDefaultCalendarConfiguration()
	if cfg.ScoreboardAPIURL != "" {
		calendarConfig.APIURLTemplate = cfg.ScoreboardAPIURL
	}

	// Initialize services. The championship cache lives for the process
	// lifetime and is handed to the cached service explicitly.
	clients := shared.NewHTTPClientFactory(30 * time.Second)
	defer clients.CleanupAllClients()
	scrapingService := services.NewChampionshipScrapingService(scraperConfig)
	championshipCache := services.NewChampionshipCache(cfg.GetCacheTTL())
	championshipService := services.NewCachedChampionshipService(scrapingService, championshipCache)
	calendarService := services.NewCalendarService(calendarConfig, clients)

	logrus.WithFields(logrus.Fields{
		"cache_ttl":   cfg.GetCacheTTL(),
		"parallelism": scraperConfig.Parallelism,
	}).Info("Brasileirão backend services initialized")

	// Initialize handlers
	championshipHandler := handlers.NewChampionshipHandler(championshipService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api/v1")
	api.Get("/championship", championshipHandler.GetChampionship)
	api.Get("/calendar", calendarHandler.GetCalendar)

	// Start server
	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}
