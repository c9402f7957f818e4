package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vulval/vulval-backend/internal/api"
	"github.com/vulval/vulval-backend/internal/api/middleware"
	"github.com/vulval/vulval-backend/internal/config"
	"github.com/vulval/vulval-backend/internal/database"
	"github.com/vulval/vulval-backend/internal/llm"
	"github.com/vulval/vulval-backend/internal/logger"
	"github.com/vulval/vulval-backend/internal/metrics"
	"github.com/vulval/vulval-backend/internal/repository/postgres"
	"github.com/vulval/vulval-backend/internal/services"
	"github.com/vulval/vulval-backend/internal/telegram"
	"github.com/vulval/vulval-backend/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logg := logger.New(cfg.LogLevel)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.Migrate(cfg.Database); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	userRepo := postgres.NewUserRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	contextRepo := postgres.NewContextRepository(db)
	exchangeRepo := postgres.NewExchangeRepository(db)

	validator := telegram.NewValidator(cfg.Telegram.BotToken, cfg.Telegram.AuthWindow())

	var provider llm.Provider
	if cfg.LLM.WeatherTool {
		weatherClient := weather.NewClient(cfg.Weather, logg)
		provider, err = llm.NewToolPipeline(cfg.LLM, weatherClient, collector, logg)
	} else {
		provider, err = llm.NewOpenRouterProvider(cfg.LLM, collector)
	}
	if err != nil {
		log.Fatal("Failed to initialize LLM provider:", err)
	}

	chatService := services.NewChatService(
		chatRepo,
		messageRepo,
		contextRepo,
		exchangeRepo,
		provider,
		cfg.LLM,
		collector,
		logg,
	)

	app := fiber.New(fiber.Config{
		AppName:      "Vulval Backend",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logg))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Telegram-Init-Data",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))

	api.SetupRoutes(app, chatService, validator, userRepo, collector, registry, logg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logg.WithField("addr", addr).Info("vulval backend starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
