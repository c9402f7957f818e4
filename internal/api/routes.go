package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/vulval/vulval-backend/internal/api/handlers"
	"github.com/vulval/vulval-backend/internal/api/middleware"
	"github.com/vulval/vulval-backend/internal/metrics"
	"github.com/vulval/vulval-backend/internal/repository"
	"github.com/vulval/vulval-backend/internal/services"
	"github.com/vulval/vulval-backend/internal/telegram"
)

// SetupRoutes registers all endpoints. Everything under /api/v2 runs behind
// the Telegram init-data middleware; /metrics and the health probe are
// unauthenticated.
func SetupRoutes(
	app *fiber.App,
	chatService *services.ChatService,
	validator *telegram.Validator,
	users repository.UserRepository,
	collector *metrics.Collector,
	registry *prometheus.Registry,
	log *logrus.Logger,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := app.Group("/api/v2")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "vulval-backend",
		})
	})

	authed := api.Group("",
		rateLimit(),
		middleware.TelegramAuth(validator, users, collector, log),
	)

	authed.Get("/users/me", handlers.Me())

	chat := authed.Group("/chat")
	chat.Get("/chat-list", handlers.ListChats(chatService))
	chat.Post("/new-chat", handlers.CreateChat(chatService))
	chat.Get("/single-chat/:hexID", handlers.GetChat(chatService))
	chat.Post("/chatting", handlers.SubmitMessage(chatService))
	chat.Delete("/delete-chat/:chatID", handlers.DeleteChat(chatService))
}

// rateLimit keys on the init-data header when present so one user cannot
// starve the rest from behind a shared NAT, and falls back to the client IP.
func rateLimit() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if initData := c.Get(middleware.InitDataHeader); initData != "" {
				return fmt.Sprintf("init:%s", initData)
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	})
}
