package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/vulval/vulval-backend/internal/metrics"
	"github.com/vulval/vulval-backend/internal/models"
	"github.com/vulval/vulval-backend/internal/repository"
	"github.com/vulval/vulval-backend/internal/telegram"
)

// InitDataHeader is the fixed header the Mini-App client sends the signed
// credential string in.
const InitDataHeader = "X-Telegram-Init-Data"

const userContextKey = "current_user"

// TelegramAuth validates the init-data string on every request and injects
// the resolved user into the request context. There are no sessions; a
// request without a fresh, correctly signed credential never reaches a
// handler.
func TelegramAuth(validator *telegram.Validator, users repository.UserRepository, collector *metrics.Collector, log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(InitDataHeader)
		if raw == "" {
			collector.RecordAuthFailure("missing_header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Data string missing!",
			})
		}

		initData, err := validator.Validate(raw, time.Now())
		if err != nil {
			collector.RecordAuthFailure(authFailureKind(err))
			// The raw credential is deliberately not logged.
			log.WithError(err).WithField("ip", c.IP()).Warn("init data validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid data string!",
			})
		}

		user, err := users.Upsert(c.Context(), initData.TelegramID, initData.Username)
		if err != nil {
			collector.RecordAuthFailure("store_failure")
			log.WithError(err).WithField("telegram_id", initData.TelegramID).Error("user upsert failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Something went wrong!",
			})
		}

		SetCurrentUser(c, user)
		return c.Next()
	}
}

// SetCurrentUser stores the resolved user on the request context.
func SetCurrentUser(c *fiber.Ctx, user *models.User) {
	c.Locals(userContextKey, user)
}

// CurrentUser returns the user resolved by TelegramAuth, or nil when the
// middleware did not run.
func CurrentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}

func authFailureKind(err error) string {
	switch err {
	case telegram.ErrMalformedInput:
		return "malformed_input"
	case telegram.ErrMissingHash:
		return "missing_hash"
	case telegram.ErrInvalidAuthDate:
		return "invalid_auth_date"
	case telegram.ErrExpired:
		return "expired"
	case telegram.ErrSignatureMismatch:
		return "signature_mismatch"
	case telegram.ErrMalformedUser:
		return "malformed_user"
	default:
		return "unknown"
	}
}
