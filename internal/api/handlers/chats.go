package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/vulval/vulval-backend/internal/api/middleware"
	"github.com/vulval/vulval-backend/internal/services"
)

// ListChats returns all chats of the current user, most recently updated
// first.
func ListChats(svc *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		if user == nil {
			return unauthenticated(c)
		}

		chats, err := svc.ListChats(c.Context(), user)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{"chat_list": chats})
	}
}

// CreateChat creates a new chat with an optional title.
func CreateChat(svc *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		if user == nil {
			return unauthenticated(c)
		}

		var req struct {
			Title string `json:"title"`
		}
		if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		chat, err := svc.CreateChat(c.Context(), user, req.Title)
		if err != nil {
			return serviceError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"new_chat": chat})
	}
}

// GetChat returns a single chat by public hex id, messages oldest first.
func GetChat(svc *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		if user == nil {
			return unauthenticated(c)
		}

		detail, err := svc.GetChat(c.Context(), user, c.Params("hexID"))
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{"single_chat": detail})
	}
}

// SubmitMessage runs one exchange with the model.
func SubmitMessage(svc *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		if user == nil {
			return unauthenticated(c)
		}

		var req struct {
			ChatID  int64  `json:"chat_id"`
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		result, err := svc.SubmitMessage(c.Context(), user, req.ChatID, req.Content)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(result)
	}
}

// DeleteChat removes a chat by numeric id and returns its former title.
func DeleteChat(svc *services.ChatService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		if user == nil {
			return unauthenticated(c)
		}

		chatID, err := strconv.ParseInt(c.Params("chatID"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid chat id",
			})
		}

		title, err := svc.DeleteChat(c.Context(), user, chatID)
		if err != nil {
			return serviceError(c, err)
		}

		return c.JSON(fiber.Map{"title": title})
	}
}

// Me returns the authenticated user. The Mini-App calls this once at
// startup as an auth probe.
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		if user == nil {
			return unauthenticated(c)
		}
		return c.JSON(user)
	}
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Not authenticated",
	})
}

// serviceError maps the service failure taxonomy onto HTTP statuses.
// Upstream and parse failures share a deliberately generic body so provider
// errors never leak to the client.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found."})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Requested chat does not belong to current user"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong!"})
	}
}
