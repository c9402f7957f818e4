package repository

import (
	"context"
	"errors"

	"github.com/vulval/vulval-backend/internal/models"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("not found")

// UserRepository resolves Telegram identities to persisted users.
type UserRepository interface {
	// Upsert creates the user on first sight of a telegram id and keeps
	// the username current on later requests.
	Upsert(ctx context.Context, telegramID int64, username string) (*models.User, error)
}

// ChatRepository defines chat storage operations.
type ChatRepository interface {
	// Create inserts a chat with a fresh collision-checked hex id and its
	// empty context row in one transaction.
	Create(ctx context.Context, userID int64, title string) (*models.Chat, error)
	GetByID(ctx context.Context, id int64) (*models.Chat, error)
	GetByHexID(ctx context.Context, hexID string) (*models.Chat, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Chat, error)
	Delete(ctx context.Context, id int64) error
}

// MessageRepository defines message storage operations.
type MessageRepository interface {
	// ListByChat returns all messages of a chat, oldest first.
	ListByChat(ctx context.Context, chatID int64) ([]models.Message, error)
}

// ContextRepository reads the rolling summary of a chat.
type ContextRepository interface {
	Get(ctx context.Context, chatID int64) (*models.ChatContext, error)
}

// ExchangeWrite is everything one completed exchange persists.
type ExchangeWrite struct {
	ChatID       int64
	UserContent  string
	ModelContent string
	ContextData  string
	// NewTitle is set only on the chat's first exchange.
	NewTitle *string
}

// ExchangeRepository commits a full exchange. Both messages, the rotated
// context and an optional new title land in a single transaction; a failure
// anywhere rolls everything back.
type ExchangeRepository interface {
	CommitExchange(ctx context.Context, w ExchangeWrite) (userMsg, modelMsg *models.Message, err error)
}
