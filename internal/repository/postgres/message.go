package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vulval/vulval-backend/internal/models"
	"github.com/vulval/vulval-backend/internal/repository"
)

// MessageRepository implements repository.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

// ListByChat retrieves messages for a chat, oldest first
func (r *MessageRepository) ListByChat(ctx context.Context, chatID int64) ([]models.Message, error) {
	messages := []models.Message{}
	query := `
		SELECT id, chat_id, sender, content, timestamp
		FROM messages
		WHERE chat_id = $1
		ORDER BY timestamp ASC, id ASC
	`

	err := r.db.SelectContext(ctx, &messages, query, chatID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
