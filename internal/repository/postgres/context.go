package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/vulval/vulval-backend/internal/models"
	"github.com/vulval/vulval-backend/internal/repository"
)

// ContextRepository implements repository.ContextRepository using PostgreSQL
type ContextRepository struct {
	db *sqlx.DB
}

// NewContextRepository creates a new PostgreSQL context repository
func NewContextRepository(db *sqlx.DB) repository.ContextRepository {
	return &ContextRepository{db: db}
}

// Get retrieves the rolling summary of a chat. A chat created before its
// first exchange may have an empty summary; a missing row is treated the
// same way so callers never have to care which of the two they hit.
func (r *ContextRepository) Get(ctx context.Context, chatID int64) (*models.ChatContext, error) {
	var chatCtx models.ChatContext
	query := `
		SELECT chat_id, context_data
		FROM chat_contexts
		WHERE chat_id = $1
	`

	err := r.db.GetContext(ctx, &chatCtx, query, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.ChatContext{ChatID: chatID}, nil
	}
	if err != nil {
		return nil, err
	}

	return &chatCtx, nil
}
