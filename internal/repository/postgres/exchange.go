package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vulval/vulval-backend/internal/models"
	"github.com/vulval/vulval-backend/internal/repository"
)

// ExchangeRepository implements repository.ExchangeRepository using PostgreSQL
type ExchangeRepository struct {
	db *sqlx.DB
}

// NewExchangeRepository creates a new PostgreSQL exchange repository
func NewExchangeRepository(db *sqlx.DB) repository.ExchangeRepository {
	return &ExchangeRepository{db: db}
}

// CommitExchange persists one user/model message pair, replaces the chat
// context and, when set, the chat title, all inside a single transaction.
// The chat's updated_at is bumped in the same statement so list ordering
// follows activity.
func (r *ExchangeRepository) CommitExchange(ctx context.Context, w repository.ExchangeWrite) (*models.Message, *models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	insertMsg := `
		INSERT INTO messages (chat_id, sender, content)
		VALUES ($1, $2, $3)
		RETURNING id, chat_id, sender, content, timestamp
	`

	var userMsg models.Message
	if err := tx.GetContext(ctx, &userMsg, insertMsg, w.ChatID, models.SenderUser, w.UserContent); err != nil {
		return nil, nil, err
	}

	var modelMsg models.Message
	if err := tx.GetContext(ctx, &modelMsg, insertMsg, w.ChatID, models.SenderModel, w.ModelContent); err != nil {
		return nil, nil, err
	}

	// Replace-or-create: the context row normally exists from chat
	// creation, but a chat predating that rule gets one here.
	upsertCtx := `
		INSERT INTO chat_contexts (chat_id, context_data)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET context_data = EXCLUDED.context_data
	`
	if _, err := tx.ExecContext(ctx, upsertCtx, w.ChatID, w.ContextData); err != nil {
		return nil, nil, err
	}

	if w.NewTitle != nil {
		if _, err := tx.ExecContext(ctx,
			"UPDATE chats SET title = $1, updated_at = NOW() WHERE id = $2", *w.NewTitle, w.ChatID); err != nil {
			return nil, nil, err
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			"UPDATE chats SET updated_at = NOW() WHERE id = $1", w.ChatID); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	return &userMsg, &modelMsg, nil
}
