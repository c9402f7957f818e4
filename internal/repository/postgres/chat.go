package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vulval/vulval-backend/internal/models"
	"github.com/vulval/vulval-backend/internal/repository"
)

// hexIDBytes gives a 20-character hex id. At that size collisions are
// effectively impossible, but the insert loop still checks because the
// column carries a uniqueness guarantee the client relies on.
const hexIDBytes = 10

const maxHexIDAttempts = 10

// ChatRepository implements repository.ChatRepository using PostgreSQL
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository creates a new PostgreSQL chat repository
func NewChatRepository(db *sqlx.DB) repository.ChatRepository {
	return &ChatRepository{db: db}
}

// Create inserts a chat and its empty context row together. The hex id is
// generated from crypto/rand and re-rolled until it is unique.
func (r *ChatRepository) Create(ctx context.Context, userID int64, title string) (*models.Chat, error) {
	if title == "" {
		title = models.DefaultChatTitle
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var chat models.Chat
	for attempt := 0; ; attempt++ {
		if attempt == maxHexIDAttempts {
			return nil, fmt.Errorf("could not generate a unique chat hex id after %d attempts", maxHexIDAttempts)
		}

		hexID, err := newHexID()
		if err != nil {
			return nil, err
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists,
			"SELECT EXISTS (SELECT 1 FROM chats WHERE hex_id = $1)", hexID); err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		query := `
			INSERT INTO chats (user_id, hex_id, title)
			VALUES ($1, $2, $3)
			RETURNING id, user_id, hex_id, title, created_at, updated_at
		`
		if err := tx.GetContext(ctx, &chat, query, userID, hexID, title); err != nil {
			return nil, err
		}
		break
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO chat_contexts (chat_id, context_data) VALUES ($1, '')", chat.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &chat, nil
}

// GetByID retrieves a chat by its internal numeric id
func (r *ChatRepository) GetByID(ctx context.Context, id int64) (*models.Chat, error) {
	var chat models.Chat
	query := `
		SELECT id, user_id, hex_id, title, created_at, updated_at
		FROM chats
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &chat, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &chat, nil
}

// GetByHexID retrieves a chat by its public hex id
func (r *ChatRepository) GetByHexID(ctx context.Context, hexID string) (*models.Chat, error) {
	var chat models.Chat
	query := `
		SELECT id, user_id, hex_id, title, created_at, updated_at
		FROM chats
		WHERE hex_id = $1
	`

	err := r.db.GetContext(ctx, &chat, query, hexID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &chat, nil
}

// ListByUser retrieves all chats of a user, most recently updated first
func (r *ChatRepository) ListByUser(ctx context.Context, userID int64) ([]models.Chat, error) {
	chats := []models.Chat{}
	query := `
		SELECT id, user_id, hex_id, title, created_at, updated_at
		FROM chats
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	err := r.db.SelectContext(ctx, &chats, query, userID)
	if err != nil {
		return nil, err
	}

	return chats, nil
}

// Delete removes a chat. Messages and context cascade at the schema level.
func (r *ChatRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM chats WHERE id = $1", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func newHexID() (string, error) {
	buf := make([]byte, hexIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
