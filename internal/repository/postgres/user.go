package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vulval/vulval-backend/internal/models"
	"github.com/vulval/vulval-backend/internal/repository"
)

// UserRepository implements repository.UserRepository using PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates or refreshes a user keyed by telegram id. Usernames can
// change on Telegram's side, so the stored one is overwritten on every
// validation rather than compared first.
func (r *UserRepository) Upsert(ctx context.Context, telegramID int64, username string) (*models.User, error) {
	var user models.User
	query := `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET username = EXCLUDED.username
		RETURNING id, telegram_id, username, joined
	`

	err := r.db.GetContext(ctx, &user, query, telegramID, username)
	if err != nil {
		return nil, err
	}

	return &user, nil
}
