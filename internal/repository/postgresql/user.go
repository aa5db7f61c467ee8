package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

const userColumns = "id, username, display_name, password_hash, role, availability, earnings, created_at"

type UserRepo struct {
	db db.DB
}

func NewUserRepo(db db.DB) storage.UserRepository {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *repository.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, username, display_name, password_hash, role, availability, earnings, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, user.ID, user.Username, user.DisplayName, user.PasswordHash, user.Role, user.Availability, user.Earnings, user.CreatedAt)
	return mapError(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	var user repository.User
	if err := r.db.Get(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = $1", id); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	var user repository.User
	if err := r.db.Get(ctx, &user, "SELECT "+userColumns+" FROM users WHERE username = $1", username); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (r *UserRepo) SetAvailability(ctx context.Context, id string, available bool) (*repository.User, error) {
	var user repository.User
	err := r.db.Get(ctx, &user, `
        UPDATE users SET availability = $2
        WHERE id = $1
        RETURNING `+userColumns, id, available)
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

// AddEarningsTx increments earnings in place so concurrent completions for
// the same driver never overwrite each other.
func (r *UserRepo) AddEarningsTx(ctx context.Context, tx db.Tx, id string, amount float64) error {
	tag, err := tx.Exec(ctx, "UPDATE users SET earnings = earnings + $2 WHERE id = $1", id, amount)
	if err != nil {
		return fmt.Errorf("failed to credit earnings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
