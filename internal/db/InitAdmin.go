package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// InitAdmin makes sure an admin identity with the given username exists.
// An existing row is left untouched, including its password.
func InitAdmin(ctx context.Context, database DB, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	var count int
	err := database.ExecQueryRow(ctx, "SELECT COUNT(*) FROM users WHERE username = $1", username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	_, err = database.Exec(ctx, `
        INSERT INTO users (id, username, display_name, password_hash, role)
        VALUES ($1, $2, $3, $4, 'admin')
        ON CONFLICT (username) DO NOTHING
    `, uuid.NewString(), username, username, string(hash))
	if err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	return true, nil
}
