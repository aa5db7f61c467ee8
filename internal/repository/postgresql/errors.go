package postgresql

import (
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

const uniqueViolation = "23505"

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrObjectNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrConflict
	}
	return err
}
