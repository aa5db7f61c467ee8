package postgresql

import (
	"context"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

type HistoryRepo struct {
	db db.DB
}

func NewHistoryRepo(db db.DB) storage.HistoryRepository {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) CreateTx(ctx context.Context, tx db.Tx, entry *repository.HistoryEntry) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO status_history (
            entity_type, entity_id, status, changed_by, changed_at
        ) VALUES ($1, $2, $3, $4, $5)
    `, entry.EntityType, entry.EntityID, entry.Status, entry.ChangedBy, entry.ChangedAt)
	return err
}

// ListByPackage returns the package's own entries together with those of
// every delivery created for it, oldest first.
func (r *HistoryRepo) ListByPackage(ctx context.Context, packageID string) ([]*repository.HistoryEntry, error) {
	var entries []*repository.HistoryEntry
	err := r.db.Select(ctx, &entries, `
        SELECT id, entity_type, entity_id, status, changed_by, changed_at
        FROM status_history
        WHERE (entity_type = 'package' AND entity_id = $1)
           OR (entity_type = 'delivery' AND entity_id IN (SELECT id FROM deliveries WHERE package_id = $1))
        ORDER BY changed_at ASC, id ASC
    `, packageID)
	return entries, err
}
