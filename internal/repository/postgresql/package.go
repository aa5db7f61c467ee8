package postgresql

import (
	"context"
	"fmt"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

const packageColumns = `p.id, p.name, p.description, p.weight, p.dim_width, p.dim_height, p.dim_depth,
        p.pickup_address, p.delivery_address, p.price, p.status, p.owner_id, p.created_at, p.updated_at`

const packageWithOwnerSelect = `
        SELECT ` + packageColumns + `,
            u.username AS owner_username, u.display_name AS owner_display_name
        FROM packages p
        JOIN users u ON u.id = p.owner_id`

type PackageRepo struct {
	db db.DB
}

func NewPackageRepo(db db.DB) storage.PackageRepository {
	return &PackageRepo{db: db}
}

func (r *PackageRepo) CreateTx(ctx context.Context, tx db.Tx, pkg *repository.Package) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO packages (
            id, name, description, weight, dim_width, dim_height, dim_depth,
            pickup_address, delivery_address, price, status, owner_id, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, pkg.ID, pkg.Name, pkg.Description, pkg.Weight, pkg.DimWidth, pkg.DimHeight, pkg.DimDepth,
		pkg.PickupAddress, pkg.DeliveryAddress, pkg.Price, pkg.Status, pkg.OwnerID, pkg.CreatedAt, pkg.UpdatedAt)
	return mapError(err)
}

func (r *PackageRepo) GetByID(ctx context.Context, id string) (*repository.PackageWithOwner, error) {
	var pkg repository.PackageWithOwner
	err := r.db.Get(ctx, &pkg, packageWithOwnerSelect+" WHERE p.id = $1", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &pkg, nil
}

func (r *PackageRepo) GetByIDForUpdateTx(ctx context.Context, tx db.Tx, id string) (*repository.Package, error) {
	var pkg repository.Package
	err := tx.Get(ctx, &pkg, "SELECT "+packageColumns+" FROM packages p WHERE p.id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &pkg, nil
}

func (r *PackageRepo) ListByStatus(ctx context.Context, status string) ([]*repository.PackageWithOwner, error) {
	var pkgs []*repository.PackageWithOwner
	err := r.db.Select(ctx, &pkgs, packageWithOwnerSelect+" WHERE p.status = $1 ORDER BY p.created_at DESC", status)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages by status: %w", err)
	}
	return pkgs, nil
}

func (r *PackageRepo) ListTerminal(ctx context.Context, limit int) ([]*repository.PackageWithOwner, error) {
	var pkgs []*repository.PackageWithOwner
	err := r.db.Select(ctx, &pkgs, packageWithOwnerSelect+`
        WHERE p.status IN ('completed', 'failed_delivery')
        ORDER BY p.updated_at DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list terminal packages: %w", err)
	}
	return pkgs, nil
}

// UpdateStatusTx moves the package from one status to another. Zero affected
// rows means the package is missing or no longer in the expected status.
func (r *PackageRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id, from, to string, at time.Time) error {
	tag, err := tx.Exec(ctx, `
        UPDATE packages
        SET status = $3, updated_at = $4
        WHERE id = $1 AND status = $2
    `, id, from, to, at)
	if err != nil {
		return fmt.Errorf("failed to update package status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}
