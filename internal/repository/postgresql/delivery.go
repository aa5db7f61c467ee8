package postgresql

import (
	"context"
	"fmt"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/storage"
)

const deliveryColumns = `d.id, d.package_id, d.pickup_location, d.dropoff_location, d.status,
        d.driver_id, d.pickup_time, d.delivery_time, d.created_at, d.updated_at`

type DeliveryRepo struct {
	db db.DB
}

func NewDeliveryRepo(db db.DB) storage.DeliveryRepository {
	return &DeliveryRepo{db: db}
}

func (r *DeliveryRepo) CreateTx(ctx context.Context, tx db.Tx, d *repository.Delivery) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO deliveries (
            id, package_id, pickup_location, dropoff_location, status, driver_id, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, d.ID, d.PackageID, d.PickupLocation, d.DropoffLocation, d.Status, d.DriverID, d.CreatedAt, d.UpdatedAt)
	return mapError(err)
}

func (r *DeliveryRepo) GetByIDForUpdateTx(ctx context.Context, tx db.Tx, id string) (*repository.Delivery, error) {
	var d repository.Delivery
	err := tx.Get(ctx, &d, "SELECT "+deliveryColumns+" FROM deliveries d WHERE d.id = $1 FOR UPDATE", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (r *DeliveryRepo) GetActiveByPackageTx(ctx context.Context, tx db.Tx, packageID string) (*repository.Delivery, error) {
	var d repository.Delivery
	err := tx.Get(ctx, &d, "SELECT "+deliveryColumns+`
        FROM deliveries d
        WHERE d.package_id = $1 AND d.status IN ('assigned', 'in-transit')
        ORDER BY d.created_at DESC
        LIMIT 1`, packageID)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (r *DeliveryRepo) ListActiveByDriver(ctx context.Context, driverID string) ([]*repository.DeliveryDetails, error) {
	var out []*repository.DeliveryDetails
	err := r.db.Select(ctx, &out, "SELECT "+deliveryColumns+`,
            p.name AS pkg_name, p.description AS pkg_description, p.weight AS pkg_weight,
            p.pickup_address AS pkg_pickup_address, p.delivery_address AS pkg_delivery_address,
            p.price AS pkg_price, p.status AS pkg_status, p.owner_id AS pkg_owner_id,
            u.username AS owner_username, u.display_name AS owner_display_name
        FROM deliveries d
        JOIN packages p ON p.id = d.package_id
        JOIN users u ON u.id = p.owner_id
        WHERE d.driver_id = $1 AND d.status IN ('assigned', 'in-transit')
        ORDER BY d.created_at DESC`, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active deliveries: %w", err)
	}
	return out, nil
}

func (r *DeliveryRepo) ExistsForDriver(ctx context.Context, packageID, driverID string) (bool, error) {
	var exists bool
	err := r.db.ExecQueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM deliveries WHERE package_id = $1 AND driver_id = $2)",
		packageID, driverID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check delivery driver: %w", err)
	}
	return exists, nil
}

// UpdateStatusTx is a compare-and-swap on the delivery status. A nil
// deliveryTime keeps the stored value.
func (r *DeliveryRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id, from, to string, deliveryTime *time.Time, at time.Time) error {
	tag, err := tx.Exec(ctx, `
        UPDATE deliveries
        SET status = $3,
            delivery_time = COALESCE($4, delivery_time),
            updated_at = $5
        WHERE id = $1 AND status = $2
    `, id, from, to, deliveryTime, at)
	if err != nil {
		return fmt.Errorf("failed to update delivery status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}
