package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

var errDeliveryNotFound = fmt.Errorf("delivery %w", ErrNotFound)

func (s *Storage) ListActiveDeliveries(ctx context.Context, caller Identity) ([]ActiveDelivery, error) {
	if err := requireRole(caller, RoleDriver); err != nil {
		return nil, err
	}

	rows, err := s.deliveryRepo.ListActiveByDriver(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active deliveries: %w", err)
	}

	out := make([]ActiveDelivery, len(rows))
	for i, row := range rows {
		out[i] = activeDeliveryFromRow(row)
	}
	return out, nil
}

// UpdateDeliveryStatus moves a delivery forward. Reaching delivered or
// failed also finishes the package, and delivered credits the package price
// to the driver. All writes share one transaction with the delivery row
// locked.
func (s *Storage) UpdateDeliveryStatus(ctx context.Context, caller Identity, id, status string) (*Delivery, error) {
	next, err := ParseDeliveryStatus(status)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, errDeliveryNotFound
	}

	var (
		out      Delivery
		finished string
		credited float64
	)
	err = s.inTx(ctx, func(tx db.Tx) error {
		row, err := s.deliveryRepo.GetByIDForUpdateTx(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return errDeliveryNotFound
			}
			return fmt.Errorf("failed to load delivery: %w", err)
		}

		if row.DriverID != caller.UserID {
			return fmt.Errorf("%w: only the assigned driver can update this delivery", ErrForbidden)
		}

		current := DeliveryStatus(row.Status)
		if current.IsTerminal() {
			return fmt.Errorf("%w: delivery is already %s", ErrInvalidState, current)
		}
		if next.rank() < current.rank() {
			return fmt.Errorf("%w: delivery is %s and cannot move back to %s", ErrInvalidState, current, next)
		}

		now := s.now()
		var deliveryTime *time.Time
		if next == DeliveryDelivered {
			deliveryTime = &now
		}

		if err := s.deliveryRepo.UpdateStatusTx(ctx, tx, id, row.Status, string(next), deliveryTime, now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: delivery status changed concurrently (was %s)", ErrInvalidState, current)
			}
			return fmt.Errorf("failed to update delivery: %w", err)
		}
		if err := s.writeHistoryTx(ctx, tx, entityDelivery, id, string(next), caller.UserID, now); err != nil {
			return err
		}

		event := repository.LifecycleEvent{
			Type:       EventDeliveryStatusChanged,
			OccurredAt: now,
			ActorID:    caller.UserID,
			PackageID:  row.PackageID,
			DeliveryID: id,
			OldStatus:  row.Status,
			NewStatus:  string(next),
		}

		if next.IsTerminal() {
			amount, err := s.finishPackageTx(ctx, tx, row, next, now)
			if err != nil {
				return err
			}
			if amount > 0 {
				credited = amount
				event.Earnings = &credited
			}
			finished = row.PackageID
		}

		if err := s.enqueueEventTx(ctx, tx, event); err != nil {
			return err
		}

		row.Status = string(next)
		row.UpdatedAt = now
		if deliveryTime != nil {
			row.DeliveryTime = deliveryTime
		}
		out = deliveryFromRow(row)
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("update_delivery_status").Inc()
		return nil, err
	}

	if finished != "" {
		metrics.DeliveriesFinishedTotal.WithLabelValues(string(next)).Inc()
		if credited > 0 {
			metrics.EarningsCreditedTotal.Add(credited)
		}
		s.logger.Info("delivery finished",
			zap.String("delivery_id", id),
			zap.String("package_id", finished),
			zap.String("status", string(next)),
			zap.Float64("earnings_credited", credited))
		s.rememberFinished(ctx, finished)
	}

	return &out, nil
}

// finishPackageTx writes the terminal package status matching the delivery
// outcome and credits earnings on success. It returns the credited amount.
func (s *Storage) finishPackageTx(ctx context.Context, tx db.Tx, d *repository.Delivery, outcome DeliveryStatus, now time.Time) (float64, error) {
	pkg, err := s.packageRepo.GetByIDForUpdateTx(ctx, tx, d.PackageID)
	if err != nil {
		return 0, fmt.Errorf("failed to load package %s: %w", d.PackageID, err)
	}
	if PackageStatus(pkg.Status) != PackageAccepted {
		return 0, fmt.Errorf("%w: package is %s, expected accepted", ErrInvalidState, pkg.Status)
	}

	target := PackageCompleted
	if outcome == DeliveryFailed {
		target = PackageFailedDelivery
	}

	if err := s.packageRepo.UpdateStatusTx(ctx, tx, pkg.ID, pkg.Status, string(target), now); err != nil {
		return 0, fmt.Errorf("failed to update package status: %w", err)
	}
	if err := s.writeHistoryTx(ctx, tx, entityPackage, pkg.ID, string(target), d.DriverID, now); err != nil {
		return 0, err
	}

	if outcome != DeliveryDelivered || pkg.Price == nil || *pkg.Price <= 0 {
		return 0, nil
	}
	if err := s.userRepo.AddEarningsTx(ctx, tx, d.DriverID, *pkg.Price); err != nil {
		return 0, fmt.Errorf("failed to credit earnings: %w", err)
	}
	return *pkg.Price, nil
}

// rememberFinished puts a freshly finished package into the read cache.
// Failures only cost a later cache miss.
func (s *Storage) rememberFinished(ctx context.Context, packageID string) {
	if s.cache == nil {
		return
	}
	row, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		s.logger.Warn("failed to cache finished package", zap.String("package_id", packageID), zap.Error(err))
		return
	}
	s.cache.Set(row)
}
