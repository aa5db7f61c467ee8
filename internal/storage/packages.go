package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

var errPackageNotFound = fmt.Errorf("package %w", ErrNotFound)

func (s *Storage) CreatePackage(ctx context.Context, caller Identity, in NewPackage) (*Package, error) {
	if err := requireRole(caller, RoleSender); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.PickupAddress = strings.TrimSpace(in.PickupAddress)
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	if err := s.validate.Struct(in); err != nil {
		return nil, s.validationError(err)
	}

	now := s.now()
	row := &repository.Package{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Description:     in.Description,
		Weight:          in.Weight,
		PickupAddress:   in.PickupAddress,
		DeliveryAddress: in.DeliveryAddress,
		Price:           in.Price,
		Status:          string(PackagePending),
		OwnerID:         caller.UserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if d := in.Dimensions; d != nil {
		w, h, dp := d.Width, d.Height, d.Depth
		row.DimWidth, row.DimHeight, row.DimDepth = &w, &h, &dp
	}

	err := s.inTx(ctx, func(tx db.Tx) error {
		if err := s.packageRepo.CreateTx(ctx, tx, row); err != nil {
			return fmt.Errorf("failed to add package: %w", err)
		}
		if err := s.writeHistoryTx(ctx, tx, entityPackage, row.ID, row.Status, caller.UserID, now); err != nil {
			return err
		}
		return s.enqueueEventTx(ctx, tx, repository.LifecycleEvent{
			Type:       EventPackageCreated,
			OccurredAt: now,
			ActorID:    caller.UserID,
			PackageID:  row.ID,
			NewStatus:  row.Status,
		})
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_package").Inc()
		return nil, err
	}

	metrics.PackagesCreatedTotal.Inc()
	s.logger.Info("package created", zap.String("package_id", row.ID), zap.String("owner_id", caller.UserID))

	pkg := packageFromRow(row)
	return &pkg, nil
}

// ListAvailablePackages returns pending packages, newest first.
func (s *Storage) ListAvailablePackages(ctx context.Context, caller Identity) ([]Package, error) {
	if err := requireRole(caller, RoleDriver); err != nil {
		return nil, err
	}

	rows, err := s.packageRepo.ListByStatus(ctx, string(PackagePending))
	if err != nil {
		return nil, fmt.Errorf("failed to list available packages: %w", err)
	}

	pkgs := make([]Package, len(rows))
	for i, row := range rows {
		pkgs[i] = packageFromOwnerRow(row)
	}
	return pkgs, nil
}

func (s *Storage) GetPackage(ctx context.Context, caller Identity, id string) (*Package, error) {
	if err := requireRole(caller, RoleSender, RoleDriver, RoleAdmin); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, errPackageNotFound
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(id); ok {
			pkg := packageFromOwnerRow(cached)
			return &pkg, nil
		}
	}

	row, err := s.loadPackage(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && PackageStatus(row.Status).IsTerminal() {
		s.cache.Set(row)
	}

	pkg := packageFromOwnerRow(row)
	return &pkg, nil
}

// AcceptPackage assigns a pending package to the calling driver. If the
// pending package already has an active delivery, the package status is
// repaired and that delivery is returned with Existing set.
func (s *Storage) AcceptPackage(ctx context.Context, caller Identity, id string) (*AcceptResult, error) {
	if err := requireRole(caller, RoleDriver); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, errPackageNotFound
	}

	var result AcceptResult
	err := s.inTx(ctx, func(tx db.Tx) error {
		row, err := s.packageRepo.GetByIDForUpdateTx(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return errPackageNotFound
			}
			return fmt.Errorf("failed to load package: %w", err)
		}

		if PackageStatus(row.Status) != PackagePending {
			return notAvailable(row.Status)
		}

		now := s.now()

		// a pending package with an active delivery is left over from an
		// interrupted accept; finish it instead of adding a second delivery
		active, err := s.deliveryRepo.GetActiveByPackageTx(ctx, tx, id)
		switch {
		case err == nil:
			if err := s.packageRepo.UpdateStatusTx(ctx, tx, id, row.Status, string(PackageAccepted), now); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return notAvailable(row.Status)
				}
				return fmt.Errorf("failed to repair package status: %w", err)
			}
			if err := s.writeHistoryTx(ctx, tx, entityPackage, id, string(PackageAccepted), caller.UserID, now); err != nil {
				return err
			}
			s.logger.Warn("package status repaired from active delivery",
				zap.String("package_id", id),
				zap.String("delivery_id", active.ID))
			row.Status = string(PackageAccepted)
			row.UpdatedAt = now
			result = AcceptResult{Delivery: deliveryFromRow(active), Package: packageFromRow(row), Existing: true}
			return nil
		case !errors.Is(err, repository.ErrObjectNotFound):
			return fmt.Errorf("failed to look up active delivery: %w", err)
		}

		delivery := &repository.Delivery{
			ID:              uuid.NewString(),
			PackageID:       row.ID,
			PickupLocation:  row.PickupAddress,
			DropoffLocation: row.DeliveryAddress,
			Status:          string(DeliveryAssigned),
			DriverID:        caller.UserID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.deliveryRepo.CreateTx(ctx, tx, delivery); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return notAvailable(row.Status)
			}
			return fmt.Errorf("failed to create delivery: %w", err)
		}

		if err := s.packageRepo.UpdateStatusTx(ctx, tx, id, string(PackagePending), string(PackageAccepted), now); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return notAvailable(row.Status)
			}
			return fmt.Errorf("failed to update package status: %w", err)
		}

		if err := s.writeHistoryTx(ctx, tx, entityPackage, id, string(PackageAccepted), caller.UserID, now); err != nil {
			return err
		}
		if err := s.writeHistoryTx(ctx, tx, entityDelivery, delivery.ID, delivery.Status, caller.UserID, now); err != nil {
			return err
		}
		if err := s.enqueueEventTx(ctx, tx, repository.LifecycleEvent{
			Type:       EventPackageAccepted,
			OccurredAt: now,
			ActorID:    caller.UserID,
			PackageID:  id,
			DeliveryID: delivery.ID,
			OldStatus:  string(PackagePending),
			NewStatus:  string(PackageAccepted),
		}); err != nil {
			return err
		}

		row.Status = string(PackageAccepted)
		row.UpdatedAt = now
		result = AcceptResult{Delivery: deliveryFromRow(delivery), Package: packageFromRow(row)}
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("accept_package").Inc()
		return nil, err
	}

	if !result.Existing {
		metrics.PackagesAcceptedTotal.Inc()
		s.logger.Info("package accepted",
			zap.String("package_id", id),
			zap.String("delivery_id", result.Delivery.ID),
			zap.String("driver_id", caller.UserID))
	}
	return &result, nil
}

// RejectPackage records that a driver declined a package. The package is
// left untouched and stays available to other drivers.
func (s *Storage) RejectPackage(ctx context.Context, caller Identity, id string) error {
	if err := requireRole(caller, RoleDriver); err != nil {
		return err
	}
	if !validID(id) {
		return errPackageNotFound
	}
	if _, err := s.loadPackage(ctx, id); err != nil {
		return err
	}

	s.logger.Info("package rejected", zap.String("package_id", id), zap.String("driver_id", caller.UserID))
	return nil
}

// GetPackageHistory lists status changes of the package and its deliveries.
// Only the owner, a driver who held one of its deliveries, or an admin may
// read it.
func (s *Storage) GetPackageHistory(ctx context.Context, caller Identity, id string) ([]HistoryEntry, error) {
	if err := requireRole(caller, RoleSender, RoleDriver, RoleAdmin); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, errPackageNotFound
	}

	row, err := s.loadPackage(ctx, id)
	if err != nil {
		return nil, err
	}

	switch caller.Role {
	case RoleAdmin:
	case RoleSender:
		if row.OwnerID != caller.UserID {
			return nil, fmt.Errorf("%w: only the package owner can view its history", ErrForbidden)
		}
	case RoleDriver:
		ok, err := s.deliveryRepo.ExistsForDriver(ctx, id, caller.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: package was never assigned to you", ErrForbidden)
		}
	}

	rows, err := s.historyRepo.ListByPackage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get package history: %w", err)
	}

	entries := make([]HistoryEntry, len(rows))
	for i, r := range rows {
		entries[i] = HistoryEntry{
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Status:     r.Status,
			ChangedBy:  r.ChangedBy,
			ChangedAt:  r.ChangedAt,
		}
	}
	return entries, nil
}

func (s *Storage) loadPackage(ctx context.Context, id string) (*repository.PackageWithOwner, error) {
	row, err := s.packageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, errPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return row, nil
}

func notAvailable(status string) error {
	return fmt.Errorf("%w: package is not available for acceptance (status: %s)", ErrInvalidState, status)
}
