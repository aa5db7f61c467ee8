package storage

import (
	"context"
	"errors"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

var errUserNotFound = fmt.Errorf("user %w", ErrNotFound)

// GetEarnings is open to admins and to the driver themself.
func (s *Storage) GetEarnings(ctx context.Context, caller Identity, driverID string) (*Earnings, error) {
	if caller.Role != RoleAdmin && caller.UserID != driverID {
		return nil, fmt.Errorf("%w: you can only view your own earnings", ErrForbidden)
	}
	if !validID(driverID) {
		return nil, errUserNotFound
	}

	user, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	role, err := ParseRole(user.Role)
	if err != nil || role != RoleDriver {
		return nil, fmt.Errorf("%w: user is not a driver", ErrValidation)
	}

	return &Earnings{Username: user.Username, Earnings: user.Earnings}, nil
}

// SetAvailability stores the driver's availability flag. Nothing else in the
// service reads it.
func (s *Storage) SetAvailability(ctx context.Context, caller Identity, available bool) (*Availability, error) {
	if err := requireRole(caller, RoleDriver); err != nil {
		return nil, err
	}

	user, err := s.userRepo.SetAvailability(ctx, caller.UserID, available)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to update availability: %w", err)
	}

	return &Availability{Username: user.Username, Availability: user.Availability}, nil
}
