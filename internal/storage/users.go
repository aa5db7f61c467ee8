package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

// RegisterUser creates a sender or driver account. Admin accounts are only
// seeded at startup.
func (s *Storage) RegisterUser(ctx context.Context, in NewUser) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.validate.Struct(in); err != nil {
		return nil, s.validationError(err)
	}

	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	if role == RoleAdmin {
		return nil, fmt.Errorf("%w: admin accounts cannot be registered", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}

	row := &repository.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role.String(),
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, row); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: username %q is already taken", ErrValidation, in.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", row.ID), zap.String("role", row.Role))

	user, err := userFromRow(row)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) Authenticate(ctx context.Context, username, password string) (*User, error) {
	row, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	user, err := userFromRow(row)
	if err != nil {
		s.logger.Error("refusing login for user with unsupported role",
			zap.String("user_id", row.ID),
			zap.String("role", row.Role))
		return nil, err
	}
	return &user, nil
}
