package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

func TestStorage_RegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("driver via picker alias", func(t *testing.T) {
		f := newFixture(t)

		var stored *repository.User
		f.users.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *repository.User) error {
			stored = u
			return nil
		})

		user, err := f.storage.RegisterUser(ctx, NewUser{Username: " bob ", Password: "secret1", Role: "picker"})
		require.NoError(t, err)

		assert.Equal(t, "bob", user.Username)
		assert.Equal(t, "bob", user.DisplayName)
		assert.Equal(t, RoleDriver, user.Role)
		assert.Equal(t, "driver", stored.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
	})

	t.Run("admin cannot self-register", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.storage.RegisterUser(ctx, NewUser{Username: "root", Password: "secret1", Role: "admin"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("short password", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.storage.RegisterUser(ctx, NewUser{Username: "bob", Password: "123", Role: "driver"})
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorContains(t, err, "password must be at least 6 characters")
	})

	t.Run("username taken", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().Create(ctx, gomock.Any()).Return(repository.ErrConflict)

		_, err := f.storage.RegisterUser(ctx, NewUser{Username: "bob", Password: "secret1", Role: "user"})
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorContains(t, err, "already taken")
	})
}

func TestStorage_Authenticate(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	row := &repository.User{ID: senderID, Username: "alice", PasswordHash: string(hash), Role: "user"}

	t.Run("valid credentials", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().GetByUsername(ctx, "alice").Return(row, nil)

		user, err := f.storage.Authenticate(ctx, "alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, senderID, user.ID)
		assert.Equal(t, RoleSender, user.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().GetByUsername(ctx, "alice").Return(row, nil)

		_, err := f.storage.Authenticate(ctx, "alice", "nope")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().GetByUsername(ctx, "ghost").Return(nil, repository.ErrObjectNotFound)

		_, err := f.storage.Authenticate(ctx, "ghost", "secret1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unsupported stored role is not signed in", func(t *testing.T) {
		f := newFixture(t)
		corrupted := *row
		corrupted.Role = "courier"
		f.users.EXPECT().GetByUsername(ctx, "alice").Return(&corrupted, nil)

		user, err := f.storage.Authenticate(ctx, "alice", "secret1")
		assert.Nil(t, user)
		assert.ErrorContains(t, err, `unsupported stored role "courier"`)
		assert.NotErrorIs(t, err, ErrUnauthorized)
		assert.NotErrorIs(t, err, ErrValidation)
	})

	t.Run("database error", func(t *testing.T) {
		f := newFixture(t)
		f.users.EXPECT().GetByUsername(ctx, "alice").Return(nil, errors.New("db down"))

		_, err := f.storage.Authenticate(ctx, "alice", "secret1")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})
}
