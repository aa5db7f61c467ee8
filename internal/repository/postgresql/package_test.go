package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/courier/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository/postgresql"
)

func ptr[T any](v T) *T {
	return &v
}

func TestPackageRepo_CreateTx(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	testPackage := &repository.Package{
		ID:              "3b241101-e2bb-4255-8caf-4136c566a962",
		Name:            "Box",
		Weight:          ptr(2.5),
		PickupAddress:   "A",
		DeliveryAddress: "B",
		Price:           ptr(50.0),
		Status:          "pending",
		OwnerID:         "owner-1",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewPackageRepo(mockDB)

		mockTx.EXPECT().Exec(
			gomock.Any(),
			gomock.Any(),
			gomock.Eq(testPackage.ID),
			gomock.Eq(testPackage.Name),
			gomock.Eq(testPackage.Description),
			gomock.Eq(testPackage.Weight),
			gomock.Eq(testPackage.DimWidth),
			gomock.Eq(testPackage.DimHeight),
			gomock.Eq(testPackage.DimDepth),
			gomock.Eq(testPackage.PickupAddress),
			gomock.Eq(testPackage.DeliveryAddress),
			gomock.Eq(testPackage.Price),
			gomock.Eq(testPackage.Status),
			gomock.Eq(testPackage.OwnerID),
			gomock.Eq(testPackage.CreatedAt),
			gomock.Eq(testPackage.UpdatedAt),
		).Return(pgconn.CommandTag("INSERT 0 1"), nil)

		err := repo.CreateTx(ctx, mockTx, testPackage)
		assert.NoError(t, err)
	})

	t.Run("duplicate id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewPackageRepo(mockDB)

		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, &pgconn.PgError{Code: "23505"})

		err := repo.CreateTx(ctx, mockTx, testPackage)
		assert.ErrorIs(t, err, repository.ErrConflict)
	})
}

func TestPackageRepo_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("package found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewPackageRepo(mockDB)

		expected := &repository.PackageWithOwner{
			Package: repository.Package{
				ID:     "pkg-1",
				Name:   "Box",
				Status: "pending",
			},
			OwnerUsername: "sender",
		}

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("pkg-1")).
			DoAndReturn(func(_ context.Context, dest *repository.PackageWithOwner, _ string, _ string) error {
				*dest = *expected
				return nil
			})

		pkg, err := repo.GetByID(ctx, "pkg-1")
		require.NoError(t, err)
		assert.Equal(t, expected, pkg)
	})

	t.Run("package not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewPackageRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(pgx.ErrNoRows)

		pkg, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
		assert.Nil(t, pkg)
	})

	t.Run("database error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewPackageRepo(mockDB)

		expectedErr := errors.New("database error")
		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(expectedErr)

		pkg, err := repo.GetByID(ctx, "pkg-1")
		assert.Equal(t, expectedErr, err)
		assert.Nil(t, pkg)
	})
}

func TestPackageRepo_ListByStatus(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := mock_database.NewMockDB(ctrl)
	repo := postgresql.NewPackageRepo(mockDB)

	mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("pending")).
		DoAndReturn(func(_ context.Context, dest *[]*repository.PackageWithOwner, query string, _ string) error {
			assert.Contains(t, query, "ORDER BY p.created_at DESC")
			*dest = []*repository.PackageWithOwner{
				{Package: repository.Package{ID: "new"}},
				{Package: repository.Package{ID: "old"}},
			}
			return nil
		})

	pkgs, err := repo.ListByStatus(ctx, "pending")
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "new", pkgs[0].ID)
}

func TestPackageRepo_UpdateStatusTx(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		tag         pgconn.CommandTag
		execErr     error
		expectedErr error
	}{
		{
			name: "status swapped",
			tag:  pgconn.CommandTag("UPDATE 1"),
		},
		{
			name:        "lost race",
			tag:         pgconn.CommandTag("UPDATE 0"),
			expectedErr: repository.ErrConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockDB := mock_database.NewMockDB(ctrl)
			mockTx := mock_database.NewMockTx(ctrl)
			repo := postgresql.NewPackageRepo(mockDB)

			mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), "pkg-1", "pending", "accepted", now).
				Return(tc.tag, tc.execErr)

			err := repo.UpdateStatusTx(ctx, mockTx, "pkg-1", "pending", "accepted", now)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("database error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewPackageRepo(mock_database.NewMockDB(ctrl))

		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("boom"))

		err := repo.UpdateStatusTx(ctx, mockTx, "pkg-1", "pending", "accepted", now)
		assert.ErrorContains(t, err, "boom")
		assert.NotErrorIs(t, err, repository.ErrConflict)
	})
}
