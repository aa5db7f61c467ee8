package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

type stubRepo struct {
	pkgs  []*repository.PackageWithOwner
	err   error
	limit int
}

func (r *stubRepo) ListTerminal(_ context.Context, limit int) ([]*repository.PackageWithOwner, error) {
	r.limit = limit
	return r.pkgs, r.err
}

func terminal(id, status string) *repository.PackageWithOwner {
	return &repository.PackageWithOwner{
		Package:       repository.Package{ID: id, Name: "Box", Status: status},
		OwnerUsername: "alice",
	}
}

func TestPackageCache_LoadInitialData(t *testing.T) {
	t.Run("loads terminal packages", func(t *testing.T) {
		repo := &stubRepo{pkgs: []*repository.PackageWithOwner{
			terminal("p1", "completed"),
			terminal("p2", "failed_delivery"),
		}}
		c := NewPackageCache(repo, nil)

		require.NoError(t, c.LoadInitialData(context.Background(), 100))
		assert.Equal(t, 100, repo.limit)
		assert.Equal(t, 2, c.Len())

		got, ok := c.Get("p2")
		require.True(t, ok)
		assert.Equal(t, "failed_delivery", got.Status)
	})

	t.Run("repository error", func(t *testing.T) {
		c := NewPackageCache(&stubRepo{err: errors.New("db down")}, nil)

		assert.Error(t, c.LoadInitialData(context.Background(), 10))
		assert.Zero(t, c.Len())
	})
}

func TestPackageCache_Set(t *testing.T) {
	c := NewPackageCache(&stubRepo{}, nil)

	c.Set(terminal("p1", "completed"))
	c.Set(terminal("p2", "accepted"))
	c.Set(nil)

	_, ok := c.Get("p1")
	assert.True(t, ok)
	_, ok = c.Get("p2")
	assert.False(t, ok)
}

func TestPackageCache_ReturnsCopies(t *testing.T) {
	c := NewPackageCache(&stubRepo{}, nil)
	pkg := terminal("p1", "completed")
	c.Set(pkg)

	pkg.Name = "changed"
	got, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Box", got.Name)

	got.Name = "mutated"
	again, _ := c.Get("p1")
	assert.Equal(t, "Box", again.Name)
}
