package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/courier/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/courier/internal/repository"
)

type PackageRepository interface {
	ListTerminal(ctx context.Context, limit int) ([]*repository.PackageWithOwner, error)
}

// PackageCache keeps packages that reached a terminal status. Those records
// never change again, so entries are never invalidated.
type PackageCache struct {
	mu     sync.RWMutex
	cache  map[string]*repository.PackageWithOwner
	repo   PackageRepository
	logger *zap.Logger
}

func NewPackageCache(repo PackageRepository, logger *zap.Logger) *PackageCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PackageCache{
		cache:  make(map[string]*repository.PackageWithOwner),
		repo:   repo,
		logger: logger,
	}
}

// LoadInitialData warms the cache with the most recently finished packages.
func (c *PackageCache) LoadInitialData(ctx context.Context, limit int) error {
	c.logger.Info("loading initial data into package cache", zap.Int("limit", limit))
	pkgs, err := c.repo.ListTerminal(ctx, limit)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pkg := range pkgs {
		pkgCopy := *pkg
		c.cache[pkg.ID] = &pkgCopy
	}
	metrics.PackageCacheItems.Set(float64(len(c.cache)))
	c.logger.Info("package cache loaded", zap.Int("items", len(c.cache)))
	return nil
}

func (c *PackageCache) Get(id string) (*repository.PackageWithOwner, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pkg, found := c.cache[id]
	if !found {
		return nil, false
	}
	pkgCopy := *pkg
	return &pkgCopy, true
}

// Set stores a terminal package. Anything else is ignored.
func (c *PackageCache) Set(pkg *repository.PackageWithOwner) {
	if pkg == nil || !isTerminalStatus(pkg.Status) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	pkgCopy := *pkg
	c.cache[pkg.ID] = &pkgCopy
	metrics.PackageCacheItems.Set(float64(len(c.cache)))
	c.logger.Debug("package cached", zap.String("package_id", pkg.ID), zap.String("status", pkg.Status))
}

func (c *PackageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func isTerminalStatus(status string) bool {
	return status == "completed" || status == "failed_delivery"
}
