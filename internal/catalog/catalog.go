// Package catalog lists the free models available for evaluation. The
// upstream catalog is large and slow-moving, so results are filtered down
// to free-tier entries and cached.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"llmarena/internal/cache"
	"llmarena/internal/domain"
)

const cacheKey = "catalog:free-models"

// Lister fetches the raw upstream model list.
type Lister interface {
	Models(ctx context.Context) ([]domain.Model, error)
}

type Catalog struct {
	lister Lister
	cache  cache.Cache
	ttl    time.Duration
}

func New(lister Lister, c cache.Cache, ttl time.Duration) *Catalog {
	return &Catalog{
		lister: lister,
		cache:  c,
		ttl:    ttl,
	}
}

// FreeModels returns the free-tier subset of the upstream catalog, served
// from cache when fresh.
func (c *Catalog) FreeModels(ctx context.Context) ([]domain.Model, error) {
	if c.cache != nil {
		if models, ok := c.cache.Get(ctx, cacheKey); ok {
			return models, nil
		}
	}

	all, err := c.lister.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	free := filterFree(all)

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, free, c.ttl); err != nil {
			slog.Warn("failed to cache model catalog", "error", err)
		}
	}

	return free, nil
}

// filterFree keeps models whose name or ID advertises a free tier.
func filterFree(models []domain.Model) []domain.Model {
	free := make([]domain.Model, 0, len(models))
	for _, m := range models {
		if strings.Contains(strings.ToLower(m.Name), "free") ||
			strings.Contains(strings.ToLower(m.ID), "free") {
			free = append(free, m)
		}
	}
	return free
}
