package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"eventreg/internal/shared/constants"
	"eventreg/pkg/cache"
	"eventreg/pkg/logger"
)

// CachedDirectory answers EmailExists from Redis before asking the repository.
// Only positive answers are cached. Anything that deletes users must call PurgeDirectoryCache.
type CachedDirectory struct {
	repo   Repository
	cache  cache.Service
	ttl    time.Duration
	logger *logger.Logger
}

func NewCachedDirectory(repo Repository, cacheService cache.Service, ttl time.Duration, l *logger.Logger) *CachedDirectory {
	return &CachedDirectory{repo: repo, cache: cacheService, ttl: ttl, logger: l}
}

func (d *CachedDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	key := constants.KnownUserKey(strings.ToLower(email))

	var known bool
	err := d.cache.Get(ctx, key, &known)
	switch {
	case err == nil && known:
		return true, nil
	case err != nil && !errors.Is(err, cache.ErrCacheMiss):
		d.logger.WarnContext(ctx, "users cache read failed", slog.String("error", err.Error()))
	}

	exists, err := d.repo.EmailExists(ctx, email)
	if err != nil {
		return false, err
	}

	if exists {
		if err := d.cache.Set(ctx, key, true, d.ttl); err != nil {
			d.logger.WarnContext(ctx, "users cache write failed", slog.String("error", err.Error()))
		}
	}
	return exists, nil
}

// PurgeDirectoryCache drops the cached users directory answers held in c
func PurgeDirectoryCache(ctx context.Context, c cache.Service) (int, error) {
	return c.DeletePattern(ctx, constants.KnownUserPattern())
}
