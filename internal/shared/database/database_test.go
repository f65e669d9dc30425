package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventreg/internal/shared/config"
	"eventreg/pkg/logger"
)

func TestInitDB_MemoryModeOpensNothing(t *testing.T) {
	cfg := config.Load()
	cfg.StorageMode = config.StorageMemory
	cfg.Redis.Enabled = false

	db, err := InitDB(cfg, logger.Discard())
	require.NoError(t, err)

	assert.Nil(t, db.GetPostgreSQL())
	assert.Nil(t, db.GetRedisClient())
	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, db.Close())
}

func TestInitDB_UnreachableRedis(t *testing.T) {
	cfg := config.Load()
	cfg.StorageMode = config.StorageMemory
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := InitDB(cfg, logger.Discard())
	assert.ErrorContains(t, err, "failed to initialize Redis")
}
