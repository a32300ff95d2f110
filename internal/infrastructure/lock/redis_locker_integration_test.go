//go:build integration

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/internal/infrastructure/lock"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisLocker_OcupadoDevuelveConflicto(t *testing.T) {
	rdb := startRedis(t)
	l := lock.NewRedisLocker(rdb, 5*time.Second, 2, nil)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "m-1")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "m-1")
	assert.ErrorIs(t, err, domain.ErrConflict)

	other, err := l.Lock(ctx, "m-2")
	require.NoError(t, err)
	other()

	unlock()
	again, err := l.Lock(ctx, "m-1")
	require.NoError(t, err)
	again()
}
