package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	appinv "github.com/jhoicas/inventory-ledger/internal/application/inventory"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/pkg/config"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

var _ appinv.MaterialLocker = (*RedisLocker)(nil)

// KeyPrefix prefijo de las claves de candado por material.
const KeyPrefix = "inventory:material:"

// NewRedisClient crea el cliente Redis y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// RedisLocker candado distribuido por material (varias réplicas del servicio).
// El TTL acota cuánto sobrevive un candado si la réplica que lo tiene muere.
type RedisLocker struct {
	client  *redislock.Client
	ttl     time.Duration
	retries int
	log     *logger.Logger
}

// NewRedisLocker construye el candado sobre un cliente go-redis.
func NewRedisLocker(rdb redislock.RedisClient, ttl time.Duration, retries int, log *logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{
		client:  redislock.New(rdb),
		ttl:     ttl,
		retries: retries,
		log:     log.Component("lock"),
	}
}

// Lock intenta obtener el candado con backoff exponencial. Si no lo obtiene tras los
// reintentos devuelve ErrConflict.
func (l *RedisLocker) Lock(ctx context.Context, materialID string) (func(), error) {
	key := KeyPrefix + materialID
	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.ExponentialBackoff(16*time.Millisecond, 512*time.Millisecond), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.log.Warn().Str("material_id", materialID).Msg("candado de material ocupado")
		return nil, fmt.Errorf("material %s en uso: %w", materialID, domain.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}
	return func() {
		if err := lk.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Error().Err(err).Str("material_id", materialID).Msg("liberar candado")
		}
	}, nil
}
