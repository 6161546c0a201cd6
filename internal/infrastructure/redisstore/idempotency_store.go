// Package redisstore guarda claves de idempotencia de la API en Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/pkg/config"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	pendingMarker        = "__pending__"
	defaultTTL           = 24 * time.Hour
)

// reserveScript: si la clave no existe la marca como pendiente con TTL y devuelve {1, ""};
// si existe devuelve {0, valor}.
var reserveScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return {1, ''}
end
return {0, current}
`)

// releaseScript borra la clave solo si sigue pendiente (no pisa una respuesta guardada).
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore implementación de ports.IdempotencyStore sobre Redis.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore construye el store. ttl <= 0 usa 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// NewClient abre el cliente Redis y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 50,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (*ports.StoredResponse, bool, error) {
	res, err := reserveScript.Run(ctx, s.client, []string{idempotencyKeyPrefix + key},
		pendingMarker, s.ttl.Milliseconds()).Slice()
	if err != nil {
		return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if len(res) != 2 {
		return nil, false, fmt.Errorf("reserve idempotency key: respuesta inesperada %v", res)
	}
	if reserved, _ := res[0].(int64); reserved == 1 {
		return nil, true, nil
	}
	value, _ := res[1].(string)
	if value == pendingMarker {
		return nil, false, ports.ErrIdempotencyInFlight
	}
	var stored ports.StoredResponse
	if err := json.Unmarshal([]byte(value), &stored); err != nil {
		return nil, false, fmt.Errorf("decode idempotent response: %w", err)
	}
	return &stored, false, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, key string, resp ports.StoredResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode idempotent response: %w", err)
	}
	if err := s.client.Set(ctx, idempotencyKeyPrefix+key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save idempotent response: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{idempotencyKeyPrefix + key}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
