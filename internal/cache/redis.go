package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	routesKey = "cache:routes"
	busesKey  = "cache:buses"
)

type RedisCache struct {
	client     redis.Cmdable
	catalogTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, catalogTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		catalogTTL,
	)
}

func NewRedisCacheWithClient(client redis.Cmdable, catalogTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, catalogTTL: catalogTTL}
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) GetRoutes(ctx context.Context) ([]domain.Route, error) {
	var routes []domain.Route
	ok, err := c.get(ctx, routesKey, &routes)
	if err != nil || !ok {
		return nil, err
	}
	return routes, nil
}

func (c *RedisCache) SetRoutes(ctx context.Context, routes []domain.Route) error {
	return c.set(ctx, routesKey, routes)
}

func (c *RedisCache) GetBuses(ctx context.Context) ([]domain.Bus, error) {
	var buses []domain.Bus
	ok, err := c.get(ctx, busesKey, &buses)
	if err != nil || !ok {
		return nil, err
	}
	return buses, nil
}

func (c *RedisCache) SetBuses(ctx context.Context, buses []domain.Bus) error {
	return c.set(ctx, busesKey, buses)
}

// InvalidateCatalog drops the cached route and bus lists.
func (c *RedisCache) InvalidateCatalog(ctx context.Context) error {
	return c.client.Del(ctx, routesKey, busesKey).Err()
}

// releaseLock deletes KEYS[1] only while it still holds ARGV[1].
const releaseLock = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// AcquireSeatLock marks seat on (bus, date) as being booked by the request
// owning token. It reports false when another request holds the lock.
func (c *RedisCache) AcquireSeatLock(ctx context.Context, busID int64, date time.Time, seat, token string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatLockKey(busID, date, seat), token, ttl).Result()
}

// ReleaseSeatLock drops the lock if token still owns it. A lock that
// expired and was taken by another request is left alone.
func (c *RedisCache) ReleaseSeatLock(ctx context.Context, busID int64, date time.Time, seat, token string) error {
	return c.client.Eval(ctx, releaseLock, []string{seatLockKey(busID, date, seat)}, token).Err()
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.catalogTTL).Err()
}

func seatLockKey(busID int64, date time.Time, seat string) string {
	return fmt.Sprintf("lock:bus:%d:%s:seat:%s", busID, date.Format(time.DateOnly), seat)
}
