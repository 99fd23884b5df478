// Package cache реализует кэш подборок каталога поверх Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis хранит значения в Redis в виде JSON с общим префиксом ключей и TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis создаёт кэш поверх клиента Redis.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Connect подключается к Redis по адресу addr и проверяет соединение.
func Connect(ctx context.Context, addr, prefix string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, prefix, ttl), nil
}

// Get читает значение по ключу в dest. Возвращает false при промахе.
func (c *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal: %w", err)
	}
	return true, nil
}

// Set сохраняет значение с TTL кэша.
func (c *Redis) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// DeletePattern удаляет все ключи, подходящие под шаблон.
func (c *Redis) DeletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping проверяет соединение с Redis.
func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close закрывает соединение с Redis.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Nop ничего не кэширует. Используется, когда Redis не настроен.
type Nop struct{}

// Get всегда возвращает промах.
func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set ничего не делает.
func (Nop) Set(context.Context, string, any) error { return nil }

// DeletePattern ничего не делает.
func (Nop) DeletePattern(context.Context, string) error { return nil }
