// Package ratelimit expone un fiber.Storage sobre Redis para el limitador distribuido.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "ratelimit:"
	scanBatchSize = 100
	opTimeout     = 2 * time.Second
)

var _ fiber.Storage = (*RedisStorage)(nil)

// RedisStorage implementa fiber.Storage para compartir contadores entre réplicas.
type RedisStorage struct {
	client redis.UniversalClient
}

// NewRedisStorage devuelve nil si client es nil.
func NewRedisStorage(client redis.UniversalClient) *RedisStorage {
	if client == nil {
		return nil
	}
	return &RedisStorage{client: client}
}

// NewClient abre un cliente a partir de una URL redis:// y verifica la conexión.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Get devuelve nil, nil cuando la clave no existe.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set guarda val con expiración exp (0 = sin expiración). Clave o valor vacíos se ignoran.
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if s == nil || key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.client.Set(ctx, keyPrefix+key, val, exp).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStorage) Delete(key string) error {
	if s == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Reset borra solo las claves con el prefijo del limitador.
func (s *RedisStorage) Reset() error {
	if s == nil {
		return nil
	}
	ctx := context.Background()
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis batch delete: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close no cierra el cliente; su ciclo de vida lo maneja main.
func (*RedisStorage) Close() error {
	return nil
}
