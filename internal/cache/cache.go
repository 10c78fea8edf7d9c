package cache

import (
	"context"
	"time"
)

// BytesCache хранит небольшие бинарные значения с TTL. Используется для
// сессий поиска; upstream-ответы здесь не кэшируются никогда.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
