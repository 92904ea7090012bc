package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"beauty-shop/internal/domain"
)

const (
	cartKeyPrefix = "cart:"
	cartTTL       = 7 * 24 * time.Hour
)

// RedisStore хранит корзины сессий в Redis. Каждая корзина — JSON-объект
// productID → позиция, живущий неделю с момента последней записи.
type RedisStore struct {
	client *redis.Client
}

var _ domain.SessionStore = (*RedisStore)(nil)

// NewRedisStore создаёт хранилище сессий.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// LoadCart возвращает корзину сессии. Отсутствующая корзина — nil без ошибки.
func (s *RedisStore) LoadCart(ctx context.Context, sessionID string) (map[int64]domain.CartItem, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение корзины: %w", err)
	}
	var cart map[int64]domain.CartItem
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("повреждённые данные корзины: %w", err)
	}
	return cart, nil
}

// SaveCart записывает корзину и продлевает её TTL.
func (s *RedisStore) SaveCart(ctx context.Context, sessionID string, cart map[int64]domain.CartItem) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("сериализация корзины: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, data, cartTTL).Err(); err != nil {
		return fmt.Errorf("запись корзины: %w", err)
	}
	return nil
}

// DeleteCart удаляет корзину сессии.
func (s *RedisStore) DeleteCart(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("удаление корзины: %w", err)
	}
	return nil
}
