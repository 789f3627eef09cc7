package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pizza-nz/lunch-bot/internal/models"
)

const redisKeyPrefix = "lunchbot:cart:"

// RedisRecovery keeps mirrored carts in Redis with a key TTL, so entries
// expire without a sweeper and survive a restart of the bot.
type RedisRecovery struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRecovery creates a Redis recovery store. A zero ttl means
// RecoveryTTL.
func NewRedisRecovery(client *redis.Client, ttl time.Duration) *RedisRecovery {
	if ttl <= 0 {
		ttl = RecoveryTTL
	}
	return &RedisRecovery{client: client, ttl: ttl}
}

func (r *RedisRecovery) Get(ctx context.Context, key string) ([]models.CartItem, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cart: %w", err)
	}

	var cart []models.CartItem
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, false, fmt.Errorf("failed to decode cart: %w", err)
	}
	return cart, true, nil
}

func (r *RedisRecovery) Put(ctx context.Context, key string, cart []models.CartItem) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store cart: %w", err)
	}
	return nil
}

func (r *RedisRecovery) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

var _ Recovery = (*RedisRecovery)(nil)
