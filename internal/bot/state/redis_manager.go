package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTTL auto-expires stale chat state.
const stateTTL = 24 * time.Hour

// RedisManager is the Redis-backed StateManager for deployments where the
// bot process is restarted or scaled.
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager creates a new Redis-based state manager
func NewRedisManager(redisHost, redisPort string) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisManager{client: client}, nil
}

// SetUserState sets the state for a user with TTL
func (m *RedisManager) SetUserState(userID int64, state string) {
	ctx := context.Background()
	m.client.Set(ctx, stateKey(userID), state, stateTTL)
}

// GetUserState gets the state for a user
func (m *RedisManager) GetUserState(userID int64) string {
	ctx := context.Background()
	result := m.client.Get(ctx, stateKey(userID))
	if result.Err() != nil {
		return None
	}
	return result.Val()
}

// SetTempData sets temporary data for a user
func (m *RedisManager) SetTempData(userID int64, key string, value string) {
	ctx := context.Background()
	m.client.HSet(ctx, tempKey(userID), key, value)
	m.client.Expire(ctx, tempKey(userID), stateTTL)
}

// GetTempData gets temporary data for a user
func (m *RedisManager) GetTempData(userID int64, key string) (string, bool) {
	ctx := context.Background()
	result := m.client.HGet(ctx, tempKey(userID), key)
	if result.Err() != nil {
		return "", false
	}
	return result.Val(), true
}

// ClearTempData clears all temporary data for a user
func (m *RedisManager) ClearTempData(userID int64) {
	ctx := context.Background()
	m.client.Del(ctx, tempKey(userID))
}

// Close closes the Redis connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}

func stateKey(userID int64) string {
	return fmt.Sprintf("chat:%d:state", userID)
}

func tempKey(userID int64) string {
	return fmt.Sprintf("chat:%d:temp", userID)
}
