package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"gophercalc/internal/model"
)

// CalculationCache keeps the first page of a user's calculation
// history in Redis. Only the default page is cached; any write for the
// user drops the entry.
type CalculationCache struct {
	client     *redisv9.Client
	historyTTL time.Duration
}

func NewCalculationCache(client *redisv9.Client, historyTTL time.Duration) *CalculationCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	return &CalculationCache{
		client:     client,
		historyTTL: historyTTL,
	}
}

func (c *CalculationCache) GetHistory(ctx context.Context, userID uint) ([]model.Calculation, bool, error) {
	key := c.historyKey(userID)
	raw, err := c.client.Get(ctx, key).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get calculation history failed: %w", err)
	}

	var calcs []model.Calculation
	if err := json.Unmarshal([]byte(raw), &calcs); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached calculation history failed: %w", err)
	}
	return calcs, true, nil
}

func (c *CalculationCache) SetHistory(ctx context.Context, userID uint, calcs []model.Calculation) error {
	key := c.historyKey(userID)
	payload, err := json.Marshal(calcs)
	if err != nil {
		return fmt.Errorf("marshal calculation history failed: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set calculation history failed: %w", err)
	}
	return nil
}

func (c *CalculationCache) Invalidate(ctx context.Context, userID uint) error {
	key := c.historyKey(userID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete calculation history failed: %w", err)
	}
	return nil
}

func (c *CalculationCache) historyKey(userID uint) string {
	return fmt.Sprintf("calc:history:%d", userID)
}
