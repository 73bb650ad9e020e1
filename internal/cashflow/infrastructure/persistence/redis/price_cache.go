// Package redis 标的最新价读穿缓存
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/swapcashflow/internal/cashflow/domain"
)

// PriceCache 基于 Redis 的标的最新价缓存
type PriceCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewPriceCache 创建价格缓存，ttl 与行情快照有效窗口一致
func NewPriceCache(client redis.UniversalClient, ttl time.Duration) *PriceCache {
	return &PriceCache{
		client: client,
		prefix: "cashflow:price:",
		ttl:    ttl,
	}
}

// GetPrice 读取标的最新价，未命中返回 (nil, nil)
func (c *PriceCache) GetPrice(ctx context.Context, symbol string) (*domain.PriceMark, error) {
	data, err := c.client.Get(ctx, c.prefix+symbol).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get price from redis: %w", err)
	}

	var mark domain.PriceMark
	if err := json.Unmarshal(data, &mark); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached price: %w", err)
	}
	return &mark, nil
}

// SetPrice 写入标的最新价
func (c *PriceCache) SetPrice(ctx context.Context, mark *domain.PriceMark) error {
	if mark == nil {
		return nil
	}
	data, err := json.Marshal(mark)
	if err != nil {
		return fmt.Errorf("failed to marshal price: %w", err)
	}
	return c.client.Set(ctx, c.prefix+mark.Symbol, data, c.ttl).Err()
}
