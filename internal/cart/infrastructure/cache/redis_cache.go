package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/quickcart/internal/cart/domain"
)

const keyPrefix = "quickcart:cart:"

// RedisCartCache 实现了 domain.CartCache 的读缓存。
// 缓存只在成功写库后刷新，未命中一律回源。
type RedisCartCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Config Redis 缓存配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      int
}

// NewRedisCartCache 创建 Redis 购物车缓存并校验连通性
func NewRedisCartCache(ctx context.Context, cfg Config) (*RedisCartCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := time.Duration(cfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &RedisCartCache{client: client, ttl: ttl}, nil
}

// Get 读取缓存，未命中返回 (nil, nil)
func (c *RedisCartCache) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := c.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cart cache get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("cart cache decode failed: %w", err)
	}
	return &cart, nil
}

// Set 写入缓存
func (c *RedisCartCache) Set(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("cart cache encode failed: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+cart.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cart cache set failed: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接
func (c *RedisCartCache) Close() error {
	return c.client.Close()
}
