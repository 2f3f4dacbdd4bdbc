// Package mongodb 提供 MongoDB 连接初始化与健康检查
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wyfcoding/quickcart/pkg/logger"
)

// Config MongoDB 配置
type Config struct {
	URI         string
	Database    string
	ConnTimeout int
	MaxPoolSize int
}

// Connect 建立连接并返回数据库句柄
func Connect(ctx context.Context, cfg Config) (*mongo.Database, error) {
	if cfg.ConnTimeout <= 0 {
		cfg.ConnTimeout = 10
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = 100
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(time.Duration(cfg.ConnTimeout) * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize))

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info(ctx, "MongoDB connected successfully", "database", cfg.Database)
	return client.Database(cfg.Database), nil
}

// Disconnect 断开连接
func Disconnect(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return nil
	}
	return db.Client().Disconnect(ctx)
}
