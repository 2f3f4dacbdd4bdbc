package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CartRepository 购物车存储能力。FindByID 未命中时返回 (nil, nil)。
type CartRepository interface {
	FindByID(ctx context.Context, sessionID string) (*Cart, error)
	// Save 保存并返回规范化后的存储形态
	Save(ctx context.Context, cart *Cart) (*Cart, error)
}

// ProductInfo 购物车上下文需要的商品视图
type ProductInfo struct {
	ID    string
	Price decimal.Decimal
}

// ProductLookup 商品查询能力。未命中时返回 (nil, nil)。
type ProductLookup interface {
	FindByID(ctx context.Context, productID string) (*ProductInfo, error)
}

// EventPublisher 购物车事件发布能力
type EventPublisher interface {
	PublishCartUpdate(ctx context.Context, event CartUpdateEvent) error
}
