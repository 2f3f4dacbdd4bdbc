package domain

import "context"

// CartCache 购物车读缓存能力。Get 未命中时返回 (nil, nil)。
// 缓存失败不影响主流程，由调用方降级处理。
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Set(ctx context.Context, cart *Cart) error
}
