package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/wyfcoding/quickcart/internal/cart/domain"
	"github.com/wyfcoding/quickcart/pkg/logger"
)

// CartQueryService 购物车查询服务。只读，不落库也不发事件。
type CartQueryService struct {
	repo  domain.CartRepository
	cache domain.CartCache
}

// NewCartQueryService 创建购物车查询服务实例。cache 可为 nil。
func NewCartQueryService(repo domain.CartRepository, cache domain.CartCache) *CartQueryService {
	return &CartQueryService{repo: repo, cache: cache}
}

// GetCart 返回持久化的购物车；不存在时返回临时空购物车，不做任何写入。
func (s *CartQueryService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrInvalidSession
	}

	if s.cache != nil {
		cart, err := s.cache.Get(ctx, sessionID)
		if err != nil {
			logger.Warn(ctx, "Cart cache read failed, falling back to store", "session_id", sessionID, "error", err)
		} else if cart != nil {
			return cart, nil
		}
	}

	cart, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("cart load failed: %w", err)
	}
	if cart == nil {
		return domain.NewCart(sessionID), nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cart); err != nil {
			logger.Warn(ctx, "Failed to refresh cart cache", "session_id", sessionID, "error", err)
		}
	}

	return cart, nil
}
