package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/wyfcoding/quickcart/internal/cart/domain"
	"github.com/wyfcoding/quickcart/pkg/logger"
	"github.com/wyfcoding/quickcart/pkg/metrics"
)

// AddToCartCommand 加购命令
type AddToCartCommand struct {
	SessionID string
	ProductID string
	Quantity  int64
}

// RemoveFromCartCommand 移除命令。Quantity 为 nil 或 <= 0 表示整行删除。
type RemoveFromCartCommand struct {
	SessionID string
	ProductID string
	Quantity  *int64
}

// CartCommandService 购物车命令服务，所有购物车写入都经由这里
type CartCommandService struct {
	repo      domain.CartRepository
	products  domain.ProductLookup
	publisher domain.EventPublisher
	cache     domain.CartCache
	metrics   *metrics.Metrics
}

// NewCartCommandService 创建购物车命令服务实例。cache 和 m 可为 nil。
func NewCartCommandService(
	repo domain.CartRepository,
	products domain.ProductLookup,
	publisher domain.EventPublisher,
	cache domain.CartCache,
	m *metrics.Metrics,
) *CartCommandService {
	return &CartCommandService{
		repo:      repo,
		products:  products,
		publisher: publisher,
		cache:     cache,
		metrics:   m,
	}
}

func (s *CartCommandService) countMutation(operation string) {
	if s.metrics != nil {
		s.metrics.CartMutationsTotal.WithLabelValues(operation).Inc()
	}
}

// AddToCart 处理加购。商品不存在时返回 ErrProductNotFound，不落库不发事件。
// 事件发布失败时购物车已持久化，错误原样上抛，由调用方决定呈现方式。
func (s *CartCommandService) AddToCart(ctx context.Context, cmd AddToCartCommand) (*domain.Cart, error) {
	if err := validateIDs(cmd.SessionID, cmd.ProductID); err != nil {
		return nil, err
	}
	if cmd.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.findOrCreateCart(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product lookup failed: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, cmd.ProductID)
	}

	if err := cart.AddItem(cmd.ProductID, cmd.Quantity, product.Price); err != nil {
		return nil, err
	}
	cart.RecomputeTotal()

	s.countMutation("add")
	return s.saveAndPublish(ctx, cmd.SessionID, cart)
}

// RemoveFromCart 处理移除。购物车中没有该商品时原样返回，不落库不发事件。
func (s *CartCommandService) RemoveFromCart(ctx context.Context, cmd RemoveFromCartCommand) (*domain.Cart, error) {
	if err := validateIDs(cmd.SessionID, cmd.ProductID); err != nil {
		return nil, err
	}

	cart, err := s.findOrCreateCart(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}

	var qty int64
	if cmd.Quantity != nil {
		qty = *cmd.Quantity
	}
	if !cart.RemoveItem(cmd.ProductID, qty) {
		logger.Warn(ctx, "Item not found in cart, nothing to remove",
			"session_id", cmd.SessionID,
			"product_id", cmd.ProductID,
		)
		return cart, nil
	}
	cart.RecomputeTotal()

	s.countMutation("remove")
	return s.saveAndPublish(ctx, cmd.SessionID, cart)
}

func (s *CartCommandService) findOrCreateCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("cart load failed: %w", err)
	}
	if cart == nil {
		cart = domain.NewCart(sessionID)
	}
	return cart, nil
}

// saveAndPublish 先持久化再发布，事件始终携带 Save 返回的规范形态。
// 发布失败不回滚已保存的购物车。
func (s *CartCommandService) saveAndPublish(ctx context.Context, sessionID string, cart *domain.Cart) (*domain.Cart, error) {
	saved, err := s.repo.Save(ctx, cart)
	if err != nil {
		return nil, fmt.Errorf("cart save failed: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, saved); err != nil {
			logger.Warn(ctx, "Failed to refresh cart cache", "session_id", sessionID, "error", err)
		}
	}

	event := domain.CartUpdateEvent{SessionID: sessionID, Cart: saved}
	if err := s.publisher.PublishCartUpdate(ctx, event); err != nil {
		logger.Error(ctx, "Failed to publish cart update after save",
			"session_id", sessionID,
			"error", err,
		)
		return saved, fmt.Errorf("cart update publish failed: %w", err)
	}

	return saved, nil
}

func validateIDs(sessionID, productID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.ErrInvalidSession
	}
	if strings.TrimSpace(productID) == "" {
		return domain.ErrInvalidProduct
	}
	return nil
}
