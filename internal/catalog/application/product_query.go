package application

import (
	"context"
	"fmt"

	cartdomain "github.com/wyfcoding/quickcart/internal/cart/domain"
	"github.com/wyfcoding/quickcart/internal/catalog/domain"
)

// ProductQueryService 商品目录只读查询
type ProductQueryService struct {
	repo domain.ProductRepository
}

func NewProductQueryService(repo domain.ProductRepository) *ProductQueryService {
	return &ProductQueryService{repo: repo}
}

func (s *ProductQueryService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return products, nil
}

func (s *ProductQueryService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return product, nil
}

// CartLookupAdapter 把商品仓储适配成购物车上下文的价格查询端口。
type CartLookupAdapter struct {
	repo domain.ProductRepository
}

func NewCartLookupAdapter(repo domain.ProductRepository) *CartLookupAdapter {
	return &CartLookupAdapter{repo: repo}
}

func (a *CartLookupAdapter) FindByID(ctx context.Context, id string) (*cartdomain.ProductInfo, error) {
	product, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return &cartdomain.ProductInfo{ID: product.ID, Price: product.Price}, nil
}
