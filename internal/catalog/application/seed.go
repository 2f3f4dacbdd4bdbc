package application

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/wyfcoding/quickcart/internal/catalog/domain"
	"github.com/wyfcoding/quickcart/pkg/logger"
)

// SeedService 启动时用种子文件填充空的商品集合。集合非空时跳过。
type SeedService struct {
	repo domain.ProductRepository
}

func NewSeedService(repo domain.ProductRepository) *SeedService {
	return &SeedService{repo: repo}
}

func (s *SeedService) SeedFromFile(ctx context.Context, path string) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		logger.Info(ctx, "Product catalog already populated, skipping seed", "count", count)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var products []*domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}
	if len(products) == 0 {
		logger.Warn(ctx, "Seed file contains no products", "path", path)
		return nil
	}

	if err := s.repo.SaveAll(ctx, products); err != nil {
		return fmt.Errorf("failed to save seed products: %w", err)
	}
	logger.Info(ctx, "Product catalog seeded", "count", len(products))
	return nil
}
