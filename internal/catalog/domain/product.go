package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// Product 商品目录条目。价格为加购时刻快照的来源。
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	ImageURL    string
	Category    string
}

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"price"`
	Stock       int64           `json:"stock"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
}

// MarshalJSON 将价格编码为保留两位小数的 JSON 数字。
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.RawMessage(p.Price.StringFixed(2)),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
	})
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Stock       int64           `json:"stock"`
		ImageURL    string          `json:"imageUrl"`
		Category    string          `json:"category"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = raw.ID
	p.Name = raw.Name
	p.Description = raw.Description
	p.Price = raw.Price
	p.Stock = raw.Stock
	p.ImageURL = raw.ImageURL
	p.Category = raw.Category
	return nil
}

// ProductRepository 商品仓储接口。FindByID 未命中返回 (nil, nil)。
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	Count(ctx context.Context) (int64, error)
	SaveAll(ctx context.Context, products []*Product) error
}
