package mongodb

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wyfcoding/quickcart/internal/catalog/domain"
)

type productPO struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description"`
	Price       string `bson:"price"`
	Stock       int64  `bson:"stock"`
	ImageURL    string `bson:"image_url"`
	Category    string `bson:"category"`
}

func toProductPO(p *domain.Product) *productPO {
	return &productPO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
	}
}

func (po *productPO) toDomain() (*domain.Product, error) {
	price, err := decimal.NewFromString(po.Price)
	if err != nil {
		return nil, fmt.Errorf("corrupt price for product %s: %w", po.ID, err)
	}
	return &domain.Product{
		ID:          po.ID,
		Name:        po.Name,
		Description: po.Description,
		Price:       price,
		Stock:       po.Stock,
		ImageURL:    po.ImageURL,
		Category:    po.Category,
	}, nil
}

// ProductRepository 基于 MongoDB 的商品仓储实现
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection("products")}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var po productPO
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&po)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product %s: %w", id, err)
	}
	return po.toDomain()
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var po productPO
		if err := cursor.Decode(&po); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		product, err := po.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("product cursor error: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *ProductRepository) SaveAll(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		docs = append(docs, toProductPO(p))
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}
	return nil
}
