package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wyfcoding/quickcart/internal/cart/domain"
)

// cartPO carts 集合存储形态，金额以 decimal 字符串落库避免浮点误差
type cartPO struct {
	ID          string       `bson:"_id"`
	Items       []cartItemPO `bson:"items"`
	TotalAmount string       `bson:"total_amount"`
	LastUpdated time.Time    `bson:"last_updated"`
}

type cartItemPO struct {
	ProductID  string `bson:"product_id"`
	Quantity   int64  `bson:"quantity"`
	PriceAtAdd string `bson:"price_at_add"`
}

func toCartPO(cart *domain.Cart) *cartPO {
	items := make([]cartItemPO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, cartItemPO{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceAtAdd: item.PriceAtAdd.String(),
		})
	}
	return &cartPO{
		ID:          cart.ID,
		Items:       items,
		TotalAmount: cart.TotalAmount.String(),
		LastUpdated: cart.LastUpdated,
	}
}

func (po *cartPO) toDomain() (*domain.Cart, error) {
	total, err := decimal.NewFromString(po.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("corrupt total_amount %q: %w", po.TotalAmount, err)
	}
	items := make([]domain.CartItem, 0, len(po.Items))
	for _, item := range po.Items {
		price, err := decimal.NewFromString(item.PriceAtAdd)
		if err != nil {
			return nil, fmt.Errorf("corrupt price_at_add %q: %w", item.PriceAtAdd, err)
		}
		items = append(items, domain.CartItem{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceAtAdd: price,
		})
	}
	return &domain.Cart{
		ID:          po.ID,
		Items:       items,
		TotalAmount: total,
		LastUpdated: po.LastUpdated,
	}, nil
}

// CartRepository carts 集合仓储实现
type CartRepository struct {
	collection *mongo.Collection
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{collection: db.Collection("carts")}
}

// FindByID 按 sessionId 查询，未命中返回 (nil, nil)
func (r *CartRepository) FindByID(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var po cartPO
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&po)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return po.toDomain()
}

// Save 按 _id upsert 并返回存储形态
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	po := toCartPO(cart)

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": po.ID}, po, opts); err != nil {
		return nil, fmt.Errorf("failed to upsert cart: %w", err)
	}

	return po.toDomain()
}
