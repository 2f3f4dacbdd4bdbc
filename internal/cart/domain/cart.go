package domain

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Cart 购物车聚合根，ID 即 sessionId
type Cart struct {
	ID          string
	Items       []CartItem
	TotalAmount decimal.Decimal
	LastUpdated time.Time
}

// CartItem 购物车条目，PriceAtAdd 为首次加入时的商品价格，之后不再刷新
type CartItem struct {
	ProductID  string
	Quantity   int64
	PriceAtAdd decimal.Decimal
}

// NewCart 创建空购物车
func NewCart(sessionID string) *Cart {
	return &Cart{
		ID:          sessionID,
		Items:       []CartItem{},
		TotalAmount: decimal.Zero,
		LastUpdated: time.Now(),
	}
}

func (c *Cart) findItem(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// HasItem 判断是否存在指定商品的条目
func (c *Cart) HasItem(productID string) bool {
	return c.findItem(productID) >= 0
}

// AddItem 合并或追加条目。同一 productID 只保留一行：已存在时累加数量，
// PriceAtAdd 保持首次加入时的值；不存在时按当前价格追加新行。
func (c *Cart) AddItem(productID string, qty int64, price decimal.Decimal) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if i := c.findItem(productID); i >= 0 {
		if c.Items[i].Quantity > math.MaxInt64-qty {
			return ErrQuantityOverflow
		}
		c.Items[i].Quantity += qty
		return nil
	}
	c.Items = append(c.Items, CartItem{
		ProductID:  productID,
		Quantity:   qty,
		PriceAtAdd: price,
	})
	return nil
}

// RemoveItem 移除或减少条目。qty <= 0 表示整行删除；减到 0 及以下也整行删除。
// 返回 false 表示购物车中没有该商品，调用方不应持久化也不应发布事件。
func (c *Cart) RemoveItem(productID string, qty int64) bool {
	i := c.findItem(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 || c.Items[i].Quantity-qty <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity -= qty
	return true
}

// RecomputeTotal 重算总额并刷新 LastUpdated。总额严格等于 Σ priceAtAdd * quantity，
// 乘法引入额外小数位时按银行家舍入收敛到两位。
func (c *Cart) RecomputeTotal() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.PriceAtAdd.Mul(decimal.NewFromInt(item.Quantity)))
	}
	c.TotalAmount = total.RoundBank(2)
	c.LastUpdated = time.Now()
}

// cartJSON 对外 JSON 形态，金额按两位小数的数值输出
type cartJSON struct {
	ID          string          `json:"id"`
	Items       []CartItem      `json:"items"`
	TotalAmount json.RawMessage `json:"totalAmount"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

type cartItemJSON struct {
	ProductID  string          `json:"productId"`
	Quantity   int64           `json:"quantity"`
	PriceAtAdd json.RawMessage `json:"priceAtAdd"`
}

func (i CartItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(cartItemJSON{
		ProductID:  i.ProductID,
		Quantity:   i.Quantity,
		PriceAtAdd: json.RawMessage(i.PriceAtAdd.StringFixed(2)),
	})
}

func (i *CartItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID  string          `json:"productId"`
		Quantity   int64           `json:"quantity"`
		PriceAtAdd decimal.Decimal `json:"priceAtAdd"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.ProductID = raw.ProductID
	i.Quantity = raw.Quantity
	i.PriceAtAdd = raw.PriceAtAdd
	return nil
}

func (c Cart) MarshalJSON() ([]byte, error) {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}
	return json.Marshal(cartJSON{
		ID:          c.ID,
		Items:       items,
		TotalAmount: json.RawMessage(c.TotalAmount.StringFixed(2)),
		LastUpdated: c.LastUpdated,
	})
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string          `json:"id"`
		Items       []CartItem      `json:"items"`
		TotalAmount decimal.Decimal `json:"totalAmount"`
		LastUpdated time.Time       `json:"lastUpdated"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.ID = raw.ID
	c.Items = raw.Items
	c.TotalAmount = raw.TotalAmount
	c.LastUpdated = raw.LastUpdated
	return nil
}
