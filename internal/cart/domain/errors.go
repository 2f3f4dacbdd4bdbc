package domain

import "errors"

var (
	// ErrInvalidSession sessionId 为空
	ErrInvalidSession = errors.New("sessionId must not be empty")
	// ErrInvalidProduct productId 为空
	ErrInvalidProduct = errors.New("productId must not be empty")
	// ErrInvalidQuantity 数量非法（加购数量必须 >= 1）
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrQuantityOverflow 数量累加溢出
	ErrQuantityOverflow = errors.New("quantity overflow")
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
)

// IsInvalidInput 判断错误是否属于输入校验类错误
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidSession) ||
		errors.Is(err, ErrInvalidProduct) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrQuantityOverflow)
}
