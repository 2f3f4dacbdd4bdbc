package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/quickcart/internal/catalog/application"
	"github.com/wyfcoding/quickcart/internal/catalog/domain"
)

// Handler 商品目录 HTTP 接口
type Handler struct {
	query *application.ProductQueryService
}

func NewHandler(query *application.ProductQueryService) *Handler {
	return &Handler{query: query}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/products")
	g.GET("", h.ListProducts)
	g.GET("/:id", h.GetProduct)
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.query.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.query.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}
