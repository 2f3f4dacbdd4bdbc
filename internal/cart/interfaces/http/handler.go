package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/quickcart/internal/cart/application"
	"github.com/wyfcoding/quickcart/internal/cart/domain"
	"github.com/wyfcoding/quickcart/pkg/logger"
)

// Handler 购物车 HTTP 接口，只做参数绑定和错误映射，不含业务逻辑
type Handler struct {
	cmd       *application.CartCommandService
	query     *application.CartQueryService
	streams   *application.StreamService
	heartbeat time.Duration
}

// NewHandler 创建购物车 HTTP 接口。heartbeat 为 0 时不发送心跳注释行。
func NewHandler(
	cmd *application.CartCommandService,
	query *application.CartQueryService,
	streams *application.StreamService,
	heartbeat time.Duration,
) *Handler {
	return &Handler{cmd: cmd, query: query, streams: streams, heartbeat: heartbeat}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/cart")
	g.PUT("/add", h.AddToCart)
	g.DELETE("/remove", h.RemoveFromCart)
	g.GET("/stream/:sessionId", h.StreamCart)
	g.GET("/:sessionId", h.GetCart)
}

// AddToCartRequest 加购请求体
type AddToCartRequest struct {
	SessionID string `json:"sessionId"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// RemoveFromCartRequest 移除请求体。quantity 缺省或 <= 0 表示整行删除。
type RemoveFromCartRequest struct {
	SessionID string `json:"sessionId"`
	ProductID string `json:"productId"`
	Quantity  *int64 `json:"quantity"`
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cart, err := h.cmd.AddToCart(c.Request.Context(), application.AddToCartCommand{
		SessionID: req.SessionID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.respondError(c, cart, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	var req RemoveFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cart, err := h.cmd.RemoveFromCart(c.Request.Context(), application.RemoveFromCartCommand{
		SessionID: req.SessionID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.respondError(c, cart, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) GetCart(c *gin.Context) {
	cart, err := h.query.GetCart(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.respondError(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// StreamCart 长连接 SSE 端点。句柄注册到订阅注册表，消费端写失败、
// 客户端断开、空闲超时三种退出都会注销句柄。
func (h *Handler) StreamCart(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if strings.TrimSpace(sessionID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "sessionId must not be empty"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // Disable Nginx buffering
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	emitter := h.streams.Open(sessionID)
	defer emitter.Complete()

	var heartbeat <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-emitter.Done():
			return
		case cart := <-emitter.Events():
			data, err := json.Marshal(cart)
			if err != nil {
				logger.Error(ctx, "Failed to encode cart for stream", "session_id", sessionID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(c.Writer, "event: cart-update\ndata: %s\n\n", data); err != nil {
				emitter.CompleteWithError(err)
				return
			}
			c.Writer.Flush()
			emitter.MarkActive()
		case <-heartbeat:
			if _, err := fmt.Fprint(c.Writer, ": heartbeat\n\n"); err != nil {
				emitter.CompleteWithError(err)
				return
			}
			c.Writer.Flush()
		}
	}
}

// respondError 将领域错误映射为 HTTP 状态码。cart 非 nil 且出错
// 说明保存成功但事件发布失败，购物车已持久化，客户端可轮询对账。
func (h *Handler) respondError(c *gin.Context, cart *domain.Cart, err error) {
	switch {
	case domain.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case cart != nil:
		c.JSON(http.StatusBadGateway, gin.H{"message": "cart saved but update event could not be published"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}
