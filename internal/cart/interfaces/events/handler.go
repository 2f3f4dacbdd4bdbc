package events

import (
	"context"
	"time"

	"github.com/wyfcoding/quickcart/internal/cart/application"
	"github.com/wyfcoding/quickcart/internal/cart/domain"
	"github.com/wyfcoding/quickcart/pkg/logger"
	"github.com/wyfcoding/quickcart/pkg/metrics"
	"github.com/wyfcoding/quickcart/pkg/mq"
)

const readErrBackoff = time.Second

// MessageReader 是消费循环对 pkg/mq 消费者的最小依赖
type MessageReader interface {
	ReadMessage(ctx context.Context) (*mq.Message, error)
}

// CartUpdateConsumer 消费 cart-updates 主题并把事件分发给流订阅注册表。
type CartUpdateConsumer struct {
	consumer MessageReader
	streams  *application.StreamService
	metrics  *metrics.Metrics
}

func NewCartUpdateConsumer(consumer MessageReader, streams *application.StreamService, m *metrics.Metrics) *CartUpdateConsumer {
	return &CartUpdateConsumer{consumer: consumer, streams: streams, metrics: m}
}

// Run 阻塞消费循环，ctx 取消后返回。格式错误的消息记录后跳过，不中断消费。
func (h *CartUpdateConsumer) Run(ctx context.Context) {
	logger.Info(ctx, "Cart update consumer started")
	for {
		msg, err := h.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Cart update consumer stopped")
				return
			}
			logger.Error(ctx, "Failed to read cart update message", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(readErrBackoff):
			}
			continue
		}

		var event domain.CartUpdateEvent
		if err := msg.UnmarshalPayload(&event); err != nil {
			logger.Error(ctx, "Failed to decode cart update event",
				"partition", msg.Partition, "offset", msg.Offset, "error", err)
			continue
		}

		if h.metrics != nil {
			h.metrics.EventsConsumedTotal.Inc()
		}
		h.streams.HandleCartUpdate(ctx, event)
	}
}
