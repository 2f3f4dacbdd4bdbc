package messaging

import (
	"context"

	"github.com/wyfcoding/quickcart/internal/cart/domain"
	"github.com/wyfcoding/quickcart/pkg/metrics"
	"github.com/wyfcoding/quickcart/pkg/mq"
)

// KafkaPublisher 实现了 domain.EventPublisher，按 sessionId 作为消息 key
// 发布到购物车更新主题，保证同一会话的事件按 Save 顺序投递。
type KafkaPublisher struct {
	producer *mq.KafkaProducer
	topic    string
	metrics  *metrics.Metrics
}

// NewKafkaPublisher 创建 Kafka 事件发布器。m 可为 nil。
func NewKafkaPublisher(producer *mq.KafkaProducer, topic string, m *metrics.Metrics) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		metrics:  m,
	}
}

// PublishCartUpdate 发布购物车更新事件
func (p *KafkaPublisher) PublishCartUpdate(ctx context.Context, event domain.CartUpdateEvent) error {
	if err := p.producer.SendMessage(ctx, p.topic, event.SessionID, event); err != nil {
		if p.metrics != nil {
			p.metrics.EventsPublishFailures.Inc()
		}
		return err
	}
	if p.metrics != nil {
		p.metrics.EventsPublishedTotal.Inc()
	}
	return nil
}
