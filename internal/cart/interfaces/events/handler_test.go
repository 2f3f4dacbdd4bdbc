package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/quickcart/internal/cart/application"
	"github.com/wyfcoding/quickcart/pkg/mq"
)

type stubReader struct {
	messages []*mq.Message
	pos      int
}

func (s *stubReader) ReadMessage(ctx context.Context) (*mq.Message, error) {
	if s.pos >= len(s.messages) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	msg := s.messages[s.pos]
	s.pos++
	return msg, nil
}

func TestConsumerDispatchesToStreams(t *testing.T) {
	streams := application.NewStreamService(time.Minute, 4, nil)
	emitter := streams.Open("sess-1")
	defer emitter.Complete()

	reader := &stubReader{messages: []*mq.Message{
		{Key: "sess-1", Value: []byte(`{"sessionId":"sess-1","cart":{"id":"sess-1","items":[],"totalAmount":0.00,"lastUpdated":"2026-09-01T00:00:00Z"}}`)},
	}}
	consumer := NewCartUpdateConsumer(reader, streams, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.Run(ctx)
	}()

	select {
	case cart := <-emitter.Events():
		assert.Equal(t, "sess-1", cart.ID)
	case <-time.After(time.Second):
		t.Fatal("event was not dispatched to the stream handle")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on context cancellation")
	}
}

func TestConsumerSkipsMalformedPayload(t *testing.T) {
	streams := application.NewStreamService(time.Minute, 4, nil)
	emitter := streams.Open("sess-1")
	defer emitter.Complete()

	reader := &stubReader{messages: []*mq.Message{
		{Key: "sess-1", Value: []byte(`{broken`)},
		{Key: "sess-1", Value: []byte(`{"sessionId":"sess-1","cart":{"id":"sess-1","items":[],"totalAmount":0.00,"lastUpdated":"2026-09-01T00:00:00Z"}}`)},
	}}
	consumer := NewCartUpdateConsumer(reader, streams, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumer.Run(ctx)

	// 坏消息被跳过，后续消息照常投递
	select {
	case cart := <-emitter.Events():
		require.Equal(t, "sess-1", cart.ID)
	case <-time.After(time.Second):
		t.Fatal("consumer stopped on a malformed message")
	}
}
