package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wyfcoding/quickcart/internal/cart/domain"
	"github.com/wyfcoding/quickcart/pkg/logger"
	"github.com/wyfcoding/quickcart/pkg/metrics"
)

var errStreamBufferFull = errors.New("stream push buffer full")

// Emitter 单个订阅者的流句柄。传输层持有句柄并消费 Events()，
// 注册表只保留集合成员资格，三种退出路径都会收敛到同一个注销入口。
type Emitter struct {
	sessionID string
	events    chan *domain.Cart
	touch     chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error

	service *StreamService
}

// SessionID 返回句柄所属的会话
func (e *Emitter) SessionID() string { return e.sessionID }

// Events 待推送的购物车快照，按投递顺序
func (e *Emitter) Events() <-chan *domain.Cart { return e.events }

// Done 句柄结束信号（正常完成、空闲超时或推送失败）
func (e *Emitter) Done() <-chan struct{} { return e.done }

// Err 结束原因。正常完成和空闲超时为 nil。
func (e *Emitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// MarkActive 重置空闲超时。传输层在每次成功写出后调用。
func (e *Emitter) MarkActive() {
	select {
	case e.touch <- struct{}{}:
	default:
	}
}

// Complete 正常完成（客户端断开）
func (e *Emitter) Complete() {
	e.complete(nil)
}

// CompleteWithError 推送失败后完成，句柄视为已死亡
func (e *Emitter) CompleteWithError(err error) {
	e.complete(err)
}

func (e *Emitter) complete(err error) {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.err = err
		e.mu.Unlock()
		close(e.done)
		e.service.unregister(e, err)
	})
}

// StreamService 订阅注册表：sessionId 到存活流句柄集合的映射。
// 推送不在锁内进行；慢消费者在第一次缓冲溢出时被移除。
type StreamService struct {
	mu       sync.RWMutex
	emitters map[string]map[*Emitter]struct{}

	idleTimeout time.Duration
	bufferSize  int
	metrics     *metrics.Metrics
}

// NewStreamService 创建订阅注册表。m 可为 nil。
func NewStreamService(idleTimeout time.Duration, bufferSize int, m *metrics.Metrics) *StreamService {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &StreamService{
		emitters:    make(map[string]map[*Emitter]struct{}),
		idleTimeout: idleTimeout,
		bufferSize:  bufferSize,
		metrics:     m,
	}
}

// Open 创建并注册一个流句柄，启动空闲超时看护
func (s *StreamService) Open(sessionID string) *Emitter {
	e := &Emitter{
		sessionID: sessionID,
		events:    make(chan *domain.Cart, s.bufferSize),
		touch:     make(chan struct{}, 1),
		done:      make(chan struct{}),
		service:   s,
	}

	s.mu.Lock()
	set, ok := s.emitters[sessionID]
	if !ok {
		set = make(map[*Emitter]struct{})
		s.emitters[sessionID] = set
	}
	set[e] = struct{}{}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.StreamsActive.Inc()
	}

	go s.watchIdle(e)

	logger.Debug(context.Background(), "Stream opened", "session_id", sessionID)
	return e
}

// watchIdle 在 idleTimeout 内没有任何成功推送时正常完成句柄
func (s *StreamService) watchIdle(e *Emitter) {
	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-e.touch:
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.idleTimeout)
		case <-idle.C:
			logger.Debug(context.Background(), "Stream idle timeout", "session_id", e.sessionID)
			e.complete(nil)
			return
		}
	}
}

// HandleCartUpdate 将事件扇出到会话的每一个存活句柄。
// 集合在锁内拷贝快照，推送本身不持锁；派发期间新加入的句柄
// 可能错过本条事件，但一定能收到后续事件。
func (s *StreamService) HandleCartUpdate(ctx context.Context, event domain.CartUpdateEvent) {
	if event.Cart == nil {
		return
	}

	s.mu.RLock()
	set := s.emitters[event.SessionID]
	snapshot := make([]*Emitter, 0, len(set))
	for e := range set {
		snapshot = append(snapshot, e)
	}
	s.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	for _, e := range snapshot {
		select {
		case <-e.done:
			// 已经结束，跳过
		case e.events <- event.Cart:
			if s.metrics != nil {
				s.metrics.StreamPushesTotal.Inc()
			}
		default:
			// 缓冲写满说明消费者已经跟不上或连接已死，直接判死
			logger.Warn(ctx, "Stream push buffer full, dropping subscriber",
				"session_id", event.SessionID,
			)
			e.complete(errStreamBufferFull)
		}
	}
}

// SessionStreamCount 返回某会话当前存活句柄数（测试与观测用）
func (s *StreamService) SessionStreamCount(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.emitters[sessionID])
}

// unregister 唯一的注销入口，最后一个句柄移除后连同 key 一起清掉
func (s *StreamService) unregister(e *Emitter, cause error) {
	s.mu.Lock()
	if set, ok := s.emitters[e.sessionID]; ok {
		delete(set, e)
		if len(set) == 0 {
			delete(s.emitters, e.sessionID)
		}
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.StreamsActive.Dec()
		if cause != nil {
			s.metrics.StreamPushFailures.Inc()
		}
	}

	logger.Debug(context.Background(), "Stream unregistered",
		"session_id", e.sessionID,
		"cause", cause,
	)
}
