// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/quickcart/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 购物车变更计数（add / remove）
	CartMutationsTotal *prometheus.CounterVec
	// 事件发布计数
	EventsPublishedTotal prometheus.Counter
	// 事件发布失败计数
	EventsPublishFailures prometheus.Counter
	// 事件消费计数
	EventsConsumedTotal prometheus.Counter

	// 活跃 SSE 流数量
	StreamsActive prometheus.Gauge
	// SSE 推送计数
	StreamPushesTotal prometheus.Counter
	// SSE 推送失败计数
	StreamPushFailures prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		CartMutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "cart_mutations_total",
			Help:      "Total cart mutations",
		}, []string{"operation"}),
		EventsPublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "events_published_total",
			Help:      "Total cart update events published",
		}),
		EventsPublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "events_publish_failures_total",
			Help:      "Total cart update event publish failures",
		}),
		EventsConsumedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "events_consumed_total",
			Help:      "Total cart update events consumed",
		}),

		StreamsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "streams_active",
			Help:      "Number of active SSE streams",
		}),
		StreamPushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "stream_pushes_total",
			Help:      "Total SSE pushes delivered",
		}),
		StreamPushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quickcart",
			Subsystem: serviceName,
			Name:      "stream_push_failures_total",
			Help:      "Total SSE pushes that killed a subscriber",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CartMutationsTotal,
		m.EventsPublishedTotal,
		m.EventsPublishFailures,
		m.EventsConsumedTotal,
		m.StreamsActive,
		m.StreamPushesTotal,
		m.StreamPushFailures,
	}

	for _, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()
}
