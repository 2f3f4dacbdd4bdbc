// QuickCart 主程序
// 功能：购物车服务，包括购物车变更、商品目录、注册登录与购物车更新事件实时推送
// 架构：基于 DDD + Gin + MongoDB + Kafka + SSE
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authapp "github.com/wyfcoding/quickcart/internal/auth/application"
	authmongo "github.com/wyfcoding/quickcart/internal/auth/infrastructure/persistence/mongodb"
	authhttp "github.com/wyfcoding/quickcart/internal/auth/interfaces/http"
	cartapp "github.com/wyfcoding/quickcart/internal/cart/application"
	"github.com/wyfcoding/quickcart/internal/cart/domain"
	cartcache "github.com/wyfcoding/quickcart/internal/cart/infrastructure/cache"
	"github.com/wyfcoding/quickcart/internal/cart/infrastructure/messaging"
	cartmongo "github.com/wyfcoding/quickcart/internal/cart/infrastructure/persistence/mongodb"
	cartevents "github.com/wyfcoding/quickcart/internal/cart/interfaces/events"
	carthttp "github.com/wyfcoding/quickcart/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/quickcart/internal/catalog/application"
	catalogmongo "github.com/wyfcoding/quickcart/internal/catalog/infrastructure/persistence/mongodb"
	cataloghttp "github.com/wyfcoding/quickcart/internal/catalog/interfaces/http"
	"github.com/wyfcoding/quickcart/pkg/config"
	"github.com/wyfcoding/quickcart/pkg/logger"
	"github.com/wyfcoding/quickcart/pkg/metrics"
	"github.com/wyfcoding/quickcart/pkg/middleware"
	"github.com/wyfcoding/quickcart/pkg/mongodb"
	"github.com/wyfcoding/quickcart/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	seedPath := flag.String("seed", "configs/products.json", "path to product seed file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting QuickCart",
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)

	// 3. 初始化指标
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.ServiceName)
		if err := m.Register(); err != nil {
			logger.Error(ctx, "Failed to register metrics", "error", err)
		}
		metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 4. 初始化 MongoDB
	connCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Mongo.ConnTimeout)*time.Second)
	db, err := mongodb.Connect(connCtx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		ConnTimeout: cfg.Mongo.ConnTimeout,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	cancel()
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to MongoDB", "error", err)
	}
	defer func() {
		if err := mongodb.Disconnect(context.Background(), db); err != nil {
			logger.Error(ctx, "Failed to disconnect MongoDB", "error", err)
		}
	}()

	// 5. 初始化 Kafka
	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
		SessionTimeout: cfg.Kafka.SessionTimeout,
	}
	producer, err := mq.NewProducer(kafkaCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to create Kafka producer", "error", err)
	}
	defer producer.Close()

	consumer, err := mq.NewConsumer(kafkaCfg, cfg.Cart.Topic)
	if err != nil {
		logger.Fatal(ctx, "Failed to create Kafka consumer", "error", err)
	}
	defer consumer.Close()

	// 6. 初始化 Redis 购物车缓存（可选）
	var cache domain.CartCache
	if cfg.Redis.Enabled {
		redisCache, err := cartcache.NewRedisCartCache(ctx, cartcache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to connect to Redis", "error", err)
		}
		defer redisCache.Close()
		cache = redisCache
	}

	// 7. 初始化仓储
	cartRepo := cartmongo.NewCartRepository(db)
	productRepo := catalogmongo.NewProductRepository(db)
	userRepo := authmongo.NewUserRepository(db)

	// 8. 填充商品目录
	seeder := catalogapp.NewSeedService(productRepo)
	if err := seeder.SeedFromFile(ctx, *seedPath); err != nil {
		logger.Error(ctx, "Failed to seed product catalog", "error", err)
	}

	// 9. 初始化应用服务
	publisher := messaging.NewKafkaPublisher(producer, cfg.Cart.Topic, m)
	productLookup := catalogapp.NewCartLookupAdapter(productRepo)
	cartCommands := cartapp.NewCartCommandService(cartRepo, productLookup, publisher, cache, m)
	cartQueries := cartapp.NewCartQueryService(cartRepo, cache)
	streams := cartapp.NewStreamService(
		time.Duration(cfg.Stream.IdleTimeoutMs)*time.Millisecond,
		cfg.Stream.BufferSize,
		m,
	)
	productQueries := catalogapp.NewProductQueryService(productRepo)
	authService := authapp.NewAuthService(userRepo)

	// 10. 启动事件消费者
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	updateConsumer := cartevents.NewCartUpdateConsumer(consumer, streams, m)
	go updateConsumer.Run(consumerCtx)

	// 11. 初始化 HTTP 服务
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.GinRecoveryMiddleware())
	engine.Use(middleware.GinLoggingMiddleware())
	if m != nil {
		engine.Use(middleware.GinMetricsMiddleware(m))
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.MaxTokens, cfg.RateLimit.RefillRate)
		engine.Use(middleware.GinRateLimitMiddleware(limiter))
	}

	api := engine.Group("/api")
	carthttp.NewHandler(cartCommands, cartQueries, streams,
		time.Duration(cfg.Stream.HeartbeatMs)*time.Millisecond).RegisterRoutes(api)
	cataloghttp.NewHandler(productQueries).RegisterRoutes(api)
	authhttp.NewHandler(authService).RegisterRoutes(api)

	// WriteTimeout 必须为 0，SSE 长连接不允许服务端写超时
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:     engine,
		ReadTimeout: time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
	}
	if cfg.HTTP.WriteTimeout > 0 {
		httpServer.WriteTimeout = time.Duration(cfg.HTTP.WriteTimeout) * time.Second
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	// 12. 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down QuickCart")

	stopConsumer()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown failed", "error", err)
	}

	logger.Info(ctx, "QuickCart stopped")
}
