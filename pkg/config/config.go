// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// MongoDB 配置
	Mongo MongoConfig `mapstructure:"mongo"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// 购物车配置
	Cart CartConfig `mapstructure:"cart"`
	// SSE 流配置
	Stream StreamConfig `mapstructure:"stream"`
	// CORS 配置
	CORS CORSConfig `mapstructure:"cors"`
	// 限流配置
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host" default:"0.0.0.0"`
	// 监听端口
	Port int `mapstructure:"port" default:"8080"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"30"`
	// 写超时（秒），0 表示不限制（SSE 长连接需要）
	WriteTimeout int `mapstructure:"write_timeout" default:"0"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	// 连接 URI
	URI string `mapstructure:"uri" default:"mongodb://localhost:27017"`
	// 数据库名
	Database string `mapstructure:"database" default:"quickcart"`
	// 连接超时（秒）
	ConnTimeout int `mapstructure:"conn_timeout" default:"10"`
	// 最大连接池大小
	MaxPoolSize int `mapstructure:"max_pool_size" default:"100"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// Consumer Group ID
	GroupID string `mapstructure:"group_id"`
	// 最大重试次数
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// 重试退避（毫秒）
	RetryBackoff int `mapstructure:"retry_backoff" default:"100"`
	// 消费者会话超时（秒）
	SessionTimeout int `mapstructure:"session_timeout" default:"10"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用购物车缓存
	Enabled bool `mapstructure:"enabled" default:"false"`
	// 主机地址
	Host string `mapstructure:"host" default:"localhost"`
	// 端口
	Port int `mapstructure:"port" default:"6379"`
	// 密码
	Password string `mapstructure:"password"`
	// 数据库编号
	DB int `mapstructure:"db" default:"0"`
	// 缓存过期（秒）
	TTL int `mapstructure:"ttl" default:"300"`
}

// CartConfig 购物车配置
type CartConfig struct {
	// 购物车更新事件主题
	Topic string `mapstructure:"topic" default:"cart-updates"`
}

// StreamConfig SSE 流配置
type StreamConfig struct {
	// 空闲超时（毫秒）
	IdleTimeoutMs int `mapstructure:"idle_timeout_ms" default:"30000"`
	// 心跳间隔（毫秒），0 表示不发送心跳
	HeartbeatMs int `mapstructure:"heartbeat_ms" default:"15000"`
	// 每个流句柄的发送缓冲大小
	BufferSize int `mapstructure:"buffer_size" default:"16"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	// 允许的来源
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"false"`
	// 令牌桶容量
	MaxTokens float64 `mapstructure:"max_tokens" default:"100"`
	// 每秒补充令牌数
	RefillRate float64 `mapstructure:"refill_rate" default:"50"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level" default:"info"`
	// 输出格式
	Format string `mapstructure:"format" default:"json"`
	// 输出目标
	Output string `mapstructure:"output" default:"stdout"`
	// 文件路径
	FilePath string `mapstructure:"file_path" default:"logs/quickcart.log"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size" default:"100"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups" default:"10"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age" default:"30"`
	// 是否压缩
	Compress bool `mapstructure:"compress" default:"true"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller" default:"false"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Prometheus 监听端口
	Port int `mapstructure:"port" default:"9090"`
	// 指标路径
	Path string `mapstructure:"path" default:"/metrics"`
}

// Load 从 TOML 文件加载配置，使用默认值，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo URI is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database is required")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	if c.Cart.Topic == "" {
		return fmt.Errorf("cart topic is required")
	}
	if c.Stream.IdleTimeoutMs <= 0 {
		return fmt.Errorf("invalid stream idle timeout: %d", c.Stream.IdleTimeoutMs)
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 0)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "quickcart")
	v.SetDefault("mongo.conn_timeout", 10)
	v.SetDefault("mongo.max_pool_size", 100)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "quickcart")
	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)
	v.SetDefault("kafka.session_timeout", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 300)

	v.SetDefault("cart.topic", "cart-updates")

	v.SetDefault("stream.idle_timeout_ms", 30000)
	v.SetDefault("stream.heartbeat_ms", 15000)
	v.SetDefault("stream.buffer_size", 16)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:5174"})

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.max_tokens", 100)
	v.SetDefault("ratelimit.refill_rate", 50)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/quickcart.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
