package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pageturn/bookclub-chat/internal/bus"
	"github.com/pageturn/bookclub-chat/internal/cache"
	"github.com/pageturn/bookclub-chat/internal/client"
	"github.com/pageturn/bookclub-chat/internal/hub"
	"github.com/pageturn/bookclub-chat/internal/storage"
	pkgconfig "github.com/pageturn/bookclub-chat/pkg/config"
	"github.com/pageturn/bookclub-chat/pkg/database"
	"github.com/pageturn/bookclub-chat/pkg/log"
)

type Config struct {
	Server    ServerConfig
	Database  database.Config
	Kafka     bus.Config
	Redis     cache.Config
	WebSocket hub.Config
	Auth      AuthConfig
	Identity  client.Config
	Storage   storage.Config
	History   HistoryConfig
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	Secret        string        `mapstructure:"secret"`
	Issuer        string        `mapstructure:"issuer"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime"`
}

type HistoryConfig struct {
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	AssetExpiry  time.Duration `mapstructure:"asset_expiry"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "bookclub.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.messages_topic", "chat-messages")
	v.SetDefault("kafka.events_topic", "room-events")
	v.SetDefault("kafka.group_id", "bookclub-chat")
	v.SetDefault("kafka.partitions", 8)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "chat:history")
	v.SetDefault("redis.ttl", "30s")
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 4096)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "bookclub")
	v.SetDefault("auth.token_lifetime", "24h")
	v.SetDefault("identity.base_url", "http://localhost:8081")
	v.SetDefault("identity.timeout", "3s")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/assets")
	v.SetDefault("history.default_limit", 50)
	v.SetDefault("history.max_limit", 100)
	v.SetDefault("history.cache_ttl", "30s")
	v.SetDefault("history.asset_expiry", "15m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "bookclub-chat")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.messages_topic", "KAFKA_MESSAGES_TOPIC")
	v.BindEnv("kafka.events_topic", "KAFKA_EVENTS_TOPIC")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("auth.secret", "AUTH_SECRET")
	v.BindEnv("identity.base_url", "IDENTITY_BASE_URL")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Redis.TTL = parseDuration(v, "redis.ttl", 30*time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Auth.TokenLifetime = parseDuration(v, "auth.token_lifetime", 24*time.Hour)
	cfg.Identity.Timeout = parseDuration(v, "identity.timeout", 3*time.Second)
	cfg.History.CacheTTL = parseDuration(v, "history.cache_ttl", 30*time.Second)
	cfg.History.AssetExpiry = parseDuration(v, "history.asset_expiry", 15*time.Minute)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
