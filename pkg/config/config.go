package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Chat     ChatConfig
	Chatbot  ChatbotConfig
	Broker   BrokerConfig
	Requests RequestsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs the catalog and dashboard cache.
type CacheConfig struct {
	Enabled    bool
	CatalogTTL time.Duration
	Namespace  string
}

// ChatConfig configures the support chat realtime channel.
type ChatConfig struct {
	ChannelPrefix string
}

// ChatbotConfig points the AI relay at an OpenAI-compatible completion endpoint.
type ChatbotConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	HistorySize int
}

// BrokerConfig enables publishing of notification events to RabbitMQ.
type BrokerConfig struct {
	URL   string
	Queue string
}

// RequestsConfig toggles enrollment side effects of approved drop/swap requests.
type RequestsConfig struct {
	ApplyDropSwap bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CATALOG_CACHE"),
		CatalogTTL: parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
		Namespace:  v.GetString("CACHE_NAMESPACE"),
	}

	cfg.Chat = ChatConfig{
		ChannelPrefix: v.GetString("CHAT_CHANNEL_PREFIX"),
	}

	cfg.Chatbot = ChatbotConfig{
		BaseURL:     strings.TrimRight(v.GetString("CHATBOT_BASE_URL"), "/"),
		APIKey:      v.GetString("OPENAI_API_KEY"),
		Model:       v.GetString("CHATBOT_MODEL"),
		MaxTokens:   v.GetInt("CHATBOT_MAX_TOKENS"),
		Temperature: v.GetFloat64("CHATBOT_TEMPERATURE"),
		Timeout:     parseDuration(v.GetString("CHATBOT_TIMEOUT"), 30*time.Second),
		HistorySize: v.GetInt("CHATBOT_HISTORY_SIZE"),
	}

	cfg.Broker = BrokerConfig{
		URL:   v.GetString("AMQP_URL"),
		Queue: v.GetString("AMQP_NOTIFICATION_QUEUE"),
	}

	cfg.Requests = RequestsConfig{
		ApplyDropSwap: v.GetBool("REQUESTS_APPLY_DROP_SWAP"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_registration")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "uni-registration-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CATALOG_CACHE", true)
	v.SetDefault("CATALOG_CACHE_TTL", "10m")
	v.SetDefault("CACHE_NAMESPACE", "uni")

	v.SetDefault("CHAT_CHANNEL_PREFIX", "chat_messages")

	v.SetDefault("CHATBOT_BASE_URL", "https://api.openai.com")
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("CHATBOT_MODEL", "gpt-3.5-turbo")
	v.SetDefault("CHATBOT_MAX_TOKENS", 500)
	v.SetDefault("CHATBOT_TEMPERATURE", 0.7)
	v.SetDefault("CHATBOT_TIMEOUT", "30s")
	v.SetDefault("CHATBOT_HISTORY_SIZE", 5)

	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_NOTIFICATION_QUEUE", "notifications.broadcast")

	v.SetDefault("REQUESTS_APPLY_DROP_SWAP", false)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
