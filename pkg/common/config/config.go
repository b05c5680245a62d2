package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort   string
	ServerHost   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Reddit
	RedditUsername     string
	RedditPassword     string
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	RedditBaseURL      string
	RedditTokenURL     string

	// LLM
	LLMAPIKey    string
	LLMBaseURL   string
	LLMModelName string

	// Scanner
	Subreddits       []string
	PostScanLimit    int
	ScanInterval     time.Duration
	DeliveryMode     string // direct or deferred
	StyleProfilePath string

	// Redis (ledger / success log blobs)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	LedgerBlobKey string
	SuccessLogKey string

	// Kafka (deferred delivery queue)
	KafkaBrokers      []string
	KafkaGroupID      string
	DeliveryTopic     string
	ConsumerBatchSize int
	ConsumerBatchWait time.Duration

	// Postgres (optional run history)
	RunHistoryEnabled bool
	PostgresHost      string
	PostgresPort      string
	PostgresUser      string
	PostgresPassword  string
	PostgresDB        string
	PostgresSSLMode   string
}

func Load() *Config {
	return &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),

		RedditUsername:     getEnv("REDDIT_USERNAME", ""),
		RedditPassword:     getEnv("REDDIT_PASSWORD", ""),
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		RedditUserAgent:    getEnv("REDDIT_USER_AGENT", "artscout/1.0"),
		RedditBaseURL:      getEnv("REDDIT_BASE_URL", "https://oauth.reddit.com"),
		RedditTokenURL:     getEnv("REDDIT_TOKEN_URL", "https://www.reddit.com/api/v1/access_token"),

		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMModelName: getEnv("LLM_MODEL_NAME", "gpt-4o-mini"),

		Subreddits:       getStringSliceEnv("SUBREDDITS", []string{"testingground4bots"}),
		PostScanLimit:    getIntEnv("POST_SCAN_LIMIT", 25),
		ScanInterval:     getDuration("SCAN_INTERVAL", 0),
		DeliveryMode:     getEnv("DELIVERY_MODE", "deferred"),
		StyleProfilePath: getEnv("STYLE_PROFILE_PATH", ""),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		LedgerBlobKey: getEnv("LEDGER_BLOB_KEY", "artscout:processed_posts_log"),
		SuccessLogKey: getEnv("SUCCESS_LOG_BLOB_KEY", "artscout:successful_replies_log"),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "artscout-reply"),
		DeliveryTopic:     getEnv("DELIVERY_TOPIC", ""),
		ConsumerBatchSize: getIntEnv("CONSUMER_BATCH_SIZE", 10),
		ConsumerBatchWait: getDuration("CONSUMER_BATCH_WAIT", 2*time.Second),

		RunHistoryEnabled: getBoolEnv("RUN_HISTORY_ENABLED", false),
		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:      getEnv("POSTGRES_USER", "artscout"),
		PostgresPassword:  getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:        getEnv("POSTGRES_DB", "artscout"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
