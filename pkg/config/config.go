package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Webhook   WebhookConfig
	Vector    VectorConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// StorageConfig points at the external REST storage collaborator
// (PostgREST-style endpoint authenticated with a service key).
type StorageConfig struct {
	URL        string
	ServiceKey string
	TimeoutSec int
}

// WebhookConfig describes the external chat workflow endpoint. ErrorSignature
// is the substring used to detect a degraded workflow reply inside a 2xx
// response; it tracks the workflow's current canned apology wording and is
// a heuristic, not a contract.
type WebhookConfig struct {
	URL            string
	AuthToken      string
	ErrorSignature string
	TimeoutSec     int
}

type VectorConfig struct {
	Enabled    bool
	Endpoint   string
	Collection string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/insightlm")

	viper.SetEnvPrefix("INSIGHTLM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)

	// Empty defaults so env-only keys survive Unmarshal.
	viper.SetDefault("storage.url", "")
	viper.SetDefault("storage.serviceKey", "")
	viper.SetDefault("storage.timeoutSec", 10)

	viper.SetDefault("webhook.url", "")
	viper.SetDefault("webhook.authToken", "")
	viper.SetDefault("webhook.errorSignature", "Sorry, I encountered an error")
	viper.SetDefault("webhook.timeoutSec", 0)

	viper.SetDefault("vector.enabled", false)
	viper.SetDefault("vector.endpoint", "localhost:19530")
	viper.SetDefault("vector.collection", "documents")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("ratelimit.maxRequestsPerMinute", 120)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
