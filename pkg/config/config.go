package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "CARD_ADVISOR_CONFIG"

type Config struct {
	App            AppConfig
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	LLM            LLMConfig
	Recommendation RecommendationConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the connection string consumed by gorm's postgres driver.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type LLMConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"-"`
	SystemPrompt string        `yaml:"systemPrompt"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryBackoff time.Duration `yaml:"retryBackoff"`
}

// Enabled reports whether enough is configured to attempt scoring calls.
func (l LLMConfig) Enabled() bool {
	return l.APIKey != "" && l.Endpoint != ""
}

type RecommendationConfig struct {
	CacheTTL     time.Duration `yaml:"cacheTTL"`
	CacheBackend string        `yaml:"cacheBackend"`
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxLimit     int           `yaml:"maxLimit"`
	StreamBuffer int           `yaml:"streamBuffer"`
}

// fileConfig is the optional YAML overlay for tuning knobs.
type fileConfig struct {
	LLM            LLMConfig            `yaml:"llm"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("invalid redis database")
		}
		redisDB = v
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Card Advisor API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:8080")),
			RequestTimeout: getDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "card_advisor"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		LLM: LLMConfig{
			Endpoint:     getEnv("LLM_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			Model:        getEnv("LLM_MODEL", "gpt-4o-mini"),
			APIKey:       getEnv("LLM_API_KEY", ""),
			SystemPrompt: getEnv("LLM_SYSTEM_PROMPT", ""),
			Timeout:      getDuration("LLM_TIMEOUT", 10*time.Second),
			RetryBackoff: getDuration("LLM_RETRY_BACKOFF", 500*time.Millisecond),
		},
		Recommendation: RecommendationConfig{
			CacheTTL:     getDuration("RECOMMENDATION_CACHE_TTL", 5*time.Minute),
			CacheBackend: getEnv("RECOMMENDATION_CACHE_BACKEND", "memory"),
			DefaultLimit: getInt("RECOMMENDATION_DEFAULT_LIMIT", 10),
			MaxLimit:     getInt("RECOMMENDATION_MAX_LIMIT", 25),
			StreamBuffer: getInt("RECOMMENDATION_STREAM_BUFFER", 8),
		},
	}

	if path := os.Getenv(configPathEnv); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.merge(fc)
	return nil
}

func (c *Config) merge(fc fileConfig) {
	if fc.LLM.Endpoint != "" {
		c.LLM.Endpoint = fc.LLM.Endpoint
	}
	if fc.LLM.Model != "" {
		c.LLM.Model = fc.LLM.Model
	}
	if fc.LLM.SystemPrompt != "" {
		c.LLM.SystemPrompt = fc.LLM.SystemPrompt
	}
	if fc.LLM.Timeout > 0 {
		c.LLM.Timeout = fc.LLM.Timeout
	}
	if fc.LLM.RetryBackoff > 0 {
		c.LLM.RetryBackoff = fc.LLM.RetryBackoff
	}

	if fc.Recommendation.CacheTTL > 0 {
		c.Recommendation.CacheTTL = fc.Recommendation.CacheTTL
	}
	if fc.Recommendation.CacheBackend != "" {
		c.Recommendation.CacheBackend = fc.Recommendation.CacheBackend
	}
	if fc.Recommendation.DefaultLimit > 0 {
		c.Recommendation.DefaultLimit = fc.Recommendation.DefaultLimit
	}
	if fc.Recommendation.MaxLimit > 0 {
		c.Recommendation.MaxLimit = fc.Recommendation.MaxLimit
	}
	if fc.Recommendation.StreamBuffer > 0 {
		c.Recommendation.StreamBuffer = fc.Recommendation.StreamBuffer
	}
}

func (c *Config) validate() error {
	if strings.EqualFold(c.App.Environment, "production") && c.Database.Password == "" {
		return errors.New("missing database password")
	}

	switch c.Recommendation.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown recommendation cache backend %q", c.Recommendation.CacheBackend)
	}

	if c.Recommendation.MaxLimit < c.Recommendation.DefaultLimit {
		return errors.New("recommendation max limit is below the default limit")
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}

	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if v, err := time.ParseDuration(val); err == nil {
			return v
		}
	}

	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
