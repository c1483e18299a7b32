package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath        = "config.toml"
	DefaultHTTPAddr          = ":8080"
	DefaultJWTExpiresIn      = "24h"
	DefaultStoreBackend      = "mongo"
	DefaultMongoURI          = "mongodb://127.0.0.1:27017"
	DefaultMongoDatabase     = "chatclone"
	DefaultPGHost            = "127.0.0.1"
	DefaultPGPort            = 5432
	DefaultPGUser            = "postgres"
	DefaultPGDatabase        = "chatclone"
	DefaultPGSSLMode         = "disable"
	DefaultStorageBackend    = "local"
	DefaultLocalRoot         = "data/files"
	DefaultPublicBaseURL     = "http://localhost:8080/files"
	DefaultKeyPrefix         = "chat-files"
	DefaultMemoryBackend     = "qdrant"
	DefaultMemorySearchLimit = 5
	DefaultMemoryTimeout     = 10
	DefaultQdrantHost        = "127.0.0.1"
	DefaultQdrantPort        = 6334
	DefaultQdrantCollection  = "memory"
	DefaultQdrantVectorSize  = 1536
	DefaultTextModel         = "gpt-4o"
	DefaultVisionModel       = "gpt-4o"
	DefaultVisionMaxTokens   = 1000
	DefaultEmbeddingModel    = "text-embedding-3-small"
	DefaultExtractTimeout    = 30
	DefaultMaxAttachment     = 25 * 1024 * 1024
	DefaultCacheTTLMinutes   = 60
	DefaultMetricsNamespace  = "chatclone"
)

type Config struct {
	Log         LogConfig         `toml:"log"`
	Server      ServerConfig      `toml:"server"`
	Auth        AuthConfig        `toml:"auth"`
	Store       StoreConfig       `toml:"store"`
	Mongo       MongoConfig       `toml:"mongo"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Storage     StorageConfig     `toml:"storage"`
	Memory      MemoryConfig      `toml:"memory"`
	Qdrant      QdrantConfig      `toml:"qdrant"`
	OpenAI      OpenAIConfig      `toml:"openai"`
	Attachments AttachmentsConfig `toml:"attachments"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Metrics     MetricsConfig     `toml:"metrics"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// StoreConfig selects the conversation record backend: "mongo", "postgres" or "memory".
type StoreConfig struct {
	Backend string `toml:"backend"`
}

type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// DSN returns a postgres connection URL.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// StorageConfig selects the object storage backend: "local" or "gcs".
type StorageConfig struct {
	Backend       string `toml:"backend"`
	LocalRoot     string `toml:"local_root"`
	PublicBaseURL string `toml:"public_base_url"`
	GCSBucket     string `toml:"gcs_bucket"`
	CDNDomain     string `toml:"cdn_domain"`
	KeyPrefix     string `toml:"key_prefix"`
}

// MemoryConfig selects the long-term memory backend: "qdrant", "memory" or "none".
type MemoryConfig struct {
	Backend        string `toml:"backend"`
	SearchLimit    int    `toml:"search_limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func (c MemoryConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type QdrantConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
	VectorSize int    `toml:"vector_size"`
}

type OpenAIConfig struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	TextModel       string `toml:"text_model"`
	VisionModel     string `toml:"vision_model"`
	VisionMaxTokens int    `toml:"vision_max_tokens"`
	EmbeddingModel  string `toml:"embedding_model"`
}

type AttachmentsConfig struct {
	ExtractTimeoutSeconds int    `toml:"extract_timeout_seconds"`
	MaxBytes              int64  `toml:"max_bytes"`
	CacheTTLMinutes       int    `toml:"cache_ttl_minutes"`
	RedisAddr             string `toml:"redis_addr"`
}

func (c AttachmentsConfig) ExtractTimeout() time.Duration {
	return time.Duration(c.ExtractTimeoutSeconds) * time.Second
}

func (c AttachmentsConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

type PipelineConfig struct {
	PersistOnDisconnect bool `toml:"persist_on_disconnect"`
}

type MetricsConfig struct {
	Namespace string `toml:"namespace"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Store: StoreConfig{
			Backend: DefaultStoreBackend,
		},
		Mongo: MongoConfig{
			URI:      DefaultMongoURI,
			Database: DefaultMongoDatabase,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Storage: StorageConfig{
			Backend:       DefaultStorageBackend,
			LocalRoot:     DefaultLocalRoot,
			PublicBaseURL: DefaultPublicBaseURL,
			KeyPrefix:     DefaultKeyPrefix,
		},
		Memory: MemoryConfig{
			Backend:        DefaultMemoryBackend,
			SearchLimit:    DefaultMemorySearchLimit,
			TimeoutSeconds: DefaultMemoryTimeout,
		},
		Qdrant: QdrantConfig{
			Host:       DefaultQdrantHost,
			Port:       DefaultQdrantPort,
			Collection: DefaultQdrantCollection,
			VectorSize: DefaultQdrantVectorSize,
		},
		OpenAI: OpenAIConfig{
			TextModel:       DefaultTextModel,
			VisionModel:     DefaultVisionModel,
			VisionMaxTokens: DefaultVisionMaxTokens,
			EmbeddingModel:  DefaultEmbeddingModel,
		},
		Attachments: AttachmentsConfig{
			ExtractTimeoutSeconds: DefaultExtractTimeout,
			MaxBytes:              DefaultMaxAttachment,
			CacheTTLMinutes:       DefaultCacheTTLMinutes,
		},
		Pipeline: PipelineConfig{
			PersistOnDisconnect: true,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
