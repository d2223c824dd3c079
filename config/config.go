package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string            `mapstructure:"port"`
	LogLevel    string            `mapstructure:"log_level"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	OCR         OCRConfig         `mapstructure:"ocr"`
	Retrieval   RetrievalConfig   `mapstructure:"retrieval"`
}

// VectorStoreConfig selects and configures the vector backend.
type VectorStoreConfig struct {
	Backend  string         `mapstructure:"backend"` // qdrant, weaviate or memory
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	Weaviate WeaviateConfig `mapstructure:"weaviate"`
}

type QdrantConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
	UseTLS bool   `mapstructure:"use_tls"`
}

type WeaviateConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"api_key"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider  string       `mapstructure:"provider"` // openai or gemini
	Dimension int          `mapstructure:"dimension"`
	OpenAI    OpenAIConfig `mapstructure:"openai"`
	Gemini    GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OCRConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// RetrievalConfig tunes the retriever's fan-out and merge behaviour.
type RetrievalConfig struct {
	CommonTopK int     `mapstructure:"common_top_k"`
	TenantTopK int     `mapstructure:"tenant_top_k"`
	MinScore   float32 `mapstructure:"min_score"`
	MaxResults int     `mapstructure:"max_results"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("vector_store.backend", "qdrant")
	v.SetDefault("vector_store.qdrant.host", "localhost")
	v.SetDefault("vector_store.qdrant.port", 6334)
	v.SetDefault("vector_store.weaviate.host", "http://localhost:8081")
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.dimension", 1536)
	v.SetDefault("embedding.openai.model", "text-embedding-3-small")
	v.SetDefault("embedding.gemini.model", "text-embedding-004")
	v.SetDefault("ocr.endpoint", "")
	v.SetDefault("retrieval.common_top_k", 5)
	v.SetDefault("retrieval.tenant_top_k", 5)
	v.SetDefault("retrieval.min_score", 0.3)
	v.SetDefault("retrieval.max_results", 10)

	// Secrets come from the environment, never from the config file.
	v.AutomaticEnv()
	v.BindEnv("embedding.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("embedding.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("vector_store.qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("vector_store.weaviate.api_key", "WEAVIATE_APIKEY")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
