package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel         string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`
	EmbeddingModel      string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"OPENAI_EMBEDDING_DIMENSIONS"`

	// Logical index name and namespace partitioning the knowledge base
	VectorIndex     string `envconfig:"VECTOR_INDEX" default:"sleep-knowledge"`
	VectorNamespace string `envconfig:"VECTOR_NAMESPACE" default:"kb-ja"`

	AssemblyAIAPIKey  string `envconfig:"ASSEMBLYAI_API_KEY"`
	AssemblyAIBaseURL string `envconfig:"ASSEMBLYAI_BASE_URL" default:"https://api.assemblyai.com"`

	HumeAPIKey             string `envconfig:"HUME_API_KEY"`
	HumeBaseURL            string `envconfig:"HUME_BASE_URL" default:"https://api.hume.ai"`
	HumeEnableTranscript   bool   `envconfig:"HUME_ENABLE_TRANSCRIPT" default:"false"`
	HumeProsodyGranularity string `envconfig:"HUME_PROSODY_GRANULARITY" default:"utterance"`
	HumeMaxFileSize        int64  `envconfig:"HUME_MAX_FILE_SIZE" default:"104857600"`
	HumeTimeoutSeconds     int    `envconfig:"HUME_TIMEOUT" default:"60"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"nemuri-media"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("NEMURI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.EmbeddingDimensions < 0 {
		return nil, fmt.Errorf("OPENAI_EMBEDDING_DIMENSIONS must be positive")
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasAssemblyAI() bool {
	return c.AssemblyAIAPIKey != ""
}

func (c *Config) HasHume() bool {
	return c.HumeAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
