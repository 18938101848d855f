package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Chunking strategies selectable via CHUNK_STRATEGY.
const (
	StrategyCharacters = "characters"
	StrategySentences  = "sentences"
)

type Config struct {
	ChunkStoreDir     string
	AwsAccessKey      string
	AwsSecretKey      string
	AwsRegion         string
	BucketName        string
	AIAPIKey          string
	EmbedModel        string
	EmbedDim          int
	EmbedBatchSize    int
	ChunkStrategy     string
	ChunkSize         int
	ChunkOverlap      int
	MirrorToRetrieval bool

	retrievalDSN string
}

// LoadConfig loads the environment variables and returns config.
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	cfg := &Config{
		ChunkStoreDir:     getEnv("CHUNK_STORE_DIR", "./vector_store"),
		AwsAccessKey:      getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:      getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:         getEnv("AWS_REGION", "us-east-2"),
		BucketName:        getEnv("BUCKET_NAME", "ragsync-corpus"),
		AIAPIKey:          getEnv("GEMINI_API_KEY", ""),
		EmbedModel:        getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:          getEnvInt("EMBED_DIM", 768),
		EmbedBatchSize:    getEnvInt("EMBED_BATCH_SIZE", 20),
		ChunkStrategy:     getEnv("CHUNK_STRATEGY", StrategyCharacters),
		ChunkSize:         getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 200),
		MirrorToRetrieval: getEnvBool("MIRROR_TO_RETRIEVAL", false),

		retrievalDSN: resolveRetrievalDSN(),
	}

	if cfg.ChunkStrategy != StrategyCharacters && cfg.ChunkStrategy != StrategySentences {
		return nil, fmt.Errorf("CHUNK_STRATEGY must be %q or %q, got %q",
			StrategyCharacters, StrategySentences, cfg.ChunkStrategy)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP (%d) must be non-negative and smaller than CHUNK_SIZE (%d)",
			cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.EmbedBatchSize <= 0 {
		return nil, fmt.Errorf("EMBED_BATCH_SIZE must be positive, got %d", cfg.EmbedBatchSize)
	}

	return cfg, nil
}

// RetrievalDSN returns the retrieval database connection string, resolved in
// order: RETRIEVAL_DATABASE_URL, then DATABASE_URL, then a DSN composed from
// the ambient PG_* variables. Callers that require the retrieval store must
// treat an empty result as a fatal setup failure.
func (c *Config) RetrievalDSN() string {
	return c.retrievalDSN
}

func resolveRetrievalDSN() string {
	if dsn := getEnv("RETRIEVAL_DATABASE_URL", ""); dsn != "" {
		return dsn
	}
	if dsn := getEnv("DATABASE_URL", ""); dsn != "" {
		return dsn
	}
	host := getEnv("PG_HOST", "")
	if host == "" {
		return ""
	}
	port := getEnvInt("PG_PORT", 5432)
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, getEnv("PG_USER", "postgres"), getEnv("PG_PASS", ""), getEnv("PG_DB_NAME", "postgres"))
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}
