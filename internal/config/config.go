package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	LLM       LLMConfig
	Qdrant    QdrantConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Analysis  AnalysisConfig
	Converter ConverterConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type LLMConfig struct {
	Provider       string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	MistralAPIKey  string
	Model          string
	EmbeddingModel string
	MaxRetries     int
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize uint64
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type StorageConfig struct {
	Driver      string
	UploadPath  string
	MaxFileSize int64
	AWSRegion   string
	AWSBucket   string
	AWSPrefix   string
}

type AnalysisConfig struct {
	RAGInitTimeout      time.Duration
	MetadataMaxAttempts int
}

type ConverterConfig struct {
	OfficeBinary  string
	OfficeTimeout time.Duration
	SettleDelay   time.Duration
	ScratchDir    string
	ChromeEnabled bool
	ChromePath    string
	WrapWidth     int
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
	ClaimTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "3000"),
			Env:      getEnv("ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cv_analyzer"),
		},
		LLM: LLMConfig{
			Provider:       strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			MistralAPIKey:  getEnv("MISTRAL_API_KEY", ""),
			Model:          getEnv("LLM_MODEL", ""),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", ""),
			MaxRetries:     getEnvAsInt("LLM_MAX_RETRIES", 3),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "cv_analyzer_docs"),
			VectorSize: uint64(getEnvAsInt64("QDRANT_VECTOR_SIZE", 768)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TTL", "24h"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			UploadPath:  getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize: getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			AWSBucket:   getEnv("AWS_BUCKET", ""),
			AWSPrefix:   getEnv("AWS_PREFIX", "uploads"),
		},
		Analysis: AnalysisConfig{
			RAGInitTimeout:      getEnvAsDuration("RAG_INIT_TIMEOUT", "30s"),
			MetadataMaxAttempts: getEnvAsInt("METADATA_MAX_ATTEMPTS", 5),
		},
		Converter: ConverterConfig{
			OfficeBinary:  getEnv("OFFICE_BINARY", "soffice"),
			OfficeTimeout: getEnvAsDuration("OFFICE_TIMEOUT", "60s"),
			SettleDelay:   getEnvAsDuration("OFFICE_SETTLE_DELAY", "500ms"),
			ScratchDir:    getEnv("CONVERTER_SCRATCH_DIR", os.TempDir()),
			ChromeEnabled: getEnvAsBool("CHROME_ENABLED", false),
			ChromePath:    getEnv("CHROME_PATH", ""),
			WrapWidth:     getEnvAsInt("RENDER_WRAP_WIDTH", 90),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 3),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
			ClaimTimeout: getEnvAsDuration("WORKER_CLAIM_TIMEOUT", "10m"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// LLMCredentials returns the API key that belongs to the selected provider.
func (c *Config) LLMCredentials() string {
	switch c.LLM.Provider {
	case "openai":
		return c.LLM.OpenAIAPIKey
	case "mistral":
		return c.LLM.MistralAPIKey
	default:
		return c.LLM.GeminiAPIKey
	}
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
