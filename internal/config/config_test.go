package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LLM_PROVIDER", "RAG_INIT_TIMEOUT", "METADATA_MAX_ATTEMPTS", "OFFICE_BINARY", "CHROME_ENABLED", "QDRANT_VECTOR_SIZE", "WORKER_CLAIM_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.Analysis.RAGInitTimeout)
	assert.Equal(t, 5, cfg.Analysis.MetadataMaxAttempts)
	assert.Equal(t, "soffice", cfg.Converter.OfficeBinary)
	assert.False(t, cfg.Converter.ChromeEnabled)
	assert.Equal(t, uint64(768), cfg.Qdrant.VectorSize)
	assert.Equal(t, 10*time.Minute, cfg.Worker.ClaimTimeout)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LLM_PROVIDER", "Mistral")
	t.Setenv("MISTRAL_API_KEY", "mistral-key")
	t.Setenv("RAG_INIT_TIMEOUT", "5s")
	t.Setenv("CHROME_ENABLED", "true")
	t.Setenv("METADATA_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mistral", cfg.LLM.Provider)
	assert.Equal(t, "mistral-key", cfg.LLMCredentials())
	assert.Equal(t, 5*time.Second, cfg.Analysis.RAGInitTimeout)
	assert.True(t, cfg.Converter.ChromeEnabled)
	assert.Equal(t, 5, cfg.Analysis.MetadataMaxAttempts)
}

func TestGetEnvAsDuration_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "soon")
	assert.Equal(t, 2*time.Second, getEnvAsDuration("SOME_TIMEOUT", "2s"))
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "cvs",
	}}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=cvs sslmode=disable", cfg.GetDatabaseDSN())
}
