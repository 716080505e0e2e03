package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/config"
	"alfredoptarigan/cv-analyzer/internal/services"
)

const defaultGuidelinesDir = "./reference_docs/ats_guidelines"

// Usage: go run ./scripts/ingest_guidelines.go [dir]
func main() {
	log.Println("🚀 Starting ATS guideline ingestion...")

	cfg := config.Load()
	config.SetupLogger(cfg)

	dir := defaultGuidelinesDir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	llm, err := services.NewLLMService(cfg.LLM.Provider, cfg.LLMCredentials(), cfg.LLM.Model, cfg.LLM.EmbeddingModel)
	if err != nil {
		log.Fatalf("❌ Failed to initialize LLM: %v", err)
	}

	store, err := services.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	ctx := context.Background()
	if err := store.InitCollection(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("❌ Failed to read %s: %v", dir, err)
	}

	pdfParser := services.NewPDFParserService()
	chunker := services.NewTextChunker()

	successCount := 0
	failCount := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		log.Printf("📄 Processing: %s", path)

		text, err := readGuideline(pdfParser, path)
		if err != nil {
			log.Printf("   ⚠️  Skipping: %v", err)
			failCount++
			continue
		}

		chunks := chunker.ChunkText(text, services.DefaultChunkSize, services.DefaultChunkOverlap)
		log.Printf("   ✂️  Created %d chunks from %d characters", len(chunks), len(text))

		embeddings := make([][]float32, 0, len(chunks))
		for i, chunk := range chunks {
			embedding, err := llm.GenerateEmbedding(ctx, chunk)
			if err != nil {
				log.Printf("   ❌ Failed to generate embedding for chunk %d: %v", i+1, err)
				break
			}
			embeddings = append(embeddings, embedding)
		}
		if len(embeddings) != len(chunks) {
			failCount++
			continue
		}

		docID := "guideline:" + strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		// Re-ingesting a file replaces its previous chunks.
		if err := store.DeleteDocument(ctx, docID); err != nil {
			log.Printf("   ⚠️  Failed to remove previous chunks: %v", err)
		}
		if err := store.UpsertChunks(ctx, docID, services.DocTypeGuideline, chunks, embeddings); err != nil {
			log.Printf("   ❌ Failed to store chunks: %v", err)
			failCount++
			continue
		}

		log.Printf("   ✅ Ingested %s", docID)
		successCount++
	}

	log.Println(strings.Repeat("=", 60))
	log.Printf("📊 Ingestion Summary:")
	log.Printf("   ✅ Successful: %d documents", successCount)
	log.Printf("   ❌ Failed: %d documents", failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		os.Exit(1)
	}
}

func readGuideline(pdfParser services.PDFParserService, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		content, err := pdfParser.ExtractText(data)
		if err != nil {
			return "", err
		}
		text = content.Text
	case ".docx":
		if text, err = services.ExtractDocxText(data); err != nil {
			return "", err
		}
	case ".txt", ".md":
		text = string(data)
	default:
		return "", fmt.Errorf("unsupported file type %s", filepath.Ext(path))
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text content found")
	}
	return text, nil
}
