package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	cvContextLimit        = 4
	guidelineContextLimit = 2
	fallbackContextChars  = 6000
	ragQueryTemperature   = 0.2
)

// RAGDocument is CV text addressed by a content hash, so identical text is
// only indexed once.
type RAGDocument struct {
	Key  string
	Text string
}

func NewRAGDocument(text string) RAGDocument {
	sum := sha256.Sum256([]byte(text))
	return RAGDocument{Key: hex.EncodeToString(sum[:16]), Text: text}
}

type RAGService interface {
	ProcessDocument(ctx context.Context, doc RAGDocument) error
	Query(ctx context.Context, doc RAGDocument, question string) (string, error)
	ComprehensiveAnalysis(ctx context.Context, doc RAGDocument) (*ComprehensiveAnalysis, error)
}

type ragService struct {
	llm           LLMService
	store         VectorStore
	cache         AnswerCache
	chunker       TextChunker
	promptBuilder *PromptBuilder
	maxRetries    int
}

func NewRAGService(llm LLMService, store VectorStore, cache AnswerCache, maxRetries int) RAGService {
	if cache == nil {
		cache = NewNoopCache()
	}

	return &ragService{
		llm:           llm,
		store:         store,
		cache:         cache,
		chunker:       NewTextChunker(),
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
	}
}

// ProcessDocument chunks, embeds and stores the CV unless it is already
// indexed.
func (s *ragService) ProcessDocument(ctx context.Context, doc RAGDocument) error {
	indexedKey := "rag:indexed:" + doc.Key
	if _, ok, err := s.cache.Get(ctx, indexedKey); err == nil && ok {
		return nil
	}

	count, err := s.store.CountDocument(ctx, doc.Key)
	if err != nil {
		return fmt.Errorf("failed to check indexed document: %w", err)
	}

	if count == 0 {
		chunks := s.chunker.ChunkText(doc.Text, DefaultChunkSize, DefaultChunkOverlap)
		if len(chunks) == 0 {
			return fmt.Errorf("no chunks produced from document")
		}

		embeddings := make([][]float32, 0, len(chunks))
		for i, chunk := range chunks {
			embedding, err := s.llm.GenerateEmbedding(ctx, chunk)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}
			embeddings = append(embeddings, embedding)
		}

		if err := s.store.UpsertChunks(ctx, doc.Key, DocTypeCV, chunks, embeddings); err != nil {
			return fmt.Errorf("failed to store chunks: %w", err)
		}

		log.WithFields(log.Fields{"doc": doc.Key, "chunks": len(chunks)}).Info("✅ CV indexed")
	}

	if err := s.cache.Set(ctx, indexedKey, "1"); err != nil {
		log.Warnf("⚠️  Failed to cache index marker: %v", err)
	}

	return nil
}

func (s *ragService) Query(ctx context.Context, doc RAGDocument, question string) (string, error) {
	answerKey := "rag:answer:" + doc.Key + ":" + questionHash(question)
	if answer, ok, err := s.cache.Get(ctx, answerKey); err == nil && ok {
		return answer, nil
	}

	cvContext, guidelineContext := s.retrieveContext(ctx, doc, question)
	prompt := s.promptBuilder.BuildRAGQueryPrompt(question, cvContext, guidelineContext)

	answer, err := s.llm.GenerateTextWithRetry(ctx, prompt, ragQueryTemperature, s.maxRetries)
	if err != nil {
		return "", fmt.Errorf("failed to answer query: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if err := s.cache.Set(ctx, answerKey, answer); err != nil {
		log.Warnf("⚠️  Failed to cache answer: %v", err)
	}

	return answer, nil
}

func (s *ragService) ComprehensiveAnalysis(ctx context.Context, doc RAGDocument) (*ComprehensiveAnalysis, error) {
	answerKey := "rag:comprehensive:" + doc.Key
	if answer, ok, err := s.cache.Get(ctx, answerKey); err == nil && ok {
		if bundle, err := ParseComprehensiveAnalysis(answer); err == nil {
			return bundle, nil
		}
	}

	cvContext, guidelineContext := s.retrieveContext(ctx, doc, "overall CV quality, skills, experience and formatting")
	prompt := s.promptBuilder.BuildComprehensivePrompt(cvContext, guidelineContext)

	answer, err := s.llm.GenerateTextWithRetry(ctx, prompt, ragQueryTemperature, s.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to generate comprehensive analysis: %w", err)
	}

	bundle, err := ParseComprehensiveAnalysis(answer)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, answerKey, answer); err != nil {
		log.Warnf("⚠️  Failed to cache comprehensive analysis: %v", err)
	}

	return bundle, nil
}

// retrieveContext returns the CV and guideline context for query. Search
// failures degrade to the raw CV text and an empty guideline block.
func (s *ragService) retrieveContext(ctx context.Context, doc RAGDocument, query string) (string, string) {
	fallback := truncateRunes(doc.Text, fallbackContextChars)

	embedding, err := s.llm.GenerateEmbedding(ctx, query)
	if err != nil {
		log.Warnf("⚠️  Failed to embed query, using raw CV text: %v", err)
		return fallback, FormatRAGContext(nil)
	}

	cvContext := fallback
	cvResults, err := s.store.SearchSimilar(ctx, embedding, SearchFilter{DocID: doc.Key, DocType: DocTypeCV}, cvContextLimit)
	if err != nil {
		log.Warnf("⚠️  Failed to search CV chunks: %v", err)
	} else if len(cvResults) > 0 {
		cvContext = FormatRAGContext(cvResults)
	}

	guidelineResults, err := s.store.SearchSimilar(ctx, embedding, SearchFilter{DocType: DocTypeGuideline}, guidelineContextLimit)
	if err != nil {
		log.Warnf("⚠️  Failed to search guidelines: %v", err)
		guidelineResults = nil
	}

	return cvContext, FormatRAGContext(guidelineResults)
}

func questionHash(question string) string {
	sum := sha256.Sum256([]byte(question))
	return hex.EncodeToString(sum[:8])
}
