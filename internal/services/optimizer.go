package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
)

const (
	metaOptimizeInstruction = "optimizationInstruction"
	optimizationTemperature = 0.7

	DefaultClaimTimeout = 10 * time.Minute
)

// OptimizerService rewrites CVs with the LLM. Requests are queued and picked
// up by the worker pool, which calls Process.
type OptimizerService struct {
	repo          repositories.CVRepository
	persister     *MetadataPersister
	llm           LLMService
	promptBuilder *PromptBuilder
	maxRetries    int
	claimTimeout  time.Duration
	now           func() time.Time
}

// NewOptimizerService builds the optimizer. A processing claim older than
// claimTimeout belongs to a worker that died and may be taken over.
func NewOptimizerService(repo repositories.CVRepository, persister *MetadataPersister, llm LLMService, maxRetries int, claimTimeout time.Duration) *OptimizerService {
	if claimTimeout <= 0 {
		claimTimeout = DefaultClaimTimeout
	}

	return &OptimizerService{
		repo:          repo,
		persister:     persister,
		llm:           llm,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
		claimTimeout:  claimTimeout,
		now:           time.Now,
	}
}

// RequestOptimization queues an optimization of the CV. A CV that is
// already queued, or processing under a live claim, is left as it is.
func (o *OptimizerService) RequestOptimization(ctx context.Context, cvID, requesterID uint, instruction string) (models.OptimizationStatus, error) {
	cv, err := LoadOwnedCV(ctx, o.repo, cvID, requesterID)
	if err != nil {
		return "", err
	}

	switch cv.OptimizationStatus {
	case models.OptimizationQueued:
		return cv.OptimizationStatus, nil
	case models.OptimizationProcessing:
		if !cv.UpdatedAt.Before(o.staleBefore()) {
			return cv.OptimizationStatus, nil
		}
		log.Warnf("⚠️  Optimization claim for CV %d went stale, requeueing", cv.ID)
	}

	if _, err := o.persister.Merge(ctx, cv.ID, map[string]interface{}{
		metaOptimizeInstruction: strings.TrimSpace(instruction),
	}); err != nil {
		return "", err
	}

	if err := o.repo.UpdateOptimizationStatus(ctx, cv.ID, models.OptimizationQueued); err != nil {
		return "", NewPipelineError(KindPersistenceFailure, "Failed to queue optimization", err)
	}

	return models.OptimizationQueued, nil
}

// Process runs a queued optimization. Jobs another worker already claimed
// are skipped.
func (o *OptimizerService) Process(ctx context.Context, cvID uint) error {
	claimed, err := o.repo.ClaimOptimization(ctx, cvID, o.staleBefore())
	if err != nil {
		return fmt.Errorf("failed to claim optimization: %w", err)
	}
	if !claimed {
		log.Infof("⏭️  Optimization for CV %d already claimed, skipping", cvID)
		return nil
	}

	if err := o.optimize(ctx, cvID); err != nil {
		o.fail(ctx, cvID, err)
		return err
	}

	return nil
}

func (o *OptimizerService) optimize(ctx context.Context, cvID uint) error {
	if o.llm == nil {
		return fmt.Errorf("no LLM provider configured")
	}

	cv, err := o.repo.FindByID(ctx, cvID)
	if err != nil {
		return fmt.Errorf("failed to load cv: %w", err)
	}

	metadata := ParseMetadata(cv.Metadata)
	text, err := optimizationSource(cv, metadata)
	if err != nil {
		return err
	}

	prompt := o.promptBuilder.BuildOptimizationPrompt(cv.FileName, text, MetadataString(metadata, metaOptimizeInstruction))

	log.Printf("🤖 Optimizing CV %d (%d characters)", cvID, len(text))
	optimized, err := o.llm.GenerateTextWithRetry(ctx, prompt, optimizationTemperature, o.maxRetries)
	if err != nil {
		return fmt.Errorf("failed to generate optimized CV: %w", err)
	}

	optimized = strings.TrimSpace(strings.ReplaceAll(optimized, "```", ""))
	if optimized == "" {
		return fmt.Errorf("empty optimization response")
	}

	// The cached PDF was rendered from the old text.
	if _, err := o.persister.Merge(ctx, cvID, map[string]interface{}{
		MetaOptimizedText: optimized,
		MetaOptimizedAt:   o.now().UTC().Format(time.RFC3339),
		MetaOptimizeError: nil,
		MetaPDFBase64:     nil,
	}); err != nil {
		return err
	}

	if err := o.repo.UpdateOptimizationStatus(ctx, cvID, models.OptimizationComplete); err != nil {
		return fmt.Errorf("failed to mark optimization complete: %w", err)
	}

	log.Printf("✅ Optimization completed for CV %d", cvID)
	return nil
}

func (o *OptimizerService) staleBefore() time.Time {
	return o.now().Add(-o.claimTimeout)
}

func (o *OptimizerService) fail(ctx context.Context, cvID uint, cause error) {
	log.Errorf("❌ Optimization failed for CV %d: %v", cvID, cause)

	if _, err := o.persister.Merge(ctx, cvID, map[string]interface{}{
		MetaOptimizeError: cause.Error(),
	}); err != nil {
		log.Warnf("⚠️  Failed to record optimization error: %v", err)
	}

	if err := o.repo.UpdateOptimizationStatus(ctx, cvID, models.OptimizationFailed); err != nil {
		log.Warnf("⚠️  Failed to mark optimization failed: %v", err)
	}
}

// optimizationSource prefers the extracted text and falls back to the
// stored DOCX.
func optimizationSource(cv *models.CVRecord, metadata map[string]interface{}) (string, error) {
	if strings.TrimSpace(cv.RawText) != "" {
		return cv.RawText, nil
	}

	encoded := MetadataString(metadata, MetaDocxBase64)
	if encoded == "" {
		return "", fmt.Errorf("cv %d has no text to optimize", cv.ID)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode stored DOCX: %w", err)
	}

	text, err := ExtractDocxText(data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("cv %d has no text to optimize", cv.ID)
	}
	return text, nil
}
