package services

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
)

func newTestOptimizer(repo repositories.CVRepository, llm LLMService) *OptimizerService {
	return NewOptimizerService(repo, NewMetadataPersister(repo, 0), llm, 0, 0)
}

func TestOptimizerService_RequestAndProcess(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	newStoredCV(t, repo, models.CVRecord{ID: 9, UserID: 1, FileName: "cv.pdf", RawText: cv42Text, Metadata: `{"pdfBase64":"abc"}`})

	llm := &fakeLLM{answer: func(string) (string, error) { return "```\nSKILLS\n- Python\n```", nil }}
	optimizer := newTestOptimizer(repo, llm)
	optimizer.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }

	status, err := optimizer.RequestOptimization(ctx, 9, 1, "Focus on data roles")
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationQueued, status)

	status, err = optimizer.RequestOptimization(ctx, 9, 1, "ignored")
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationQueued, status)

	require.NoError(t, optimizer.Process(ctx, 9))
	require.NoError(t, optimizer.Process(ctx, 9))
	require.Equal(t, 1, llm.promptCount())
	assert.Contains(t, llm.prompts[0], "Focus on data roles")
	assert.Contains(t, llm.prompts[0], "SKILLS: Python, SQL, Leadership")

	stored, err := repo.FindByID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationComplete, stored.OptimizationStatus)

	metadata := ParseMetadata(stored.Metadata)
	assert.Equal(t, "SKILLS\n- Python", metadata[MetaOptimizedText])
	assert.Equal(t, "2024-06-01T08:00:00Z", metadata[MetaOptimizedAt])
	assert.NotContains(t, metadata, MetaOptimizeError)
	assert.NotContains(t, metadata, MetaPDFBase64)
}

func TestOptimizerService_UsesStoredDocx(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	docx := base64.StdEncoding.EncodeToString(buildDocx(t, "EXPERIENCE", "Nurse at City Hospital"))
	newStoredCV(t, repo, models.CVRecord{ID: 10, UserID: 1, Metadata: `{"docxBase64":"` + docx + `"}`})

	llm := &fakeLLM{answer: func(string) (string, error) { return "EXPERIENCE\nRegistered nurse", nil }}
	optimizer := newTestOptimizer(repo, llm)

	_, err := optimizer.RequestOptimization(ctx, 10, 1, "")
	require.NoError(t, err)
	require.NoError(t, optimizer.Process(ctx, 10))

	require.Equal(t, 1, llm.promptCount())
	assert.Contains(t, llm.prompts[0], "Nurse at City Hospital")
}

func TestOptimizerService_Failure(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	newStoredCV(t, repo, models.CVRecord{ID: 11, UserID: 1, RawText: cv42Text})

	llm := &fakeLLM{answer: func(string) (string, error) { return "", errors.New("rate limited") }}
	optimizer := newTestOptimizer(repo, llm)

	_, err := optimizer.RequestOptimization(ctx, 11, 1, "")
	require.NoError(t, err)
	require.Error(t, optimizer.Process(ctx, 11))

	stored, err := repo.FindByID(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationFailed, stored.OptimizationStatus)
	assert.Contains(t, ParseMetadata(stored.Metadata)[MetaOptimizeError], "rate limited")

	status, err := optimizer.RequestOptimization(ctx, 11, 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationQueued, status)
}

func TestOptimizerService_RequestErrors(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	newStoredCV(t, repo, models.CVRecord{ID: 12, UserID: 1, RawText: cv42Text})
	optimizer := newTestOptimizer(repo, nil)

	_, err := optimizer.RequestOptimization(ctx, 12, 2, "")
	assert.True(t, IsKind(err, KindForbidden))

	_, err = optimizer.RequestOptimization(ctx, 99, 1, "")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestOptimizerService_NoLLM(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	newStoredCV(t, repo, models.CVRecord{ID: 13, UserID: 1, RawText: cv42Text})
	optimizer := newTestOptimizer(repo, nil)

	_, err := optimizer.RequestOptimization(ctx, 13, 1, "")
	require.NoError(t, err)
	require.Error(t, optimizer.Process(ctx, 13))

	stored, err := repo.FindByID(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationFailed, stored.OptimizationStatus)
}

func TestOptimizerService_AbandonedClaimIsRecovered(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	newStoredCV(t, repo, models.CVRecord{ID: 15, UserID: 1, RawText: cv42Text})

	llm := &fakeLLM{answer: func(string) (string, error) { return "SKILLS\n- Python", nil }}
	optimizer := newTestOptimizer(repo, llm)

	_, err := optimizer.RequestOptimization(ctx, 15, 1, "")
	require.NoError(t, err)
	claimed, err := repo.ClaimOptimization(ctx, 15, time.Now())
	require.NoError(t, err)
	require.True(t, claimed)

	status, err := optimizer.RequestOptimization(ctx, 15, 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationProcessing, status, "a live claim is left alone")
	require.NoError(t, optimizer.Process(ctx, 15))
	assert.Zero(t, llm.promptCount())

	optimizer.now = func() time.Time { return time.Now().Add(DefaultClaimTimeout + time.Minute) }

	status, err = optimizer.RequestOptimization(ctx, 15, 1, "")
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationQueued, status)

	require.NoError(t, optimizer.Process(ctx, 15))
	assert.Equal(t, 1, llm.promptCount())

	stored, err := repo.FindByID(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, models.OptimizationComplete, stored.OptimizationStatus)
}

func TestOptimizerService_ProcessTakesOverStaleClaim(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	newStoredCV(t, repo, models.CVRecord{ID: 16, UserID: 1, RawText: cv42Text})
	require.NoError(t, repo.UpdateOptimizationStatus(ctx, 16, models.OptimizationProcessing))

	llm := &fakeLLM{answer: func(string) (string, error) { return "SKILLS\n- Python", nil }}
	optimizer := NewOptimizerService(repo, NewMetadataPersister(repo, 0), llm, 0, time.Minute)
	optimizer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	require.NoError(t, optimizer.Process(ctx, 16))
	assert.Equal(t, 1, llm.promptCount())
}
