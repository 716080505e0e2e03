package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
)

type recordingProcessor struct {
	mu  sync.Mutex
	ids []uint
}

func (p *recordingProcessor) Process(_ context.Context, cvID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, cvID)
	return nil
}

func (p *recordingProcessor) processed() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint(nil), p.ids...)
}

func TestWorker_ProcessesEnqueuedJobs(t *testing.T) {
	processor := &recordingProcessor{}
	w := NewWorker(repositories.NewMemoryCVRepository(), processor, 2, time.Hour, 0)
	w.Start(context.Background())
	defer w.Stop()

	w.EnqueueJob(1)
	w.EnqueueJob(2)

	assert.Eventually(t, func() bool { return len(processor.processed()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []uint{1, 2}, processor.processed())
}

func TestWorker_PollsQueuedOptimizations(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	newStoredCV(t, repo, models.CVRecord{ID: 20, UserID: 1, RawText: cv42Text})

	llm := &fakeLLM{answer: func(string) (string, error) { return "SKILLS\n- Python", nil }}
	optimizer := newTestOptimizer(repo, llm)
	_, err := optimizer.RequestOptimization(ctx, 20, 1, "")
	require.NoError(t, err)

	w := NewWorker(repo, optimizer, 1, 10*time.Millisecond, 0)
	w.Start(ctx)
	defer w.Stop()

	assert.Eventually(t, func() bool {
		cv, err := repo.FindByID(ctx, 20)
		return err == nil && cv.OptimizationStatus == models.OptimizationComplete
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, llm.promptCount())
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	w := NewWorker(repositories.NewMemoryCVRepository(), &recordingProcessor{}, 1, time.Hour, 0)
	w.Start(context.Background())

	w.Stop()
	w.Stop()
	w.EnqueueJob(3)
}

func TestWorker_RecoversAbandonedOptimization(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMemoryCVRepository()
	newStoredCV(t, repo, models.CVRecord{ID: 21, UserID: 1, RawText: cv42Text})

	llm := &fakeLLM{answer: func(string) (string, error) { return "SKILLS\n- Python", nil }}
	optimizer := NewOptimizerService(repo, NewMetadataPersister(repo, 0), llm, 0, time.Millisecond)
	_, err := optimizer.RequestOptimization(ctx, 21, 1, "")
	require.NoError(t, err)

	// A worker that claimed the job and died before finishing.
	claimed, err := repo.ClaimOptimization(ctx, 21, time.Now())
	require.NoError(t, err)
	require.True(t, claimed)

	w := NewWorker(repo, optimizer, 1, 10*time.Millisecond, time.Millisecond)
	w.Start(ctx)
	defer w.Stop()

	assert.Eventually(t, func() bool {
		cv, err := repo.FindByID(ctx, 21)
		return err == nil && cv.OptimizationStatus == models.OptimizationComplete
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, llm.promptCount(), 1)
}
