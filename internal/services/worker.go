package services

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/repositories"
)

// JobProcessor handles one queued CV job.
type JobProcessor interface {
	Process(ctx context.Context, cvID uint) error
}

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(cvID uint)
}

type worker struct {
	repo         repositories.CVRepository
	processor    JobProcessor
	jobQueue     chan uint
	concurrency  int
	pollInterval time.Duration
	claimTimeout time.Duration
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
}

func NewWorker(
	repo repositories.CVRepository,
	processor JobProcessor,
	concurrency int,
	pollInterval time.Duration,
	claimTimeout time.Duration,
) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if claimTimeout <= 0 {
		claimTimeout = DefaultClaimTimeout
	}

	return &worker{
		repo:         repo,
		processor:    processor,
		jobQueue:     make(chan uint, 100),
		concurrency:  concurrency,
		pollInterval: pollInterval,
		claimTimeout: claimTimeout,
		stopChan:     make(chan struct{}),
	}
}

func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollQueuedJobs(ctx)

	log.Println("✅ Worker started successfully")
}

func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		log.Println("✅ Worker stopped")
	})
}

func (w *worker) EnqueueJob(cvID uint) {
	select {
	case w.jobQueue <- cvID:
		log.Printf("📥 Job for CV %d enqueued", cvID)
	case <-w.stopChan:
		log.Warnf("⚠️  Worker stopped, cannot enqueue job for CV %d", cvID)
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			log.Printf("👷 Worker #%d stopped", workerID)
			return
		case <-ctx.Done():
			return
		case cvID := <-w.jobQueue:
			log.Printf("👷 Worker #%d processing CV %d", workerID, cvID)
			if err := w.processor.Process(ctx, cvID); err != nil {
				log.Errorf("❌ Worker #%d failed to process CV %d: %v", workerID, cvID, err)
			}
		}
	}
}

// pollQueuedJobs picks up jobs queued before a restart or dropped from the
// channel, and jobs whose worker died mid-run.
func (w *worker) pollQueuedJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			log.Println("🔄 Queued jobs poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			queued, err := w.repo.FindPendingOptimizations(ctx, time.Now().Add(-w.claimTimeout), 10)
			if err != nil {
				log.Warnf("⚠️  Failed to fetch queued jobs: %v", err)
				continue
			}

			if len(queued) > 0 {
				log.Printf("📋 Found %d pending jobs", len(queued))
			}

			for _, cv := range queued {
				w.EnqueueJob(cv.ID)
			}
		}
	}
}
