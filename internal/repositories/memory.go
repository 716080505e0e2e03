package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"alfredoptarigan/cv-analyzer/internal/models"
)

// memoryCVRepository keeps records in process. It backs DB_DRIVER=memory
// and is what the tests run against.
type memoryCVRepository struct {
	mu     sync.Mutex
	nextID uint
	cvs    map[uint]models.CVRecord
}

func NewMemoryCVRepository() CVRepository {
	return &memoryCVRepository{
		nextID: 1,
		cvs:    make(map[uint]models.CVRecord),
	}
}

func (m *memoryCVRepository) Create(_ context.Context, cv *models.CVRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cv.ID == 0 {
		cv.ID = m.nextID
	}
	if _, exists := m.cvs[cv.ID]; exists {
		return fmt.Errorf("failed to create cv: id %d already exists", cv.ID)
	}
	if cv.ID >= m.nextID {
		m.nextID = cv.ID + 1
	}
	if cv.Metadata == "" {
		cv.Metadata = "{}"
	}

	now := time.Now()
	cv.CreatedAt = now
	cv.UpdatedAt = now
	m.cvs[cv.ID] = *cv
	return nil
}

func (m *memoryCVRepository) FindByID(_ context.Context, id uint) (*models.CVRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cv, ok := m.cvs[id]
	if !ok {
		return nil, fmt.Errorf("cv %d: %w", id, ErrCVNotFound)
	}
	return &cv, nil
}

func (m *memoryCVRepository) UpdateMetadata(_ context.Context, id uint, revision int, metadata string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cv, ok := m.cvs[id]
	if !ok || cv.MetadataRevision != revision {
		return false, nil
	}

	cv.Metadata = metadata
	cv.MetadataRevision++
	cv.UpdatedAt = time.Now()
	m.cvs[id] = cv
	return true, nil
}

func (m *memoryCVRepository) UpdateOptimizationStatus(_ context.Context, id uint, status models.OptimizationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cv, ok := m.cvs[id]
	if !ok {
		return fmt.Errorf("cv %d: %w", id, ErrCVNotFound)
	}

	cv.OptimizationStatus = status
	cv.UpdatedAt = time.Now()
	m.cvs[id] = cv
	return nil
}

func (m *memoryCVRepository) ClaimOptimization(_ context.Context, id uint, staleBefore time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cv, ok := m.cvs[id]
	if !ok || !pendingOptimization(cv, staleBefore) {
		return false, nil
	}

	cv.OptimizationStatus = models.OptimizationProcessing
	cv.UpdatedAt = time.Now()
	m.cvs[id] = cv
	return true, nil
}

func (m *memoryCVRepository) FindPendingOptimizations(_ context.Context, staleBefore time.Time, limit int) ([]models.CVRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var queued []models.CVRecord
	for _, cv := range m.cvs {
		if pendingOptimization(cv, staleBefore) {
			queued = append(queued, cv)
		}
	}

	sort.Slice(queued, func(i, j int) bool {
		return queued[i].UpdatedAt.Before(queued[j].UpdatedAt)
	})

	if limit > 0 && len(queued) > limit {
		queued = queued[:limit]
	}
	return queued, nil
}

func pendingOptimization(cv models.CVRecord, staleBefore time.Time) bool {
	switch cv.OptimizationStatus {
	case models.OptimizationQueued:
		return true
	case models.OptimizationProcessing:
		return cv.UpdatedAt.Before(staleBefore)
	}
	return false
}
