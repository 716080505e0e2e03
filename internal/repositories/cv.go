package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"alfredoptarigan/cv-analyzer/internal/models"
)

var ErrCVNotFound = errors.New("cv not found")

// pendingCondition matches queued jobs and processing jobs whose claim went
// stale.
const pendingCondition = "(optimization_status = ? OR (optimization_status = ? AND updated_at < ?))"

type CVRepository interface {
	Create(ctx context.Context, cv *models.CVRecord) error
	FindByID(ctx context.Context, id uint) (*models.CVRecord, error)
	// UpdateMetadata writes metadata only if the stored revision still equals
	// revision. It reports false when another writer got there first.
	UpdateMetadata(ctx context.Context, id uint, revision int, metadata string) (bool, error)
	UpdateOptimizationStatus(ctx context.Context, id uint, status models.OptimizationStatus) error
	// ClaimOptimization moves a queued job to processing. A processing job
	// last touched before staleBefore is abandoned and may be claimed again.
	ClaimOptimization(ctx context.Context, id uint, staleBefore time.Time) (bool, error)
	// FindPendingOptimizations lists queued jobs and abandoned processing jobs.
	FindPendingOptimizations(ctx context.Context, staleBefore time.Time, limit int) ([]models.CVRecord, error)
}

type cvRepository struct {
	db *gorm.DB
}

func NewCVRepository(db *gorm.DB) CVRepository {
	return &cvRepository{db: db}
}

func (r *cvRepository) Create(ctx context.Context, cv *models.CVRecord) error {
	if cv.Metadata == "" {
		cv.Metadata = "{}"
	}
	if err := r.db.WithContext(ctx).Create(cv).Error; err != nil {
		return fmt.Errorf("failed to create cv: %w", err)
	}
	return nil
}

func (r *cvRepository) FindByID(ctx context.Context, id uint) (*models.CVRecord, error) {
	var cv models.CVRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cv %d: %w", id, ErrCVNotFound)
		}
		return nil, fmt.Errorf("failed to find cv: %w", err)
	}
	return &cv, nil
}

func (r *cvRepository) UpdateMetadata(ctx context.Context, id uint, revision int, metadata string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CVRecord{}).
		Where("id = ? AND metadata_revision = ?", id, revision).
		Updates(map[string]interface{}{
			"metadata":          metadata,
			"metadata_revision": gorm.Expr("metadata_revision + 1"),
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to update metadata: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *cvRepository) UpdateOptimizationStatus(ctx context.Context, id uint, status models.OptimizationStatus) error {
	result := r.db.WithContext(ctx).Model(&models.CVRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"optimization_status": status,
			"updated_at":          time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update optimization status: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("cv %d: %w", id, ErrCVNotFound)
	}

	return nil
}

func (r *cvRepository) ClaimOptimization(ctx context.Context, id uint, staleBefore time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CVRecord{}).
		Where("id = ? AND "+pendingCondition, id, models.OptimizationQueued, models.OptimizationProcessing, staleBefore).
		Updates(map[string]interface{}{
			"optimization_status": models.OptimizationProcessing,
			"updated_at":          time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim optimization: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *cvRepository) FindPendingOptimizations(ctx context.Context, staleBefore time.Time, limit int) ([]models.CVRecord, error) {
	var cvs []models.CVRecord
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "optimization_status", "created_at", "updated_at").
		Where(pendingCondition, models.OptimizationQueued, models.OptimizationProcessing, staleBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&cvs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending optimizations: %w", err)
	}

	return cvs, nil
}
