package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
)

// Metadata keys shared by the features that write into a CV's metadata.
const (
	MetaPDFBase64      = "pdfBase64"
	MetaDocxBase64     = "docxBase64"
	MetaAnalyzedAt     = "analyzedAt"
	MetaAnalysisStatus = "analysis_status"
	MetaOptimizedText  = "optimizedText"
	MetaOptimizedAt    = "optimizedAt"
	MetaOptimizeError  = "optimizationError"
)

const defaultMetadataAttempts = 5

// MetadataPersister shallow-merges fields into CV metadata. Each merge is a
// compare-and-swap on the metadata revision and is retried on conflict.
type MetadataPersister struct {
	repo        repositories.CVRepository
	maxAttempts int
	now         func() time.Time
}

func NewMetadataPersister(repo repositories.CVRepository, maxAttempts int) *MetadataPersister {
	if maxAttempts < 1 {
		maxAttempts = defaultMetadataAttempts
	}
	return &MetadataPersister{repo: repo, maxAttempts: maxAttempts, now: time.Now}
}

// Merge writes fields over the stored metadata and returns the merged
// document. Keys not named in fields are preserved; a nil value removes the
// key.
func (p *MetadataPersister) Merge(ctx context.Context, cvID uint, fields map[string]interface{}) (map[string]interface{}, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		cv, err := p.repo.FindByID(ctx, cvID)
		if err != nil {
			if errors.Is(err, repositories.ErrCVNotFound) {
				return nil, NewPipelineError(KindNotFound, "CV not found", err)
			}
			return nil, NewPipelineError(KindPersistenceFailure, "Failed to save CV metadata", err)
		}

		merged := ParseMetadata(cv.Metadata)
		for key, value := range fields {
			if value == nil {
				delete(merged, key)
				continue
			}
			merged[key] = value
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return nil, NewPipelineError(KindPersistenceFailure, "Failed to save CV metadata", fmt.Errorf("failed to encode metadata: %w", err))
		}

		ok, err := p.repo.UpdateMetadata(ctx, cvID, cv.MetadataRevision, string(data))
		if err != nil {
			return nil, NewPipelineError(KindPersistenceFailure, "Failed to save CV metadata", err)
		}
		if ok {
			return merged, nil
		}

		log.WithFields(log.Fields{
			"cv_id":    cvID,
			"revision": cv.MetadataRevision,
			"attempt":  attempt,
		}).Warn("⚠️  Metadata changed concurrently, retrying merge")
	}

	return nil, NewPipelineError(KindPersistenceFailure, "Failed to save CV metadata",
		fmt.Errorf("metadata of cv %d still conflicting after %d attempts", cvID, p.maxAttempts))
}

// PersistAnalysis merges an analysis result and marks the analysis complete.
func (p *MetadataPersister) PersistAnalysis(ctx context.Context, cvID uint, result *models.AnalysisResult) (map[string]interface{}, error) {
	fields := result.MetadataFields()
	fields[MetaAnalyzedAt] = p.now().UTC().Format(time.RFC3339)
	fields[MetaAnalysisStatus] = "complete"

	return p.Merge(ctx, cvID, fields)
}

// ParseMetadata decodes stored metadata. Blank or malformed input yields an
// empty object.
func ParseMetadata(raw string) map[string]interface{} {
	metadata := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return metadata
	}

	if err := json.Unmarshal([]byte(raw), &metadata); err != nil || metadata == nil {
		log.Warnf("⚠️  Ignoring malformed CV metadata: %v", err)
		return map[string]interface{}{}
	}

	return metadata
}

// MetadataString returns metadata[key] when it is a non-empty string.
func MetadataString(metadata map[string]interface{}, key string) string {
	if s, ok := metadata[key].(string); ok {
		return s
	}
	return ""
}
