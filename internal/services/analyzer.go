package services

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/models"
)

// Analyzer produces an analysis result for CV text. Name is recorded as the
// analysis method of the results it produces.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, text string) (*models.AnalysisResult, error)
}

// AnalyzerChain tries each analyzer in order and returns the first result.
type AnalyzerChain struct {
	analyzers []Analyzer
}

func NewAnalyzerChain(analyzers ...Analyzer) *AnalyzerChain {
	return &AnalyzerChain{analyzers: analyzers}
}

func (c *AnalyzerChain) Run(ctx context.Context, text string) (*models.AnalysisResult, error) {
	var errs []error

	for _, analyzer := range c.analyzers {
		result, err := analyzer.Analyze(ctx, text)
		if err != nil {
			log.WithFields(log.Fields{
				"analyzer": analyzer.Name(),
				"error":    err.Error(),
			}).Warn("⚠️  Analyzer failed, trying next")
			errs = append(errs, err)
			continue
		}
		if result == nil {
			continue
		}

		result.AnalysisMethod = analyzer.Name()
		return result, nil
	}

	return nil, NewPipelineError(KindUpstreamUnavailable, "No analyzer could process this CV", errors.Join(errs...))
}
