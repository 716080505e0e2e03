package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/models"
)

type AnalysisPipeline struct {
	validator *IntakeValidator
	chain     *AnalyzerChain
	persister *MetadataPersister
}

func NewAnalysisPipeline(validator *IntakeValidator, chain *AnalyzerChain, persister *MetadataPersister) *AnalysisPipeline {
	return &AnalysisPipeline{validator: validator, chain: chain, persister: persister}
}

// Analyze validates the request, analyzes the CV text, scores the result and
// merges it into the CV metadata. The result is only returned once stored.
func (p *AnalysisPipeline) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	cv, err := p.validator.Validate(ctx, req)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"cv_id": cv.ID, "file": req.FileName})
	logger.Info("🔍 Analyzing CV")

	result, err := p.chain.Run(ctx, cv.RawText)
	if err != nil {
		return nil, err
	}

	Synthesize(result, cv.RawText)

	if _, err := p.persister.PersistAnalysis(ctx, cv.ID, result); err != nil {
		logger.Errorf("❌ Failed to persist analysis: %v", err)
		return nil, err
	}

	logger.WithFields(log.Fields{
		"ats_score": result.ATSScore,
		"method":    result.AnalysisMethod,
	}).Info("✅ CV analysis completed")

	return result, nil
}

// Synthesize completes an analyzer result: structural fields the analyzer
// left empty come from local extraction, every list gets its defaults and
// the ATS score is recomputed from the final counts.
func Synthesize(r *models.AnalysisResult, text string) {
	sections := ExtractSections(text)
	if len(r.Sections) == 0 {
		r.Sections = sections
	}
	if len(r.Skills) == 0 {
		r.Skills = ExtractSkills(sections)
	}
	if len(r.ExperienceEntries) == 0 {
		r.ExperienceEntries = ExtractExperienceEntries(sections)
	}

	ApplyDefaults(r)
	r.ATSScore = ScoreResult(r)
}
