package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/models"
)

// ragQuery is one question of the analysis battery. Queries whose field is
// already filled, by the result or by the comprehensive bundle, are skipped.
type ragQuery struct {
	Field    string
	Filled   func(r *models.AnalysisResult, bundle *ComprehensiveAnalysis) bool
	Question func(r *models.AnalysisResult) string
	Apply    func(r *models.AnalysisResult, answer string)
}

const scoreQuestion = "On a scale of 0 to 100, how well is this CV optimized for applicant tracking systems? " +
	"Reply with the number only."

var ragQueries = []ragQuery{
	{
		Field: "atsScore",
		Filled: func(_ *models.AnalysisResult, bundle *ComprehensiveAnalysis) bool {
			return bundle != nil && bundle.ATSScore != nil
		},
		Question: staticQuestion(scoreQuestion),
		Apply: func(r *models.AnalysisResult, answer string) {
			if score, ok := ParseScoreResponse(answer); ok {
				r.ReportedScore = score
			}
		},
	},
	{
		Field:    "language",
		Filled:   func(r *models.AnalysisResult, _ *ComprehensiveAnalysis) bool { return r.Language != "" },
		Question: staticQuestion("What language is this CV written in? Reply with the ISO 639-1 code only."),
		Apply: func(r *models.AnalysisResult, answer string) {
			r.Language = ParseLanguageResponse(answer)
		},
	},
	{
		Field:  "industry",
		Filled: func(r *models.AnalysisResult, _ *ComprehensiveAnalysis) bool { return r.Industry != "" },
		Question: func(*models.AnalysisResult) string {
			return fmt.Sprintf("Which industry does this CV target? Choose one of: %s. Reply with the industry name only.",
				strings.Join(KnownIndustries(), ", "))
		},
		Apply: func(r *models.AnalysisResult, answer string) {
			r.Industry = ParseIndustryResponse(answer)
		},
	},
	listQuery("keywords", func(r *models.AnalysisResult) *[]string { return &r.KeywordAnalysis.Recommended },
		staticQuestion("List the ATS keywords and action verbs present in this CV.")),
	listQuery("missingKeywords", func(r *models.AnalysisResult) *[]string { return &r.KeywordAnalysis.Missing },
		func(r *models.AnalysisResult) string {
			return fmt.Sprintf("List important %s industry keywords that are missing from this CV.",
				orDefault(r.Industry, DefaultIndustry))
		}),
	listQuery("strengths", func(r *models.AnalysisResult) *[]string { return &r.Strengths },
		staticQuestion("List the main strengths of this CV.")),
	listQuery("weaknesses", func(r *models.AnalysisResult) *[]string { return &r.Weaknesses },
		staticQuestion("List the main weaknesses of this CV.")),
	listQuery("recommendations", func(r *models.AnalysisResult) *[]string { return &r.Recommendations },
		staticQuestion("List specific recommendations to improve this CV for ATS screening.")),
	listQuery("formatStrengths", func(r *models.AnalysisResult) *[]string { return &r.FormatStrengths },
		staticQuestion("List the strengths of this CV's formatting and layout for ATS parsing.")),
	listQuery("formatWeaknesses", func(r *models.AnalysisResult) *[]string { return &r.FormatWeaknesses },
		staticQuestion("List the weaknesses of this CV's formatting and layout for ATS parsing.")),
	listQuery("formatRecommendations", func(r *models.AnalysisResult) *[]string { return &r.FormatRecommendations },
		staticQuestion("List recommendations to improve this CV's formatting for ATS parsing.")),
	listQuery("skills", func(r *models.AnalysisResult) *[]string { return &r.Skills },
		staticQuestion("List the skills mentioned in this CV.")),
}

func staticQuestion(q string) func(*models.AnalysisResult) string {
	return func(*models.AnalysisResult) string { return q }
}

func listQuery(field string, target func(r *models.AnalysisResult) *[]string, question func(r *models.AnalysisResult) string) ragQuery {
	return ragQuery{
		Field:    field,
		Filled:   func(r *models.AnalysisResult, _ *ComprehensiveAnalysis) bool { return len(*target(r)) > 0 },
		Question: question,
		Apply: func(r *models.AnalysisResult, answer string) {
			*target(r) = ParseListResponse(answer)
		},
	}
}

type ragAnalyzer struct {
	rag         RAGService
	initTimeout time.Duration
}

// NewRAGAnalyzer returns the primary analyzer. A document indexing step that
// outlives initTimeout is abandoned and the analysis continues without it.
func NewRAGAnalyzer(rag RAGService, initTimeout time.Duration) Analyzer {
	return &ragAnalyzer{rag: rag, initTimeout: initTimeout}
}

func (a *ragAnalyzer) Name() string {
	return models.AnalysisMethodRAG
}

func (a *ragAnalyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	doc := NewRAGDocument(text)

	if err := a.initialize(ctx, doc); err != nil {
		return nil, NewPipelineError(KindUpstreamUnavailable, "RAG service unavailable", err)
	}

	result := &models.AnalysisResult{}
	succeeded := 0

	bundle, err := a.rag.ComprehensiveAnalysis(ctx, doc)
	if err != nil {
		log.Warnf("⚠️  Comprehensive analysis failed, running query battery: %v", err)
		bundle = nil
	} else {
		applyComprehensive(result, bundle)
		succeeded++
	}

	var errs []error
	for _, q := range ragQueries {
		if q.Filled(result, bundle) {
			continue
		}

		answer, err := a.rag.Query(ctx, doc, q.Question(result))
		if err != nil {
			log.WithFields(log.Fields{
				"field": q.Field,
				"error": err.Error(),
			}).Warn("⚠️  RAG query failed, using default")
			applyFieldDefault(result, q.Field)
			errs = append(errs, err)
			continue
		}

		q.Apply(result, answer)
		succeeded++
	}

	if succeeded == 0 {
		return nil, NewPipelineError(KindUpstreamUnavailable, "RAG service unavailable", errors.Join(errs...))
	}

	return result, nil
}

// initialize indexes the document, waiting at most initTimeout.
func (a *ragAnalyzer) initialize(ctx context.Context, doc RAGDocument) error {
	initCtx, cancel := context.WithTimeout(ctx, a.initTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.rag.ProcessDocument(initCtx, doc)
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			log.Warnf("⚠️  RAG initialization timed out after %s, analysis may be degraded", a.initTimeout)
			return nil
		}
		return err
	case <-initCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warnf("⚠️  RAG initialization timed out after %s, analysis may be degraded", a.initTimeout)
		return nil
	}
}

func applyComprehensive(r *models.AnalysisResult, b *ComprehensiveAnalysis) {
	if b.ATSScore != nil {
		r.ReportedScore = *b.ATSScore
	}
	if b.Language != "" {
		r.Language = ParseLanguageResponse(b.Language)
	}
	if b.Industry != "" {
		r.Industry = ParseIndustryResponse(b.Industry)
	}

	r.KeywordAnalysis.Recommended = cleanList(b.Keywords)
	r.KeywordAnalysis.Missing = cleanList(b.MissingKeywords)
	r.Strengths = cleanList(b.Strengths)
	r.Weaknesses = cleanList(b.Weaknesses)
	r.Recommendations = cleanList(b.Recommendations)
	r.FormatStrengths = cleanList(b.FormatStrengths)
	r.FormatWeaknesses = cleanList(b.FormatWeaknesses)
	r.FormatRecommendations = cleanList(b.FormatRecommendations)
	r.Skills = cleanList(b.Skills)
}

func cleanList(items []string) []string {
	out := []string{}
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
