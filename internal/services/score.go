package services

import (
	"math"

	"alfredoptarigan/cv-analyzer/internal/models"
)

const (
	MinATSScore  = 30
	MaxATSScore  = 95
	baseATSScore = 50
	signalCap    = 10.0
)

// Score combines discrete CV signal counts into an ATS score in
// [MinATSScore, MaxATSScore].
func Score(skills, keywords, sections, formatStrengths, formatWeaknesses int) int {
	score := float64(baseATSScore)
	score += math.Min(float64(skills), signalCap)
	score += math.Min(float64(keywords)/2, signalCap)
	score += math.Min(float64(sections)*2, signalCap)
	score += math.Min(float64(formatStrengths)*2, signalCap)
	score -= math.Min(float64(formatWeaknesses), signalCap)

	score = math.Max(MinATSScore, math.Min(MaxATSScore, score))
	return int(math.Round(score))
}

// ScoreResult applies Score to the counts held by result.
func ScoreResult(result *models.AnalysisResult) int {
	return Score(
		len(result.Skills),
		len(result.KeywordAnalysis.Recommended),
		len(result.Sections),
		len(result.FormatStrengths),
		len(result.FormatWeaknesses),
	)
}
