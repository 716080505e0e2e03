package models

const (
	AnalysisMethodRAG   = "rag"
	AnalysisMethodBasic = "basic"
)

type KeywordAnalysis struct {
	Recommended []string `json:"recommended"`
	Missing     []string `json:"missing"`
}

// AnalysisResult is computed per request and never stored on its own.
// Its fields are merged into the CV metadata.
type AnalysisResult struct {
	ATSScore              int               `json:"atsScore"`
	ReportedScore         int               `json:"reportedScore"`
	Industry              string            `json:"industry"`
	Language              string            `json:"language"`
	KeywordAnalysis       KeywordAnalysis   `json:"keywordAnalysis"`
	Strengths             []string          `json:"strengths"`
	Weaknesses            []string          `json:"weaknesses"`
	Recommendations       []string          `json:"recommendations"`
	FormatStrengths       []string          `json:"formatStrengths"`
	FormatWeaknesses      []string          `json:"formatWeaknesses"`
	FormatRecommendations []string          `json:"formatRecommendations"`
	Skills                []string          `json:"skills"`
	Sections              map[string]string `json:"sections"`
	ExperienceEntries     []string          `json:"experienceEntries"`
	AnalysisMethod        string            `json:"analysisMethod"`
}

// MetadataFields returns the analysis keys that are merged into CV metadata.
func (r *AnalysisResult) MetadataFields() map[string]interface{} {
	return map[string]interface{}{
		"atsScore":              r.ATSScore,
		"reportedScore":         r.ReportedScore,
		"industry":              r.Industry,
		"language":              r.Language,
		"keywordAnalysis":       r.KeywordAnalysis,
		"strengths":             r.Strengths,
		"weaknesses":            r.Weaknesses,
		"recommendations":       r.Recommendations,
		"formatStrengths":       r.FormatStrengths,
		"formatWeaknesses":      r.FormatWeaknesses,
		"formatRecommendations": r.FormatRecommendations,
		"skills":                r.Skills,
		"sections":              r.Sections,
		"experienceEntries":     r.ExperienceEntries,
		"analysisMethod":        r.AnalysisMethod,
	}
}
