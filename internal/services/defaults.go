package services

import (
	"alfredoptarigan/cv-analyzer/internal/models"
)

const (
	DefaultIndustry = "General"
	DefaultLanguage = "en"
)

// fieldDefault pairs an analysis field with the default that replaces it
// when the field came back empty.
type fieldDefault struct {
	Field   string
	IsEmpty func(r *models.AnalysisResult) bool
	Apply   func(r *models.AnalysisResult)
}

var analysisDefaults = []fieldDefault{
	{
		Field:   "industry",
		IsEmpty: func(r *models.AnalysisResult) bool { return r.Industry == "" },
		Apply:   func(r *models.AnalysisResult) { r.Industry = DefaultIndustry },
	},
	{
		Field:   "language",
		IsEmpty: func(r *models.AnalysisResult) bool { return r.Language == "" },
		Apply:   func(r *models.AnalysisResult) { r.Language = DefaultLanguage },
	},
	listDefault("strengths", func(r *models.AnalysisResult) *[]string { return &r.Strengths },
		"Clear presentation of professional background",
		"Relevant experience for the target role",
	),
	listDefault("weaknesses", func(r *models.AnalysisResult) *[]string { return &r.Weaknesses },
		"Could include more quantifiable achievements",
		"Skills section could be more detailed",
	),
	listDefault("recommendations", func(r *models.AnalysisResult) *[]string { return &r.Recommendations },
		"Add measurable results to each role",
		"Tailor keywords to the target job description",
		"Keep formatting simple and consistent for ATS parsing",
	),
	listDefault("formatStrengths", func(r *models.AnalysisResult) *[]string { return &r.FormatStrengths },
		"Readable text content",
		"Content can be extracted by ATS parsers",
	),
	listDefault("formatWeaknesses", func(r *models.AnalysisResult) *[]string { return &r.FormatWeaknesses },
		"Formatting could be more consistent",
	),
	listDefault("formatRecommendations", func(r *models.AnalysisResult) *[]string { return &r.FormatRecommendations },
		"Use standard section headings such as Experience, Education and Skills",
		"Use bullet points to describe achievements",
	),
}

func listDefault(field string, target func(r *models.AnalysisResult) *[]string, values ...string) fieldDefault {
	return fieldDefault{
		Field:   field,
		IsEmpty: func(r *models.AnalysisResult) bool { return len(*target(r)) == 0 },
		Apply: func(r *models.AnalysisResult) {
			*target(r) = append([]string(nil), values...)
		},
	}
}

// ApplyDefaults fills every empty field that has a registered default.
func ApplyDefaults(r *models.AnalysisResult) {
	for _, d := range analysisDefaults {
		if d.IsEmpty(r) {
			d.Apply(r)
		}
	}
	if r.Sections == nil {
		r.Sections = map[string]string{}
	}
	if r.KeywordAnalysis.Recommended == nil {
		r.KeywordAnalysis.Recommended = []string{}
	}
	if r.KeywordAnalysis.Missing == nil {
		r.KeywordAnalysis.Missing = []string{}
	}
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.ExperienceEntries == nil {
		r.ExperienceEntries = []string{}
	}
}

// applyFieldDefault overwrites a single field with its default. Fields
// without a registered default are left alone.
func applyFieldDefault(r *models.AnalysisResult, field string) {
	for _, d := range analysisDefaults {
		if d.Field == field {
			d.Apply(r)
			return
		}
	}
}
