package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alfredoptarigan/cv-analyzer/internal/models"
)

func TestScore_Formula(t *testing.T) {
	tests := []struct {
		name string
		args [5]int
		want int
	}{
		{"all zero", [5]int{0, 0, 0, 0, 0}, 50},
		{"skills only", [5]int{3, 0, 0, 0, 0}, 53},
		{"odd keywords round half up", [5]int{0, 3, 0, 0, 0}, 52},
		{"sections doubled", [5]int{0, 0, 2, 0, 0}, 54},
		{"weaknesses subtract", [5]int{0, 0, 0, 0, 4}, 46},
		{"each signal capped", [5]int{100, 100, 100, 100, 0}, 90},
		{"weaknesses capped", [5]int{0, 0, 0, 0, 100}, 40},
		{"mixed", [5]int{3, 5, 2, 1, 2}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.args[0], tt.args[1], tt.args[2], tt.args[3], tt.args[4])
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	for skills := 0; skills <= 15; skills += 3 {
		for keywords := 0; keywords <= 25; keywords += 5 {
			for sections := 0; sections <= 8; sections += 2 {
				for fs := 0; fs <= 6; fs += 2 {
					for fw := 0; fw <= 15; fw += 3 {
						got := Score(skills, keywords, sections, fs, fw)
						assert.GreaterOrEqual(t, got, MinATSScore)
						assert.LessOrEqual(t, got, MaxATSScore)
					}
				}
			}
		}
	}
}

func TestScore_Monotonic(t *testing.T) {
	for n := 0; n < 20; n++ {
		assert.LessOrEqual(t, Score(n, 4, 2, 1, 3), Score(n+1, 4, 2, 1, 3), "skills")
		assert.LessOrEqual(t, Score(4, n, 2, 1, 3), Score(4, n+1, 2, 1, 3), "keywords")
		assert.LessOrEqual(t, Score(4, 4, n, 1, 3), Score(4, 4, n+1, 1, 3), "sections")
		assert.LessOrEqual(t, Score(4, 4, 2, n, 3), Score(4, 4, 2, n+1, 3), "format strengths")
		assert.GreaterOrEqual(t, Score(4, 4, 2, 1, n), Score(4, 4, 2, 1, n+1), "format weaknesses")
	}
}

func TestScore_Pure(t *testing.T) {
	first := Score(7, 9, 3, 2, 5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(7, 9, 3, 2, 5))
	}
}

func TestScoreResult_UsesCounts(t *testing.T) {
	result := &models.AnalysisResult{
		Skills:           []string{"Python", "SQL", "Leadership"},
		KeywordAnalysis:  models.KeywordAnalysis{Recommended: []string{"led", "built"}},
		Sections:         map[string]string{"skills": "x", "experience": "y"},
		FormatStrengths:  []string{"a"},
		FormatWeaknesses: []string{"b", "c"},
	}

	assert.Equal(t, Score(3, 2, 2, 1, 2), ScoreResult(result))
}
