package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/models"
)

const (
	maxSkillLength      = 60
	maxExperienceLines  = 20
	longLineRunes       = 200
	briefCVWords        = 150
	longCVWords         = 1200
	comfortableCVWords  = 300
	wellStructuredCount = 4
)

type heuristicAnalyzer struct {
	analyze func(text string) *models.AnalysisResult
}

// NewHeuristicAnalyzer returns the local analyzer used when the RAG
// analyzer is unavailable. It never returns an error.
func NewHeuristicAnalyzer() Analyzer {
	return &heuristicAnalyzer{analyze: AnalyzeHeuristically}
}

func (h *heuristicAnalyzer) Name() string {
	return models.AnalysisMethodBasic
}

func (h *heuristicAnalyzer) Analyze(_ context.Context, text string) (result *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("❌ Heuristic analysis panicked, returning defaults: %v", r)
			result = &models.AnalysisResult{AnalysisMethod: models.AnalysisMethodBasic}
			ApplyDefaults(result)
			err = nil
		}
	}()

	return h.analyze(text), nil
}

// AnalyzeHeuristically builds an analysis result from local heuristics only.
func AnalyzeHeuristically(text string) *models.AnalysisResult {
	sections := ExtractSections(text)

	result := &models.AnalysisResult{
		Industry:          DetectIndustry(text),
		Language:          DetectLanguage(text),
		Sections:          sections,
		Skills:            ExtractSkills(sections),
		ExperienceEntries: ExtractExperienceEntries(sections),
		KeywordAnalysis: models.KeywordAnalysis{
			Recommended: ExtractKeywords(text),
			Missing:     []string{},
		},
		AnalysisMethod: models.AnalysisMethodBasic,
	}

	applyHeuristicFeedback(result, text)
	ApplyDefaults(result)
	return result
}

// ExtractSections splits text on canonical section headers. A header is a
// line holding only the header, optionally followed by a colon and content.
func ExtractSections(text string) map[string]string {
	sections := make(map[string]string)

	var current string
	var body []string

	flush := func() {
		if current == "" {
			return
		}
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if prev := sections[current]; prev != "" && content != "" {
			content = prev + "\n" + content
		} else if prev != "" {
			content = prev
		}
		sections[current] = content
	}

	for _, line := range splitLines(text) {
		if m := sectionHeaderPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = canonicalSection(m[1])
			body = body[:0]
			if rest := strings.TrimSpace(m[2]); rest != "" {
				body = append(body, rest)
			}
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

func ExtractSkills(sections map[string]string) []string {
	content := sections["skills"]
	if strings.TrimSpace(content) == "" {
		return []string{}
	}

	var skills []string
	seen := make(map[string]bool)
	for _, part := range skillSplitPattern.Split(content, -1) {
		skill := strings.TrimSpace(bulletLinePattern.ReplaceAllString(part, ""))
		skill = strings.Trim(skill, "-*•·▪ \t")
		if skill == "" || utf8.RuneCountInString(skill) > maxSkillLength {
			continue
		}
		key := strings.ToLower(skill)
		if seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, skill)
	}

	if skills == nil {
		return []string{}
	}
	return skills
}

// ExtractKeywords returns distinct keyword matches in order of appearance.
func ExtractKeywords(text string) []string {
	keywords := []string{}
	seen := make(map[string]bool)
	for _, match := range keywordPattern.FindAllString(text, -1) {
		key := strings.ToLower(match)
		if seen[key] {
			continue
		}
		seen[key] = true
		keywords = append(keywords, key)
	}
	return keywords
}

// DetectIndustry returns the industry whose pattern matches most often.
func DetectIndustry(text string) string {
	best := DefaultIndustry
	bestCount := 0
	for _, p := range industryPatterns {
		if n := len(p.Pattern.FindAllStringIndex(text, -1)); n > bestCount {
			best, bestCount = p.Name, n
		}
	}
	return best
}

func DetectLanguage(text string) string {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		words[w] = true
	}

	best := DefaultLanguage
	bestHits := minLanguageHits - 1
	for _, table := range languageTables {
		hits := 0
		for _, w := range table.Words {
			if words[w] {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = table.Code, hits
		}
	}
	return best
}

// ExtractExperienceEntries keeps experience lines that look like role
// headings: a year, an "at" or a separator.
func ExtractExperienceEntries(sections map[string]string) []string {
	entries := []string{}
	for _, line := range splitLines(sections["experience"]) {
		line = strings.TrimSpace(bulletLinePattern.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		if yearPattern.MatchString(line) || strings.Contains(line, " at ") || strings.Contains(line, " | ") {
			entries = append(entries, line)
			if len(entries) == maxExperienceLines {
				break
			}
		}
	}
	return entries
}

func applyHeuristicFeedback(r *models.AnalysisResult, text string) {
	lines := splitLines(text)
	wordCount := len(strings.Fields(text))

	hasBullets, hasLongLines := false, false
	for _, line := range lines {
		if bulletLinePattern.MatchString(line) {
			hasBullets = true
		}
		if utf8.RuneCountInString(line) > longLineRunes {
			hasLongLines = true
		}
	}

	_, hasExperience := r.Sections["experience"]
	_, hasEducation := r.Sections["education"]
	hasSummary := false
	for _, key := range []string{"summary", "profile", "objective"} {
		if _, ok := r.Sections[key]; ok {
			hasSummary = true
		}
	}

	skills := len(r.Skills)
	keywords := len(r.KeywordAnalysis.Recommended)
	sections := len(r.Sections)

	r.Strengths = appendIf(r.Strengths,
		cond{sections >= wellStructuredCount, "Well-structured CV with clearly defined sections"},
		cond{skills > 5, "Comprehensive skills section"},
		cond{keywords >= 5, "Good use of action verbs and industry keywords"},
		cond{hasExperience, "Includes a dedicated experience section"},
		cond{hasEducation, "Education background is clearly stated"},
		cond{r.Industry != DefaultIndustry, fmt.Sprintf("Content clearly targets the %s industry", r.Industry)},
	)

	r.Weaknesses = appendIf(r.Weaknesses,
		cond{skills <= 5, "Limited number of skills mentioned"},
		cond{keywords < 5, "Few action verbs or measurable achievements"},
		cond{!hasSummary, "Missing a professional summary"},
		cond{!hasEducation, "Education section not found"},
		cond{wordCount < briefCVWords, "CV content is brief and may lack detail"},
	)

	r.Recommendations = appendIf(r.Recommendations,
		cond{true, "Tailor the CV to each job description with relevant keywords"},
		cond{skills <= 5, "Expand the skills section with relevant technical and soft skills"},
		cond{keywords < 5, "Start bullet points with strong action verbs and quantify results"},
		cond{!hasSummary, "Add a concise professional summary at the top"},
		cond{wordCount < briefCVWords, "Add more detail about responsibilities and achievements"},
	)

	r.FormatStrengths = appendIf(r.FormatStrengths,
		cond{sections >= 3, "Uses standard section headings recognized by ATS"},
		cond{hasBullets, "Uses bullet points for readability"},
		cond{!hasLongLines, "Concise lines that are easy to scan"},
		cond{wordCount >= comfortableCVWords && wordCount <= longCVWords, "Appropriate overall length"},
	)

	r.FormatWeaknesses = appendIf(r.FormatWeaknesses,
		cond{sections < 3, "Few standard section headings detected"},
		cond{!hasBullets, "No bullet points detected"},
		cond{hasLongLines, "Long paragraphs reduce readability"},
		cond{wordCount > longCVWords, "CV may be too long for a quick ATS review"},
	)

	r.FormatRecommendations = appendIf(r.FormatRecommendations,
		cond{true, "Use a simple single-column layout for ATS compatibility"},
		cond{!hasBullets, "Describe achievements as bullet points"},
		cond{sections < 3, "Use standard headings such as Experience, Education and Skills"},
	)
}

type cond struct {
	ok   bool
	text string
}

func appendIf(list []string, items ...cond) []string {
	for _, item := range items {
		if item.ok {
			list = append(list, item.text)
		}
	}
	return list
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
