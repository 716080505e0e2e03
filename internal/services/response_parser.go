package services

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	listMarkerPattern = regexp.MustCompile(`^(?:[-*•·▪–]+|\d{1,2}[.)]|\(\d{1,2}\))\s*`)
	scorePattern      = regexp.MustCompile(`\b(\d{1,3})\b`)
	languagePattern   = regexp.MustCompile(`^([a-z]{2})(?:[-_][a-z]{2})?\b`)
)

var languageNames = []struct {
	Name string
	Code string
}{
	{"english", "en"},
	{"spanish", "es"},
	{"french", "fr"},
	{"german", "de"},
	{"portuguese", "pt"},
	{"italian", "it"},
	{"dutch", "nl"},
}

// ParseListResponse turns a free-text LLM answer into a list. Answers are
// split per line; a single-line answer is split on commas instead.
func ParseListResponse(answer string) []string {
	answer = strings.TrimSpace(strings.NewReplacer("```", "", "**", "").Replace(answer))
	if answer == "" {
		return []string{}
	}

	lines := splitLines(answer)
	var parts []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			parts = append(parts, line)
		}
	}
	if len(parts) == 1 {
		parts = strings.Split(parts[0], ",")
	}

	items := []string{}
	seen := make(map[string]bool)
	for _, part := range parts {
		item := strings.TrimSpace(part)
		item = strings.TrimSpace(listMarkerPattern.ReplaceAllString(item, ""))
		item = strings.Trim(item, "\"'`")
		if item == "" || strings.HasSuffix(item, ":") {
			continue
		}
		key := strings.ToLower(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, item)
	}
	return items
}

// ParseScoreResponse extracts the first integer in [0, 100] from answer.
func ParseScoreResponse(answer string) (int, bool) {
	for _, m := range scorePattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 0 && n <= 100 {
			return n, true
		}
	}
	return 0, false
}

// ParseLanguageResponse returns a lowercase two-letter language code, or
// "" when the answer holds none.
func ParseLanguageResponse(answer string) string {
	lower := strings.ToLower(strings.TrimSpace(answer))
	for _, l := range languageNames {
		if strings.Contains(lower, l.Name) {
			return l.Code
		}
	}

	lower = strings.Trim(lower, ".\"'` ")
	if m := languagePattern.FindStringSubmatch(lower); m != nil {
		return m[1]
	}
	return ""
}

// ParseIndustryResponse maps an answer onto a known industry label. Unknown
// answers are kept when they are short enough to be a label.
func ParseIndustryResponse(answer string) string {
	answer = strings.TrimSpace(strings.Trim(strings.TrimSpace(answer), ".\"'"))
	if answer == "" {
		return ""
	}

	for _, label := range industryLabels {
		if label.Pattern.MatchString(answer) {
			return label.Name
		}
	}

	first := strings.TrimSpace(splitLines(answer)[0])
	if len(first) > 40 {
		return ""
	}
	return first
}

// extractJSON pulls a JSON object or array out of text that may carry
// markdown fences or prose around it.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	endObj := strings.LastIndex(text, "}")
	if startObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	}

	startArr := strings.Index(text, "[")
	endArr := strings.LastIndex(text, "]")
	if startArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return strings.TrimSpace(text)
}
