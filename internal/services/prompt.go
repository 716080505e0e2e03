package services

import (
	"fmt"
	"strings"
)

const maxOptimizationChars = 4000

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildRAGQueryPrompt answers one question about a CV from retrieved context.
func (pb *PromptBuilder) BuildRAGQueryPrompt(question, cvContext, guidelineContext string) string {
	return fmt.Sprintf(`You are an expert recruiter reviewing a CV for applicant tracking system (ATS) compatibility.

ATS GUIDELINES:
%s

CV EXCERPTS:
%s

QUESTION:
%s

Answer using only the CV excerpts and the guidelines. When asked for a list, put one item per line with no introduction and no numbering.`,
		guidelineContext, cvContext, question)
}

// BuildComprehensivePrompt asks for every analysis field in one JSON object.
func (pb *PromptBuilder) BuildComprehensivePrompt(cvContext, guidelineContext string) string {
	return fmt.Sprintf(`You are an expert recruiter reviewing a CV for applicant tracking system (ATS) compatibility.

ATS GUIDELINES:
%s

CV EXCERPTS:
%s

Analyse the CV and return ONLY a JSON object of this shape:
{
  "atsScore": <integer 0-100>,
  "industry": "<one of: %s>",
  "language": "<ISO 639-1 code>",
  "keywords": ["<ATS keywords present in the CV>"],
  "missingKeywords": ["<important keywords for the industry that are missing>"],
  "strengths": ["..."],
  "weaknesses": ["..."],
  "recommendations": ["..."],
  "formatStrengths": ["..."],
  "formatWeaknesses": ["..."],
  "formatRecommendations": ["..."],
  "skills": ["..."]
}

Keep every list item short and specific to this CV.`,
		guidelineContext, cvContext, strings.Join(KnownIndustries(), ", "))
}

// BuildOptimizationPrompt asks for an improved version of the CV text.
func (pb *PromptBuilder) BuildOptimizationPrompt(fileName, cvText, instruction string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = "Improve clarity, structure and ATS keyword coverage while keeping every fact unchanged."
	}

	return fmt.Sprintf(`You are an AI document editing assistant. You are reviewing and helping improve %s.
Focus on grammar, clarity, structure and overall quality. Use standard section headings and bullet points that ATS parsers read well.

REQUEST:
%s

DOCUMENT CONTENT:
%s

Return ONLY the rewritten CV as plain text. Do not invent employers, dates or qualifications.`,
		orDefault(fileName, "the CV"), instruction, truncateRunes(cvText, maxOptimizationChars))
}

// FormatRAGContext renders search hits as numbered context blocks.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return "No relevant context found."
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
