package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ComprehensiveAnalysis is the bundle the LLM returns when asked for the
// whole analysis at once.
type ComprehensiveAnalysis struct {
	ATSScore              *int     `json:"atsScore"`
	Industry              string   `json:"industry"`
	Language              string   `json:"language"`
	Keywords              []string `json:"keywords"`
	MissingKeywords       []string `json:"missingKeywords"`
	Strengths             []string `json:"strengths"`
	Weaknesses            []string `json:"weaknesses"`
	Recommendations       []string `json:"recommendations"`
	FormatStrengths       []string `json:"formatStrengths"`
	FormatWeaknesses      []string `json:"formatWeaknesses"`
	FormatRecommendations []string `json:"formatRecommendations"`
	Skills                []string `json:"skills"`
}

const comprehensiveAnalysisSchema = `{
  "type": "object",
  "properties": {
    "atsScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "industry": {"type": "string", "maxLength": 60},
    "language": {"type": "string", "maxLength": 10},
    "keywords": {"$ref": "#/definitions/stringList"},
    "missingKeywords": {"$ref": "#/definitions/stringList"},
    "strengths": {"$ref": "#/definitions/stringList"},
    "weaknesses": {"$ref": "#/definitions/stringList"},
    "recommendations": {"$ref": "#/definitions/stringList"},
    "formatStrengths": {"$ref": "#/definitions/stringList"},
    "formatWeaknesses": {"$ref": "#/definitions/stringList"},
    "formatRecommendations": {"$ref": "#/definitions/stringList"},
    "skills": {"$ref": "#/definitions/stringList"}
  },
  "anyOf": [
    {"required": ["strengths"]},
    {"required": ["weaknesses"]},
    {"required": ["recommendations"]},
    {"required": ["atsScore"]}
  ],
  "definitions": {
    "stringList": {"type": "array", "items": {"type": "string"}}
  }
}`

var comprehensiveSchema = mustCompileSchema(comprehensiveAnalysisSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid JSON schema: %v", err))
	}
	return compiled
}

// ParseComprehensiveAnalysis extracts the JSON bundle from an LLM answer and
// validates it before decoding.
func ParseComprehensiveAnalysis(answer string) (*ComprehensiveAnalysis, error) {
	raw := extractJSON(answer)
	if raw == "" {
		return nil, fmt.Errorf("empty comprehensive analysis response")
	}

	res, err := comprehensiveSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to validate comprehensive analysis: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("comprehensive analysis failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var bundle ComprehensiveAnalysis
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comprehensive analysis: %w", err)
	}

	return &bundle, nil
}
