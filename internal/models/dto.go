package models

import (
	"encoding/json"
	"time"
)

type AnalyzeRequest struct {
	FileName    string
	CVID        string
	RequesterID uint
}

type AnalyzeResponse struct {
	Success  bool            `json:"success"`
	Analysis *AnalysisResult `json:"analysis"`
}

// ConvertRequest accepts cvId as a JSON number or a numeric string.
type ConvertRequest struct {
	CVID         json.Number `json:"cvId"`
	DocxBase64   string      `json:"docxBase64"`
	ForceRefresh bool        `json:"forceRefresh"`
}

type ConvertResponse struct {
	Success   bool   `json:"success"`
	PDFBase64 string `json:"pdfBase64"`
	Strategy  string `json:"strategy"`
}

type OptimizeRequest struct {
	Instruction string `json:"instruction"`
}

type OptimizeResponse struct {
	Success bool   `json:"success"`
	CVID    uint   `json:"cvId"`
	Status  string `json:"status"`
}

type CVResponse struct {
	ID                 uint                   `json:"id"`
	FileName           string                 `json:"fileName"`
	ContentType        string                 `json:"contentType"`
	HasText            bool                   `json:"hasText"`
	OptimizationStatus string                 `json:"optimizationStatus"`
	Metadata           map[string]interface{} `json:"metadata"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}
