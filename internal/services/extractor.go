package services

import (
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ExtractedUpload is what an uploaded file contributes to a new CV record.
// DOCX uploads carry no analyzable text and keep their bytes for conversion.
type ExtractedUpload struct {
	ContentType string
	Text        string
	Docx        []byte
}

type UploadExtractor struct {
	pdfParser PDFParserService
}

func NewUploadExtractor(pdfParser PDFParserService) *UploadExtractor {
	return &UploadExtractor{pdfParser: pdfParser}
}

func (e *UploadExtractor) Extract(fileName string, data []byte) (*ExtractedUpload, error) {
	if len(data) == 0 {
		return nil, NewPipelineError(KindEmptyContent, "Uploaded file is empty", nil)
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		content, err := e.pdfParser.ExtractText(data)
		if err != nil {
			return nil, NewPipelineError(KindUnsupportedFile, "Uploaded file is not a readable PDF", err)
		}
		if content.Text == "" {
			log.Warnf("⚠️  No text found in %s, it may be a scanned document", fileName)
		}
		return &ExtractedUpload{ContentType: ContentTypePDF, Text: content.Text}, nil

	case ".docx":
		return &ExtractedUpload{ContentType: ContentTypeDocx, Docx: data}, nil

	default:
		return nil, NewPipelineError(KindUnsupportedFile, "Only PDF and DOCX files are accepted", nil)
	}
}
