package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
)

const (
	StrategyCached    = "cached"
	StrategyOffice    = "office"
	StrategyChrome    = "chrome"
	StrategyRender    = "render"
	StrategyEmergency = "emergency"
)

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// ConversionRequest is the input shared by every conversion strategy.
type ConversionRequest struct {
	CVID         uint
	Docx         []byte
	Text         string
	CachedPDF    string
	ForceRefresh bool

	textLoaded bool
	textErr    error
}

// PlainText returns Text, extracting it from Docx on first use.
func (r *ConversionRequest) PlainText() (string, error) {
	if strings.TrimSpace(r.Text) != "" || r.textLoaded {
		return r.Text, r.textErr
	}
	r.textLoaded = true

	if len(r.Docx) == 0 {
		r.textErr = fmt.Errorf("no document content to render")
		return "", r.textErr
	}

	r.Text, r.textErr = ExtractDocxText(r.Docx)
	return r.Text, r.textErr
}

type ConversionStrategy interface {
	Name() string
	Attempt(ctx context.Context, req *ConversionRequest) ([]byte, error)
}

type ConversionResult struct {
	PDF      []byte
	Strategy string
}

// DocumentConverter runs its strategies in order until one yields a PDF.
type DocumentConverter struct {
	repo       repositories.CVRepository
	persister  *MetadataPersister
	originals  StorageService
	strategies []ConversionStrategy
}

// NewDocumentConverter builds a converter. originals, when set, is read for
// DOCX uploads whose bytes are missing from metadata.
func NewDocumentConverter(repo repositories.CVRepository, persister *MetadataPersister, originals StorageService, strategies ...ConversionStrategy) *DocumentConverter {
	return &DocumentConverter{repo: repo, persister: persister, originals: originals, strategies: strategies}
}

// PrepareRequest turns an API request into a conversion request. A cvId
// takes precedence over an inline DOCX payload.
func (c *DocumentConverter) PrepareRequest(ctx context.Context, in models.ConvertRequest, requesterID uint) (*ConversionRequest, error) {
	if in.CVID.String() != "" {
		id, err := ParseCVID(in.CVID.String())
		if err != nil {
			return nil, err
		}

		cv, err := LoadOwnedCV(ctx, c.repo, id, requesterID)
		if err != nil {
			return nil, err
		}

		metadata := ParseMetadata(cv.Metadata)
		req := &ConversionRequest{
			CVID:         cv.ID,
			Text:         cv.RawText,
			CachedPDF:    MetadataString(metadata, MetaPDFBase64),
			ForceRefresh: in.ForceRefresh,
		}

		if encoded := MetadataString(metadata, MetaDocxBase64); encoded != "" {
			docx, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				log.Warnf("⚠️  CV %d has undecodable docxBase64: %v", cv.ID, err)
			} else {
				req.Docx = docx
			}
		}
		if len(req.Docx) == 0 && cv.ContentType == ContentTypeDocx && cv.StorageKey != "" && c.originals != nil {
			docx, err := c.originals.Load(ctx, cv.StorageKey)
			if err != nil {
				log.Warnf("⚠️  Failed to load stored upload for CV %d: %v", cv.ID, err)
			} else {
				req.Docx = docx
			}
		}
		if optimized := MetadataString(metadata, MetaOptimizedText); optimized != "" && len(req.Docx) == 0 {
			req.Text = optimized
		}

		return req, nil
	}

	if strings.TrimSpace(in.DocxBase64) == "" {
		return nil, NewPipelineError(KindMissingParameter, "Missing cvId or docxBase64 parameter", nil)
	}

	docx, err := base64.StdEncoding.DecodeString(strings.TrimSpace(in.DocxBase64))
	if err != nil {
		return nil, NewPipelineError(KindInvalidIdentifier, "Invalid docxBase64 payload", err)
	}

	return &ConversionRequest{Docx: docx, ForceRefresh: in.ForceRefresh}, nil
}

// Convert returns the first valid PDF produced by the strategy list. Fresh
// conversions for a stored CV are cached into its metadata.
func (c *DocumentConverter) Convert(ctx context.Context, req *ConversionRequest) (*ConversionResult, error) {
	for _, strategy := range c.strategies {
		logger := log.WithFields(log.Fields{"strategy": strategy.Name(), "cv_id": req.CVID})

		pdf, err := strategy.Attempt(ctx, req)
		if err != nil {
			logger.Warnf("⚠️  Conversion strategy failed: %v", err)
			continue
		}
		if !IsPDF(pdf) {
			logger.Warn("⚠️  Conversion strategy returned a non-PDF payload")
			continue
		}

		if req.CVID != 0 && c.persister != nil && cacheable(strategy.Name()) {
			fields := map[string]interface{}{MetaPDFBase64: base64.StdEncoding.EncodeToString(pdf)}
			if _, err := c.persister.Merge(ctx, req.CVID, fields); err != nil {
				logger.Warnf("⚠️  Failed to cache converted PDF: %v", err)
			}
		}

		logger.WithField("bytes", len(pdf)).Info("📄 Document converted")
		return &ConversionResult{PDF: pdf, Strategy: strategy.Name()}, nil
	}

	return nil, NewPipelineError(KindConversionFailure, "Failed to convert document to PDF", nil)
}

func cacheable(strategy string) bool {
	return strategy != StrategyCached && strategy != StrategyEmergency
}

type cachedStrategy struct{}

// NewCachedStrategy returns the stored PDF unless a refresh was requested.
func NewCachedStrategy() ConversionStrategy {
	return cachedStrategy{}
}

func (cachedStrategy) Name() string { return StrategyCached }

func (cachedStrategy) Attempt(_ context.Context, req *ConversionRequest) ([]byte, error) {
	if req.ForceRefresh {
		return nil, fmt.Errorf("refresh requested")
	}
	if req.CachedPDF == "" {
		return nil, fmt.Errorf("no cached PDF")
	}

	pdf, err := base64.StdEncoding.DecodeString(req.CachedPDF)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cached PDF: %w", err)
	}
	return pdf, nil
}
