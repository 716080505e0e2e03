package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultWrapWidth = 90
	maxHeaderRunes   = 60
)

type renderStrategy struct {
	wrapWidth int
}

// NewRenderStrategy re-renders the document text as a plain multi-page PDF.
func NewRenderStrategy(wrapWidth int) ConversionStrategy {
	if wrapWidth <= 0 {
		wrapWidth = DefaultWrapWidth
	}
	return &renderStrategy{wrapWidth: wrapWidth}
}

func (r *renderStrategy) Name() string { return StrategyRender }

func (r *renderStrategy) Attempt(_ context.Context, req *ConversionRequest) ([]byte, error) {
	text, err := req.PlainText()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text to render")
	}
	return RenderTextPDF(text, r.wrapWidth)
}

// RenderTextPDF lays text out on A4 pages. All-caps lines are set in bold
// as section headers, other lines are wrapped at wrapWidth runes.
func RenderTextPDF(text string, wrapWidth int) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			doc.Ln(3)
		case isHeaderLine(line):
			doc.SetFont("Helvetica", "B", 12)
			doc.Ln(2)
			doc.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
		default:
			doc.SetFont("Helvetica", "", 10)
			for _, wrapped := range wrapText(line, wrapWidth) {
				doc.CellFormat(0, 5, tr(wrapped), "", 1, "L", false, 0, "")
			}
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// isHeaderLine reports whether line is a short line with letters, all of
// them upper case.
func isHeaderLine(line string) bool {
	if utf8.RuneCountInString(line) > maxHeaderRunes {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}

// wrapText breaks line on spaces so no piece exceeds width runes. Words
// longer than width are split.
func wrapText(line string, width int) []string {
	var lines []string
	var current []rune

	for _, word := range strings.Fields(line) {
		w := []rune(word)
		for len(w) > width {
			if len(current) > 0 {
				lines = append(lines, string(current))
				current = nil
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}

		switch {
		case len(current) == 0:
			current = append(current, w...)
		case len(current)+1+len(w) <= width:
			current = append(append(current, ' '), w...)
		default:
			lines = append(lines, string(current))
			current = append([]rune(nil), w...)
		}
	}

	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

const emergencyMessage = `DOCUMENT PREVIEW UNAVAILABLE

The document could not be converted to PDF right now.

Please try the conversion again later or download the original file.`

// staticEmergencyPDF is a complete one-page PDF used when even local
// rendering fails.
const staticEmergencyPDF = `%PDF-1.4
1 0 obj
<< /Type /Catalog /Pages 2 0 R >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 1 >>
endobj
3 0 obj
<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>
endobj
4 0 obj
<< /Length 122 >>
stream
BT /F1 14 Tf 72 760 Td (Document preview unavailable) Tj 0 -24 Td /F1 10 Tf (Please try the conversion again later.) Tj ET
endstream
endobj
5 0 obj
<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>
endobj
xref
0 6
0000000000 65535 f 
0000000009 00000 n 
0000000058 00000 n 
0000000115 00000 n 
0000000241 00000 n 
0000000414 00000 n 
trailer
<< /Size 6 /Root 1 0 R >>
startxref
484
%%EOF
`

type emergencyStrategy struct {
	render func(text string, wrapWidth int) ([]byte, error)
}

// NewEmergencyStrategy always yields a PDF: a generated notice page, or the
// static fallback document.
func NewEmergencyStrategy() ConversionStrategy {
	return &emergencyStrategy{render: RenderTextPDF}
}

func (e *emergencyStrategy) Name() string { return StrategyEmergency }

func (e *emergencyStrategy) Attempt(_ context.Context, _ *ConversionRequest) ([]byte, error) {
	pdf, err := e.render(emergencyMessage, DefaultWrapWidth)
	if err == nil && IsPDF(pdf) {
		return pdf, nil
	}

	log.Warnf("⚠️  Emergency PDF generation failed, serving static PDF: %v", err)
	return []byte(staticEmergencyPDF), nil
}
