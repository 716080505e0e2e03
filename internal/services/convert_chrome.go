package services

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const chromeRenderTimeout = 60 * time.Second

type chromeStrategy struct {
	execPath   string
	scratchDir string
}

// NewChromeStrategy prints the document text to PDF with headless Chrome.
func NewChromeStrategy(execPath, scratchDir string) ConversionStrategy {
	return &chromeStrategy{execPath: execPath, scratchDir: scratchDir}
}

func (c *chromeStrategy) Name() string { return StrategyChrome }

func (c *chromeStrategy) Attempt(ctx context.Context, req *ConversionRequest) ([]byte, error) {
	text, err := req.PlainText()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text to render")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, chromeRenderTimeout)
	defer cancelRun()

	dir, err := os.MkdirTemp(c.scratchDir, "cv-chrome-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	htmlPath := filepath.Join(dir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(RenderTextHTML(text)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write HTML: %w", err)
	}

	var pdf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4 in inches
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome rendering failed: %w", err)
	}

	return pdf, nil
}

// RenderTextHTML lays CV text out as a printable page. Header lines become
// headings.
func RenderTextHTML(text string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8"><style>` +
		`body{font-family:Helvetica,Arial,sans-serif;font-size:10pt;margin:20mm;}` +
		`h2{font-size:12pt;margin:12pt 0 4pt;}p{margin:0 0 3pt;}` +
		`</style></head><body>`)

	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case isHeaderLine(line):
			b.WriteString("<h2>" + html.EscapeString(line) + "</h2>")
		default:
			b.WriteString("<p>" + html.EscapeString(line) + "</p>")
		}
	}

	b.WriteString("</body></html>")
	return b.String()
}
