package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func NewExecRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type OfficeOptions struct {
	Binary      string
	Timeout     time.Duration
	SettleDelay time.Duration
	ScratchDir  string
}

type officeStrategy struct {
	runner CommandRunner
	opts   OfficeOptions
}

// NewOfficeStrategy converts DOCX to PDF with a headless office suite.
func NewOfficeStrategy(runner CommandRunner, opts OfficeOptions) ConversionStrategy {
	if opts.Binary == "" {
		opts.Binary = "soffice"
	}
	return &officeStrategy{runner: runner, opts: opts}
}

func (o *officeStrategy) Name() string { return StrategyOffice }

func (o *officeStrategy) Attempt(ctx context.Context, req *ConversionRequest) ([]byte, error) {
	if len(req.Docx) == 0 {
		return nil, fmt.Errorf("no DOCX content to convert")
	}

	dir, err := os.MkdirTemp(o.opts.ScratchDir, "cv-convert-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warnf("⚠️  Failed to remove scratch directory %s: %v", dir, err)
		}
	}()

	input := filepath.Join(dir, "document.docx")
	if err := os.WriteFile(input, req.Docx, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write DOCX: %w", err)
	}

	runCtx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	output, err := o.runner.Run(runCtx, o.opts.Binary,
		"--headless", "--convert-to", "pdf", "--outdir", dir, input)
	if err != nil {
		return nil, fmt.Errorf("office conversion failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	if o.opts.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.opts.SettleDelay):
		}
	}

	path, err := findPDF(dir, "document.pdf")
	if err != nil {
		return nil, err
	}

	pdf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted PDF: %w", err)
	}
	if !IsPDF(pdf) {
		return nil, fmt.Errorf("converted file %s is not a PDF", filepath.Base(path))
	}

	return pdf, nil
}

// findPDF returns dir/expected, or the first *.pdf in dir when the converter
// picked another name.
func findPDF(dir, expected string) (string, error) {
	path := filepath.Join(dir, expected)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan scratch directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("no PDF produced by office conversion")
}
