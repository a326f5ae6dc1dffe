// Package extract pulls text out of downloaded registry documents.
//
// Extraction is two-stage: the PDF text layer is read with pdftotext, and
// when the result falls below a minimum-character threshold (the signature
// of a scanned image) the document is rasterised with pdftoppm and run
// through tesseract. Scanned image artifacts (TIFF registry downloads) go
// straight to OCR. Both tools run behind a mockable CommandRunner.
//
// OCR is CPU-bound, so it is gated by a bounded semaphore shared by all
// workers; I/O-bound adapter workers are never starved by rasterisation.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/parcelworks/deedline/internal/core/domain"
	"github.com/parcelworks/deedline/internal/core/ports/driven"
	"github.com/parcelworks/deedline/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// DefaultMinTextChars is the threshold below which a text layer is treated
// as absent and OCR takes over.
const DefaultMinTextChars = 40

// DefaultOCRWorkers bounds concurrent OCR executions.
const DefaultOCRWorkers = 2

// ErrToolNotFound indicates a required external tool is missing from PATH.
var ErrToolNotFound = errors.New("pdftotext/tesseract not found in PATH")

// InstallInstructions describes how to install the external tools.
func InstallInstructions() string {
	return "install poppler-utils (pdftotext, pdftoppm) and tesseract-ocr " +
		"via your package manager, e.g. `apt install poppler-utils tesseract-ocr`"
}

// Options configures an Extractor.
type Options struct {
	// MinTextChars is the text-layer threshold. Zero means the default.
	MinTextChars int

	// OCRWorkers bounds concurrent OCR executions. Zero means the default.
	OCRWorkers int

	// Runner overrides the command runner. Nil means os/exec.
	Runner CommandRunner

	// LookPath overrides tool lookup. Nil means exec.LookPath.
	LookPath func(string) (string, error)

	// WorkDir is where temporary files go. Empty means os.TempDir.
	WorkDir string
}

// Extractor implements two-stage text extraction.
type Extractor struct {
	minChars int
	runner   CommandRunner
	lookPath func(string) (string, error)
	workDir  string
	ocrSem   chan struct{}
}

// New creates an extractor with the given options.
func New(opts Options) *Extractor {
	if opts.MinTextChars <= 0 {
		opts.MinTextChars = DefaultMinTextChars
	}
	if opts.OCRWorkers <= 0 {
		opts.OCRWorkers = DefaultOCRWorkers
	}
	if opts.Runner == nil {
		opts.Runner = execRunner{}
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &Extractor{
		minChars: opts.MinTextChars,
		runner:   opts.Runner,
		lookPath: opts.LookPath,
		workDir:  opts.WorkDir,
		ocrSem:   make(chan struct{}, opts.OCRWorkers),
	}
}

// Extract returns the document text and the confidence of the path that
// produced it. OCR is attempted at most once per document.
func (e *Extractor) Extract(ctx context.Context, artifact *domain.RawArtifact) (string, domain.Confidence, error) {
	if artifact == nil || len(artifact.Content) == 0 {
		return "", "", domain.ErrNoTextExtracted
	}

	// Textual artifacts (property cards, CSV exports) need no external tool.
	switch {
	case artifact.ContentType == "text/html":
		return htmlText(artifact.Content)
	case strings.HasPrefix(artifact.ContentType, "text/"):
		text := strings.TrimSpace(string(artifact.Content))
		if text == "" {
			return "", "", domain.ErrNoTextExtracted
		}
		return text, domain.ConfidenceText, nil
	}

	tmp, err := e.writeTemp(artifact)
	if err != nil {
		return "", "", fmt.Errorf("staging artifact: %w", err)
	}
	defer os.Remove(tmp)

	if artifact.IsImage() {
		text, err := e.ocrImages(ctx, []string{tmp})
		if err != nil {
			return "", "", err
		}
		return text, domain.ConfidenceOCR, nil
	}

	text, err := e.textLayer(ctx, tmp)
	if err == nil && len(strings.TrimSpace(text)) >= e.minChars {
		return strings.TrimSpace(text), domain.ConfidenceText, nil
	}
	if err != nil {
		logger.Debug("text layer extraction failed for %s: %v", artifact.ID, err)
	} else {
		logger.Debug("text layer below %d chars for %s, falling back to OCR", e.minChars, artifact.ID)
	}

	text, err = e.ocrDocument(ctx, tmp)
	if err != nil {
		return "", "", err
	}
	return text, domain.ConfidenceOCR, nil
}

// textLayer runs pdftotext and returns raw stdout.
func (e *Extractor) textLayer(ctx context.Context, path string) (string, error) {
	if _, err := e.lookPath("pdftotext"); err != nil {
		return "", ErrToolNotFound
	}
	out, err := e.runner.Run(ctx, "pdftotext", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// ocrDocument rasterises a PDF and OCRs every page.
func (e *Extractor) ocrDocument(ctx context.Context, path string) (string, error) {
	if _, err := e.lookPath("pdftoppm"); err != nil {
		return "", ErrToolNotFound
	}

	prefix := strings.TrimSuffix(path, filepath.Ext(path)) + "-page"
	if _, err := e.runner.Run(ctx, "pdftoppm", "-png", "-r", "300", path, prefix); err != nil {
		return "", fmt.Errorf("pdftoppm: %w", err)
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(pages) == 0 {
		return "", domain.ErrNoTextExtracted
	}
	sort.Strings(pages)
	defer func() {
		for _, p := range pages {
			os.Remove(p)
		}
	}()

	return e.ocrImages(ctx, pages)
}

// ocrImages runs tesseract over image files under the OCR semaphore.
func (e *Extractor) ocrImages(ctx context.Context, paths []string) (string, error) {
	if _, err := e.lookPath("tesseract"); err != nil {
		return "", ErrToolNotFound
	}

	select {
	case e.ocrSem <- struct{}{}:
		defer func() { <-e.ocrSem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	var parts []string
	for _, p := range paths {
		out, err := e.runner.Run(ctx, "tesseract", p, "stdout")
		if err != nil {
			return "", fmt.Errorf("tesseract %s: %w", filepath.Base(p), err)
		}
		if s := strings.TrimSpace(string(out)); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", domain.ErrNoTextExtracted
	}
	return strings.Join(parts, "\n"), nil
}

// htmlText flattens an HTML page into line-per-block text so the pattern
// rules see "Label: value" lines the way they appear on the page.
func htmlText(content []byte) (string, domain.Confidence, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", "", fmt.Errorf("parsing html artifact: %w", err)
	}
	doc.Find("script, style").Remove()

	var lines []string
	doc.Find("p, td, th, li, h1, h2, h3, div, span").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		if text := strings.TrimSpace(doc.Text()); text != "" {
			return text, domain.ConfidenceText, nil
		}
		return "", "", domain.ErrNoTextExtracted
	}
	return strings.Join(lines, "\n"), domain.ConfidenceText, nil
}

// writeTemp stages artifact bytes on disk for the external tools.
func (e *Extractor) writeTemp(artifact *domain.RawArtifact) (string, error) {
	ext := ".pdf"
	switch artifact.ContentType {
	case "image/tiff":
		ext = ".tiff"
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	}
	f, err := os.CreateTemp(e.workDir, "deedline-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(artifact.Content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
