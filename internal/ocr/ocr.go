package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Pdfinfo   string // binary name or absolute path; if empty -> "pdfinfo"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned pages, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // 6 suits the uniform table blocks of the check sheet
	OEM int // 1 = LSTM; leave 0 to use default
}

// Page is the recognized text of one document page.
type Page struct {
	Number     int
	Text       string
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "text"
	Confidence float32
}

type ExtractionResult struct {
	Pages      []Page
	SourceType string // constants.PDF | constants.IMAGE | constants.TEXT
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// Text joins the page texts with form feeds.
func (r ExtractionResult) Text() string {
	parts := make([]string, len(r.Pages))
	for i, p := range r.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n\f\n")
}

// Extractor drives the poppler and tesseract binaries. It rasterizes PDF
// pages, recognizes page images and reads PDF text layers.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Pdfinfo == "" {
		cfg.Pdfinfo = "pdfinfo"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Name identifies the recognizer in logs.
func (e *Extractor) Name() string { return "tesseract" }

// Extract reads every page of the file at path. PDF pages with a usable text
// layer are taken as is; the rest are rasterized and recognized.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	case constants.TEXT:
		res, err = extractText(path)
	default:
		e.logger.Error("ocr.extract.unsupported", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	res.Language = e.cfg.TesseractLang
	if err == nil {
		e.logger.Info("ocr.extract.ok", "path", path, "pages", len(res.Pages), "elapsed_ms", res.Duration.Milliseconds())
	}
	return res, err
}

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	txt, warns, err := e.tesseractFile(ctx, path)
	res := ExtractionResult{SourceType: constants.IMAGE, Warnings: warns}
	if err != nil {
		return res, err
	}
	conf := heuristicConfidence(txt)
	if e.cfg.EnableTSVConfidence {
		if c, err := e.tesseractTSVConfidence(ctx, path); err == nil && c > 0 {
			conf = 0.7*c + 0.3*conf
		} else if err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		}
	}
	res.Pages = []Page{{Number: 1, Text: txt, Method: "image-ocr", Confidence: conf}}
	return res, nil
}

func extractText(path string) (ExtractionResult, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ExtractionResult{SourceType: constants.TEXT}, fmt.Errorf("read text: %w", err)
	}
	res := ExtractionResult{SourceType: constants.TEXT}
	for i, chunk := range SplitPages(string(b)) {
		res.Pages = append(res.Pages, Page{Number: i + 1, Text: Normalize(chunk), Method: "text", Confidence: 1})
	}
	return res, nil
}

// SplitPages splits text on form feeds, the page separator of pdftotext and
// of pre-recognized text files.
func SplitPages(s string) []string {
	parts := strings.Split(s, "\f")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// tempDir creates a scratch directory and returns its cleanup.
func (e *Extractor) tempDir(pattern string) (string, func(), error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", nil, err
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("ocr.tempdir.cleanup_failed", "dir", dir, "error", err)
		}
	}, nil
}
