package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
)

var rePdfinfoPages = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		res.Warnings = append(res.Warnings, string(errb))
		return res, fmt.Errorf("pdftotext: %w", err)
	}
	chunks := strings.Split(string(out), "\f")
	if len(chunks) > 1 && strings.TrimSpace(chunks[len(chunks)-1]) == "" {
		chunks = chunks[:len(chunks)-1]
	}
	if e.cfg.MaxPages > 0 && len(chunks) > e.cfg.MaxPages {
		chunks = chunks[:e.cfg.MaxPages]
	}

	for i, chunk := range chunks {
		n := i + 1
		txt := Normalize(chunk)
		if conf := heuristicConfidence(txt); conf >= TextLayerThreshold {
			res.Pages = append(res.Pages, Page{Number: n, Text: txt, Method: "pdf-text", Confidence: conf})
			continue
		}
		txt, warns, err := e.ocrPDFPage(ctx, path, n)
		res.Warnings = append(res.Warnings, warns...)
		if err != nil {
			e.logger.Warn("ocr.pdf.page_failed", "path", path, "page", n, "error", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", n, err))
		}
		res.Pages = append(res.Pages, Page{Number: n, Text: txt, Method: "pdf-ocr", Confidence: heuristicConfidence(txt)})
	}
	return res, nil
}

func (e *Extractor) ocrPDFPage(ctx context.Context, path string, page int) (string, []string, error) {
	dir, cleanup, err := e.tempDir("ipqc-pp-*")
	if err != nil {
		return "", nil, err
	}
	defer cleanup()

	png, errb, err := e.renderPage(ctx, path, dir, page)
	if err != nil {
		return "", []string{string(errb)}, err
	}
	return e.tesseractFile(ctx, png)
}

// renderPage runs pdftoppm for a single 1-based page and returns the PNG path.
func (e *Extractor) renderPage(ctx context.Context, pdfPath, dir string, page int) (string, []byte, error) {
	prefix := filepath.Join(dir, "page")
	n := strconv.Itoa(page)
	// pdftoppm -r 300 -png -f N -l N -singlefile <in.pdf> <dir/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", strconv.Itoa(e.cfg.DPI), "-png", "-f", n, "-l", n, "-singlefile", pdfPath, prefix)
	if err != nil {
		return "", errb, fmt.Errorf("pdftoppm page %d: %w", page, err)
	}
	return prefix + ".png", nil, nil
}

// RasterizePage renders one 1-based page of a PDF document to PNG bytes.
func (e *Extractor) RasterizePage(ctx context.Context, doc []byte, page int) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("page %d out of range", page)
	}
	dir, cleanup, err := e.tempDir("ipqc-raster-*")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, doc, 0o600); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	png, _, err := e.renderPage(ctx, in, dir, page)
	if err != nil {
		return nil, err
	}
	img, err := os.ReadFile(png)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm produced no image for page %d: %w", page, err)
	}
	return img, nil
}

// PageCount reports the number of pages of a PDF document using pdfinfo.
func (e *Extractor) PageCount(ctx context.Context, doc []byte) (int, error) {
	dir, cleanup, err := e.tempDir("ipqc-info-*")
	if err != nil {
		return 0, err
	}
	defer cleanup()

	in := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(in, doc, 0o600); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	out, _, err := e.runner.Run(ctx, e.cfg.Pdfinfo, in)
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	m := rePdfinfoPages.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("pdfinfo: no page count in output")
	}
	n, _ := strconv.Atoi(string(m[1]))
	if e.cfg.MaxPages > 0 && n > e.cfg.MaxPages {
		n = e.cfg.MaxPages
	}
	return n, nil
}
