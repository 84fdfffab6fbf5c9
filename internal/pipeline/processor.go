package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/ipqc-tracker/constants"
	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ocr"
	"github.com/joseph-ayodele/ipqc-tracker/internal/reconcile"
)

// Config holds pacing and bounds for a processing run.
type Config struct {
	CallSpacing   time.Duration // minimum gap between external OCR/LLM calls; 0 disables pacing
	PageTimeout   time.Duration // per page; 0 = no limit
	SectionWindow int           // multi-value table window in characters; 0 = default
}

// PageInput is one page of a checklist: an image to recognize, or text that
// was recognized earlier. Number is the printed page, 1..7.
type PageInput struct {
	Number int
	Image  []byte
	Text   string
}

// Processor runs pages through recognition, extraction, merge and apply.
// Pages are processed one after another; within a page the deterministic
// and model-backed extraction paths run together.
type Processor struct {
	catalog    *catalog.Catalog
	extractor  *extract.Extractor
	applier    *reconcile.Applier
	recognizer Recognizer
	rasterizer Rasterizer
	llm        FieldExtractor
	limiter    *rate.Limiter
	cfg        Config
	logger     *slog.Logger
}

func NewProcessor(cfg Config, cat *catalog.Catalog, rec Recognizer, ras Rasterizer, llm FieldExtractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	limit := rate.Inf
	if cfg.CallSpacing > 0 {
		limit = rate.Every(cfg.CallSpacing)
	}
	return &Processor{
		catalog:    cat,
		extractor:  extract.NewExtractor(cfg.SectionWindow, logger),
		applier:    reconcile.NewApplier(cat, logger),
		recognizer: rec,
		rasterizer: ras,
		llm:        llm,
		limiter:    rate.NewLimiter(limit, 1),
		cfg:        cfg,
		logger:     logger,
	}
}

// Applier exposes the applier so callers can record manual edits against
// the same catalog.
func (p *Processor) Applier() *reconcile.Applier { return p.applier }

// ProcessChecklist resets the session's report and processes pages in order.
// A failing page is logged and recorded on the session; the run always
// attempts every page. Only context cancellation stops it early.
func (p *Processor) ProcessChecklist(ctx context.Context, s *Session, pages []PageInput) (*Session, error) {
	return p.run(ctx, s, len(pages), func(_ context.Context, i int) (PageInput, error) {
		return pages[i], nil
	})
}

// ProcessDocument rasterizes pages 1..pageCount of a PDF and processes them.
// A pageCount of zero means the full check sheet.
func (p *Processor) ProcessDocument(ctx context.Context, s *Session, doc []byte, pageCount int) (*Session, error) {
	if p.rasterizer == nil {
		return s, fmt.Errorf("no rasterizer configured")
	}
	if pageCount <= 0 {
		pageCount = catalog.PageCount
	}
	return p.run(ctx, s, pageCount, func(ctx context.Context, i int) (PageInput, error) {
		img, err := p.rasterizer.RasterizePage(ctx, doc, i+1)
		if err != nil {
			return PageInput{Number: i + 1}, fmt.Errorf("rasterize: %w", err)
		}
		return PageInput{Number: i + 1, Image: img}, nil
	})
}

func (p *Processor) run(ctx context.Context, s *Session, n int, load func(context.Context, int) (PageInput, error)) (*Session, error) {
	start := time.Now()
	s.reset()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		in, err := load(ctx, i)
		if err == nil {
			err = p.ProcessPage(ctx, s, in)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s, ctxErr
			}
			p.logger.Error("pipeline.page.failed", "checklist_id", s.Form.ChecklistID, "page", in.Number, "error", err)
			s.Failures = append(s.Failures, PageFailure{Page: in.Number, Error: err.Error()})
		}
	}
	sum := s.Report.Summary()
	p.logger.Info("pipeline.run.done",
		"checklist_id", s.Form.ChecklistID,
		"pages", n,
		"processed", len(s.ProcessedPages()),
		"failed", len(s.Failures),
		"success", sum.Success, "doubtful", sum.Doubtful, "missing", sum.Missing,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return s, nil
}

// ProcessPage recognizes, extracts and applies one page. On error the form is
// left exactly as it was.
func (p *Processor) ProcessPage(ctx context.Context, s *Session, in PageInput) (err error) {
	if in.Number < 1 || in.Number > catalog.PageCount {
		return fmt.Errorf("page %d out of range 1..%d", in.Number, catalog.PageCount)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: panic: %v", in.Number, r)
		}
	}()

	if p.cfg.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PageTimeout)
		defer cancel()
	}
	start := time.Now()
	p.logger.Info("pipeline.page.start", "checklist_id", s.Form.ChecklistID, "page", in.Number)

	text, method, err := p.recognize(ctx, in)
	if err != nil {
		return err
	}

	var keyword, regex, llm extract.FieldMap
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		keyword = p.extractor.Keyword(in.Number, text)
		regex = p.extractor.Regex(in.Number, text)
		return nil
	})
	g.Go(func() error {
		if p.llm == nil {
			return nil
		}
		if err := p.limiter.Wait(gctx); err != nil {
			return err
		}
		llm = p.llm.Extract(gctx, in.Number, text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	merged := reconcile.Merge(keyword, regex, llm)
	header := p.extractor.Header(text)

	// Nothing below can fail: the form only changes once the page is complete.
	s.Form.Header.Merge(header)
	entries := p.applier.Apply(in.Number, merged, s.Form)
	s.Report.Append(entries...)
	s.Processed[in.Number] = true
	if s.Form.Status == constants.FormStatusPending {
		_ = s.Form.Advance(constants.FormStatusOCRProcessed)
	}

	p.logger.Info("pipeline.page.ok",
		"checklist_id", s.Form.ChecklistID,
		"page", in.Number,
		"method", method,
		"keyword_fields", len(keyword),
		"regex_fields", len(regex),
		"llm_fields", len(llm),
		"merged_fields", len(merged),
		"entries", len(entries),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Processor) recognize(ctx context.Context, in PageInput) (string, string, error) {
	if in.Text != "" {
		return ocr.Normalize(in.Text), "text", nil
	}
	if len(in.Image) == 0 {
		return "", "", fmt.Errorf("page %d has neither text nor image", in.Number)
	}
	if p.recognizer == nil {
		return "", "", fmt.Errorf("no recognizer configured")
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return "", "", err
	}
	text, err := p.recognizer.Recognize(ctx, in.Image)
	if err != nil {
		return "", "", fmt.Errorf("recognize: %w", err)
	}
	return ocr.Normalize(text), "ocr", nil
}
