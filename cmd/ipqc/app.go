package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/ipqc-tracker/internal/catalog"
	"github.com/joseph-ayodele/ipqc-tracker/internal/checklists"
	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/export"
	"github.com/joseph-ayodele/ipqc-tracker/internal/llm"
	"github.com/joseph-ayodele/ipqc-tracker/internal/llm/anthropic"
	"github.com/joseph-ayodele/ipqc-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ocr"
	"github.com/joseph-ayodele/ipqc-tracker/internal/pipeline"
	"github.com/joseph-ayodele/ipqc-tracker/internal/repository"
)

// app holds the wired services for one command invocation.
type app struct {
	repo      repository.FormRepository
	svc       *checklists.Service
	extractor *ocr.Extractor
	closers   []func() error
}

func newApp(ctx context.Context, c *common.Config, logger *slog.Logger) (*app, error) {
	a := &app{}

	repo, err := repository.Open(ctx, repository.Config{
		Driver:           c.Database.Driver,
		DSN:              c.Database.DSN,
		MaxConns:         c.Database.MaxConns,
		MinConns:         c.Database.MinConns,
		MaxConnLifetime:  c.Database.MaxConnLifetime,
		MaxConnIdleTime:  c.Database.MaxConnIdleTime,
		DialTimeout:      c.Database.DialTimeout,
		StatementTimeout: c.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.repo = repo
	a.closers = append(a.closers, repo.Close)

	a.extractor = newOCRExtractor(c.OCR, logger)

	rec, err := a.recognizer(ctx, c, logger)
	if err != nil {
		_ = a.close()
		return nil, err
	}

	proc := pipeline.NewProcessor(pipeline.Config{
		CallSpacing:   c.Pipeline.CallSpacing,
		PageTimeout:   c.Pipeline.PageTimeout,
		SectionWindow: c.Pipeline.SectionWindow,
	}, catalog.Default(), rec, a.extractor, fieldExtractor(c.LLM, logger), logger)

	a.svc = checklists.NewService(repo, proc, export.NewService(catalog.Default(), logger), a.extractor, catalog.Default(), logger)
	return a, nil
}

func newOCRExtractor(c common.OCRConfig, logger *slog.Logger) *ocr.Extractor {
	return ocr.NewExtractor(ocr.Config{
		Pdftotext:     c.Pdftotext,
		Pdftoppm:      c.Pdftoppm,
		Pdfinfo:       c.Pdfinfo,
		Tesseract:     c.Tesseract,
		TesseractLang: c.TesseractLang,
		TessdataDir:   c.TessdataDir,
		DPI:           c.DPI,
		MaxPages:      catalog.PageCount,
		PSM:           c.PSM,
		OEM:           c.OEM,
	}, logger)
}

func (a *app) recognizer(ctx context.Context, c *common.Config, logger *slog.Logger) (pipeline.Recognizer, error) {
	switch c.OCR.Engine {
	case "vision":
		v, err := ocr.NewVisionRecognizer(ctx, c.OCR.VisionCredentials, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, v.Close)
		return v, nil
	case "read-api":
		return ocr.NewReadClient(ocr.ReadConfig{
			Endpoint:     c.OCR.ReadEndpoint,
			APIKey:       c.OCR.ReadAPIKey,
			PollAttempts: c.Pipeline.PollAttempts,
			PollInterval: c.Pipeline.PollInterval,
		}, logger)
	default:
		return a.extractor, nil
	}
}

// fieldExtractor returns nil when no provider is configured so the pipeline
// skips the model pass entirely.
func fieldExtractor(c common.LLMConfig, logger *slog.Logger) pipeline.FieldExtractor {
	var completer llm.Completer
	switch c.Provider {
	case "openai":
		completer = openai.NewClient(openai.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			Temperature: float32(c.Temperature),
			Timeout:     c.Timeout,
		}, logger)
	case "anthropic":
		completer = anthropic.NewClient(anthropic.Config{
			APIKey:      c.APIKey,
			BaseURL:     c.BaseURL,
			Model:       c.Model,
			MaxTokens:   c.MaxTokens,
			Temperature: c.Temperature,
			Timeout:     c.Timeout,
		}, logger)
	default:
		logger.Info("no llm provider configured, model extraction disabled")
		return nil
	}
	logger.Info("llm provider configured", "provider", completer.Name(), "model", c.Model)
	return llm.NewAdapter(llm.RetryPolicy{MaxAttempts: c.MaxAttempts, InitialBackoff: c.InitialBackoff}, logger, completer)
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = fmt.Errorf("close: %w", err)
		}
	}
	return first
}

// withApp wires the services, runs fn and releases them afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			logger.Warn("failed to release resources", "error", err)
		}
	}()
	return fn(a)
}
