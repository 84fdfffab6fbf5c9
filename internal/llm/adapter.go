package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

// Adapter asks the configured providers, in order, for a page's fields.
type Adapter struct {
	providers []Completer
	policy    RetryPolicy
	logger    *slog.Logger
}

// NewAdapter builds an adapter over providers. With no providers Extract
// always returns an empty map.
func NewAdapter(policy RetryPolicy, logger *slog.Logger, providers ...Completer) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{providers: providers, policy: policy, logger: logger}
}

// Enabled reports whether any provider is configured.
func (a *Adapter) Enabled() bool { return a != nil && len(a.providers) > 0 }

// Extract returns the best-effort FieldMap for one page. It never fails: an
// unknown page, transport errors and unusable output all yield an empty map.
func (a *Adapter) Extract(ctx context.Context, page int, text string) extract.FieldMap {
	if !a.Enabled() {
		return extract.FieldMap{}
	}
	fields, ok := PagePrompt(page)
	if !ok {
		a.logger.Warn("llm.extract.unknown_page", "page", page)
		return extract.FieldMap{}
	}
	user := BuildUserPrompt(page, fields, text)

	attempts := make([]Attempt, len(a.providers))
	for i, p := range a.providers {
		attempts[i] = a.attempt(p, page, user)
	}

	best, tried := ChooseFirstSuccessful(ctx, attempts...)
	for _, r := range tried {
		if r.Err != nil {
			a.logger.Warn("llm.extract.provider_failed", "page", page, "provider", r.Provider, "error", r.Err)
		}
	}
	if !best.OK() {
		a.logger.Info("llm.extract.empty", "checklist_id", common.ChecklistIDFromContext(ctx), "page", page, "providers_tried", len(tried))
		return extract.FieldMap{}
	}
	a.logger.Info("llm.extract.ok", "checklist_id", common.ChecklistIDFromContext(ctx), "page", page, "provider", best.Provider, "fields", len(best.Fields))
	return best.Fields
}

func (a *Adapter) attempt(p Completer, page int, user string) Attempt {
	return func(ctx context.Context) Result {
		start := time.Now()
		raw, err := Retry(ctx, a.policy, a.logger, func(ctx context.Context) (string, error) {
			return p.Complete(ctx, SystemPrompt, user)
		})
		if err != nil {
			return Result{Provider: p.Name(), Err: err}
		}
		fields := Recover(raw, a.logger)
		a.logger.Debug("llm.extract.provider_done",
			"page", page,
			"provider", p.Name(),
			"fields", len(fields),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{Provider: p.Name(), Fields: fields}
	}
}
