package llm

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

// ErrNoFields is reported when no attempt produced a usable FieldMap.
var ErrNoFields = errors.New("llm: no provider produced fields")

// Result is the outcome of one provider attempt. Failures are values.
type Result struct {
	Provider string
	Fields   extract.FieldMap
	Err      error
}

// OK reports whether the attempt produced at least one field.
func (r Result) OK() bool { return r.Err == nil && len(r.Fields) > 0 }

// Attempt runs one provider lazily.
type Attempt func(ctx context.Context) Result

// ChooseFirstSuccessful runs attempts in order and stops at the first one that
// produces fields. It returns that result together with every result observed.
// When none succeed the returned result carries ErrNoFields.
func ChooseFirstSuccessful(ctx context.Context, attempts ...Attempt) (Result, []Result) {
	tried := make([]Result, 0, len(attempts))
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}, tried
		}
		r := a(ctx)
		tried = append(tried, r)
		if r.OK() {
			return r, tried
		}
	}
	return Result{Err: ErrNoFields}, tried
}
