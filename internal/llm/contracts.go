package llm

import "context"

// Completer sends one system + user prompt pair to a text-generation service
// and returns the raw text of the first completion. The text is not assumed
// to be valid JSON.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}
