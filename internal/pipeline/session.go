package pipeline

import (
	"sort"

	"github.com/joseph-ayodele/ipqc-tracker/internal/entity"
	"github.com/joseph-ayodele/ipqc-tracker/internal/reconcile"
)

// PageFailure records a page that could not be processed.
type PageFailure struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

// Session is the state threaded through a processing run: the form being
// filled, the running report and the pages done so far.
type Session struct {
	Form      *entity.Form
	Report    *reconcile.Report
	Processed map[int]bool
	Failures  []PageFailure
}

func NewSession(form *entity.Form) *Session {
	return &Session{
		Form:      form,
		Report:    &reconcile.Report{},
		Processed: make(map[int]bool),
	}
}

// ProcessedPages lists the successfully processed pages in order.
func (s *Session) ProcessedPages() []int {
	out := make([]int, 0, len(s.Processed))
	for p, ok := range s.Processed {
		if ok {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// Failed reports whether page failed in this run.
func (s *Session) Failed(page int) bool {
	for _, f := range s.Failures {
		if f.Page == page {
			return true
		}
	}
	return false
}

func (s *Session) reset() {
	s.Report.Reset()
	s.Failures = nil
	s.Processed = make(map[int]bool)
}
