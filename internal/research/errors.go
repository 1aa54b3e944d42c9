package research

import (
	"errors"
	"fmt"

	"github.com/agcreativegroup/News-Research-Tool/models"
	"github.com/agcreativegroup/News-Research-Tool/news"
)

// Pipeline failure kinds. Boundary kinds pass through unchanged, so a
// caller sees the same taxonomy the fetch and model layers emit.
const (
	KindInvalidQuery = "invalid_query"
	KindCache        = "cache_error"
)

// PipelineError is the categorized failure a run surfaces to callers.
// The message is safe to show to users and never carries raw provider
// text. Partial holds whatever the run collected before failing, when
// anything was collected at all.
type PipelineError struct {
	Kind    string
	Message string
	Partial *models.ResearchResult
	cause   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.cause }

// AsPipelineError unwraps err to a *PipelineError when one is in the chain.
func AsPipelineError(err error) (*PipelineError, bool) {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

func invalidQuery(detail string) *PipelineError {
	return &PipelineError{
		Kind:    KindInvalidQuery,
		Message: "invalid query: " + detail,
	}
}

func invalidDateRange() *PipelineError {
	return &PipelineError{
		Kind:    KindInvalidQuery,
		Message: "invalid date range",
	}
}

func fromFetchError(ferr *news.FetchError) *PipelineError {
	return &PipelineError{
		Kind:    string(ferr.Kind),
		Message: ferr.Message,
		cause:   ferr,
	}
}
