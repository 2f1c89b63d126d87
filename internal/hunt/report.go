package hunt

import (
	"time"

	"github.com/jonathan/jobhunter/internal/types"
)

// OutcomeKind classifies the result of dispatching one posting.
type OutcomeKind string

const (
	OutcomeEmailed          OutcomeKind = "emailed"
	OutcomeAppliedInline    OutcomeKind = "applied-inline"
	OutcomeSkippedNoChannel OutcomeKind = "skipped-no-channel"
	OutcomeFailed           OutcomeKind = "failed"
)

// Outcome is the dispatch result for a posting. Reason is set for failures.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Failed returns a failure outcome.
func Failed(reason string) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

func (o Outcome) String() string {
	if o.Kind == OutcomeFailed {
		return "failed(" + o.Reason + ")"
	}
	return string(o.Kind)
}

// Succeeded reports whether the posting was applied to.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeEmailed || o.Kind == OutcomeAppliedInline
}

// Item pairs a dispatched posting with its outcome.
type Item struct {
	Posting *types.Posting
	Outcome Outcome
}

// Report summarizes one run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Discovered counts listings returned by discovery, across titles.
	Discovered int
	// AlreadyApplied counts listings skipped before extraction.
	AlreadyApplied int
	// ExtractionFailures counts listings whose detail view was unusable.
	ExtractionFailures int

	Items []Item
	// PlatformErrors holds the failure that ended a platform early.
	PlatformErrors map[types.Platform]string
}

// Count returns how many items ended with kind.
func (r *Report) Count(kind OutcomeKind) int {
	n := 0
	for _, it := range r.Items {
		if it.Outcome.Kind == kind {
			n++
		}
	}
	return n
}

// Applied returns how many items were applied to.
func (r *Report) Applied() int {
	return r.Count(OutcomeEmailed) + r.Count(OutcomeAppliedInline)
}

func (r *Report) platformFailed(p types.Platform, err error) {
	if r.PlatformErrors == nil {
		r.PlatformErrors = map[types.Platform]string{}
	}
	r.PlatformErrors[p] = err.Error()
}
