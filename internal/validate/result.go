package validate

import (
	"time"
)

// Outcome classifies one probed URL.
type Outcome string

const (
	OutcomeValid   Outcome = "valid"
	OutcomeInvalid Outcome = "invalid"
	// OutcomeSkipped means every attempt hit 429 (or a block) and no verdict was reached.
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
	// OutcomeCached means a fresh probe-cache row was used; Valid carries its verdict.
	OutcomeCached Outcome = "cached"
)

// Result is the outcome of checking one candidate URL.
type Result struct {
	URL        string
	Outcome    Outcome
	Valid      bool
	StatusCode int
	Method     string // request method that decided the outcome
	Attempts   int
	Proxy      string // proxy host used for the deciding attempt, "" when direct
	Latency    time.Duration
	Err        error
}

// Report aggregates a Run.
type Report struct {
	// Valid lists valid URLs in candidate order.
	Valid   []string
	Results []Result
	Invalid int
	Skipped int
	Errors  int
	Cached  int
	// Pending counts URLs never checked because the run was cancelled.
	Pending  int
	Duration time.Duration
}

// Total is the number of URLs that produced a result.
func (r Report) Total() int { return len(r.Results) }
