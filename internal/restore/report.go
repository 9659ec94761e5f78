package restore

import (
	"time"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

// Outcome is what happened to one record during a restore pass.
type Outcome string

// Outcomes.
const (
	OutcomeRestored Outcome = "restored"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
)

// Result is the outcome for a single record.
type Result struct {
	Record  types.ActionRecord
	Outcome Outcome
	Err     error
}

// Report summarises a restore pass. Results are in processing order, which
// is the reverse of the log order.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Restored   int
	Skipped    int
	Failed     int
	Canceled   bool
	Results    []Result
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Outcome {
	case OutcomeRestored:
		r.Restored++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// Warnings returns the results that failed.
func (r *Report) Warnings() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			out = append(out, res)
		}
	}
	return out
}

// Processed is the number of records the pass reached before finishing or
// being canceled.
func (r *Report) Processed() int { return len(r.Results) }
