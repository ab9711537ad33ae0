package repair

import (
	"context"

	"github.com/solatis/schemamend/internal/types"
	"github.com/sourcegraph/conc/iter"
)

// DefaultWorkers is used when a Runner is configured with Workers <= 0.
const DefaultWorkers = 8

// Summary counts record outcomes of one batch.
type Summary struct {
	Total     int
	Repaired  int
	Unchanged int
	Failed    int
}

// Runner applies a plan to a batch of records on a bounded set of goroutines.
// Records are independent, so no coordination is needed beyond collecting
// results in input order.
type Runner struct {
	Workers int
}

type outcome struct {
	res Result
	err error
}

// Run applies plan to every record. Results are in input order.
// The returned error is the first (lowest index) record error surfaced by the
// plan's policy, or ctx.Err() if the context ended before all records ran.
// Records not yet started when ctx is done are marked failed with ctx.Err().
func (r *Runner) Run(ctx context.Context, plan *CompiledPlan, records []types.Value) ([]Result, Summary, error) {
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	mapper := iter.Mapper[types.Value, outcome]{MaxGoroutines: workers}
	outcomes := mapper.Map(records, func(rec *types.Value) outcome {
		if err := ctx.Err(); err != nil {
			return outcome{res: Result{Record: *rec, Status: StatusFailed, Err: err}, err: err}
		}
		res, err := Apply(plan, *rec)
		return outcome{res: res, err: err}
	})

	results := make([]Result, len(outcomes))
	summary := Summary{Total: len(outcomes)}
	var firstErr error
	for i, o := range outcomes {
		results[i] = o.res
		switch o.res.Status {
		case StatusRepaired:
			summary.Repaired++
		case StatusUnchanged:
			summary.Unchanged++
		default:
			summary.Failed++
		}
		if o.err != nil && firstErr == nil {
			firstErr = o.err
		}
	}
	return results, summary, firstErr
}
