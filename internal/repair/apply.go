// internal/repair/apply.go
package repair

import (
	"fmt"

	"github.com/solatis/schemamend/internal/nested"
	"github.com/solatis/schemamend/internal/types"
)

/*
 * Plan application.
 *
 * Applies a CompiledPlan's repairs in order to one record. Each repair is a
 * nested rebuild with the repair's coalescer as the leaf.
 *
 * Error policies:
 *   - fail: surface the error; the result keeps the original record
 *   - skip: keep the original record, report failure, no error returned
 *   - null: a leaf that fails (bad cast in strict mode, missing alternative,
 *     non-struct drift value) yields a null of the canonical type instead.
 *     Structural failures on the way to the leaf cannot be nulled and are
 *     surfaced as with fail.
 *
 * Status: repaired when the output differs from the input, unchanged when the
 * plan was a no-op for this record (already repaired, or null all the way).
 */

// Status classifies the outcome for one record.
type Status string

const (
	StatusRepaired  Status = "repaired"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// Result is the outcome of applying a plan to one record.
type Result struct {
	Record types.Value // repaired record, or the original when failed
	Status Status
	Err    error // set when Status is failed
}

// Apply runs every repair of plan against record.
// Returns an error only under the fail (and, for structural errors, null)
// policies; the Result is populated either way.
func Apply(plan *CompiledPlan, record types.Value) (Result, error) {
	cur := record
	for i := range plan.Repairs {
		r := &plan.Repairs[i]
		next, err := nested.Rebuild(cur, r.Path, r.leaf(plan.OnError), r.ArrayPath)
		if err != nil {
			err = fmt.Errorf("repair %d (%s): %w", i, r.describe(), err)
			if plan.OnError == types.OnErrorSkip {
				return Result{Record: record, Status: StatusFailed, Err: err}, nil
			}
			return Result{Record: record, Status: StatusFailed, Err: err}, err
		}
		cur = next
	}

	status := StatusUnchanged
	if !cur.Equal(record) {
		status = StatusRepaired
	}
	return Result{Record: cur, Status: status}, nil
}

// leaf returns the coalescing leaf, made tolerant under the null policy.
func (r *CompiledRepair) leaf(policy types.ErrorPolicy) nested.LeafFunc {
	leaf := r.Coalescer.Leaf()
	if policy != types.OnErrorNull {
		return leaf
	}
	canonical := r.Coalescer.Canonical()
	return func(v types.Value, p nested.Path) (types.Value, error) {
		out, err := leaf(v, p)
		if err != nil {
			return types.Null(canonical), nil
		}
		return out, nil
	}
}

func (r *CompiledRepair) describe() string {
	if len(r.ArrayPath) == 0 {
		return r.Path.String()
	}
	return r.Path.String() + "[" + r.ArrayPath.String() + "]"
}
