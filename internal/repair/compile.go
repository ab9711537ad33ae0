// internal/repair/compile.go
package repair

import (
	"crypto/sha256"
	"fmt"

	"github.com/solatis/schemamend/internal/nested"
	"github.com/solatis/schemamend/internal/types"
)

/*
 * Plan compilation and validation.
 *
 * Compiles types.Plan to CompiledPlan with parsed paths, bound coalescers and
 * a content checksum, so per-record application does no parsing.
 *
 * Compilation workflow:
 *   1. Validate plan shape (name, at least one repair, known error policy)
 *   2. Parse path and array path (empty segments rejected)
 *   3. Enforce MaxPathDepth and MaxAlternatives
 *   4. Bind a nested.Coalescer per repair
 *   5. Checksum the YAML form for storage and change detection
 *
 * Why compile-time validation: malformed paths are a property of the plan,
 * not of any record, so they are reported once when the plan is loaded
 * instead of once per record.
 */

// CompiledRepair is a pre-processed repair ready for application.
type CompiledRepair struct {
	Repair    types.Repair
	Path      nested.Path
	ArrayPath nested.Path
	Coalescer *nested.Coalescer
}

// CompiledPlan is fully pre-processed and ready for application.
type CompiledPlan struct {
	Name        string
	Description string
	OnError     types.ErrorPolicy
	Repairs     []CompiledRepair
	Checksum    string // hex SHA256 of the plan's YAML form
	Source      *types.Plan
}

// Compile validates and pre-processes a plan.
func Compile(plan *types.Plan) (*CompiledPlan, error) {
	if plan.Name == "" || len(plan.Repairs) == 0 {
		return nil, types.ErrEmptyPlan
	}

	policy := plan.OnError
	if policy == "" {
		policy = types.OnErrorFail
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("plan %s: %q: %w", plan.Name, plan.OnError, types.ErrUnknownErrorPolicy)
	}

	compiled := &CompiledPlan{
		Name:        plan.Name,
		Description: plan.Description,
		OnError:     policy,
		Repairs:     make([]CompiledRepair, 0, len(plan.Repairs)),
	}

	for i, r := range plan.Repairs {
		cr, err := compileRepair(r)
		if err != nil {
			return nil, fmt.Errorf("plan %s repair %d: %w", plan.Name, i, err)
		}
		compiled.Repairs = append(compiled.Repairs, cr)
	}

	src := *plan
	src.OnError = policy
	compiled.Source = &src

	data, err := MarshalPlan(&src)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", plan.Name, err)
	}
	compiled.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))

	return compiled, nil
}

// compileRepair parses paths, enforces depth and alternative limits, and
// binds the coalescer.
func compileRepair(r types.Repair) (CompiledRepair, error) {
	path, err := nested.ParsePath(r.Path)
	if err != nil {
		return CompiledRepair{}, err
	}
	arrayPath, err := nested.ParsePath(r.ArrayPath)
	if err != nil {
		return CompiledRepair{}, err
	}

	if len(path)+len(arrayPath) > types.MaxPathDepth {
		return CompiledRepair{}, types.ErrPathTooDeep
	}

	if len(r.Types) > types.MaxAlternatives {
		return CompiledRepair{}, types.ErrTooManyAlternatives
	}
	c, err := nested.NewCoalescer(r.Types...)
	if err != nil {
		return CompiledRepair{}, err
	}
	c.Strict = r.Strict

	return CompiledRepair{
		Repair:    r,
		Path:      path,
		ArrayPath: arrayPath,
		Coalescer: c,
	}, nil
}
