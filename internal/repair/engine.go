package repair

import (
	"fmt"
	"sort"
	"sync"

	"github.com/solatis/schemamend/internal/types"
)

// Engine holds compiled plans by name for the CLI and the repair service.
// Safe for concurrent use; Load swaps the whole set atomically.
type Engine struct {
	mu    sync.RWMutex
	plans map[string]*CompiledPlan
}

// NewEngine creates an empty engine.
func NewEngine() *Engine {
	return &Engine{plans: make(map[string]*CompiledPlan)}
}

// Register compiles and adds a plan. Returns ErrDuplicatePlan if the name is taken.
func (e *Engine) Register(plan *types.Plan) (*CompiledPlan, error) {
	compiled, err := Compile(plan)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.plans[compiled.Name]; exists {
		return nil, fmt.Errorf("%s: %w", compiled.Name, types.ErrDuplicatePlan)
	}
	e.plans[compiled.Name] = compiled
	return compiled, nil
}

// Load compiles every plan in f and replaces the engine's plans with them.
// Nothing changes if any plan fails to compile.
func (e *Engine) Load(f *File) error {
	next := make(map[string]*CompiledPlan, len(f.Plans))
	for i := range f.Plans {
		compiled, err := Compile(&f.Plans[i])
		if err != nil {
			return err
		}
		if _, exists := next[compiled.Name]; exists {
			return fmt.Errorf("%s: %w", compiled.Name, types.ErrDuplicatePlan)
		}
		next[compiled.Name] = compiled
	}

	e.mu.Lock()
	e.plans = next
	e.mu.Unlock()
	return nil
}

// Plan returns the named plan or ErrPlanNotFound.
func (e *Engine) Plan(name string) (*CompiledPlan, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.plans[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, types.ErrPlanNotFound)
	}
	return p, nil
}

// Plans returns all plans sorted by name.
func (e *Engine) Plans() []*CompiledPlan {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*CompiledPlan, 0, len(e.plans))
	for _, p := range e.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns plan names in sorted order.
func (e *Engine) Names() []string {
	plans := e.Plans()
	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = p.Name
	}
	return names
}
