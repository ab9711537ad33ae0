package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/schemamend/internal/repair"
	"github.com/solatis/schemamend/internal/types"
)

/*
 * Persistence for repair plans and repair runs.
 *
 * Plans are stored by name in their YAML form with the checksum computed at
 * compile time; saving a plan under an existing name replaces its definition
 * and keeps its plan_id. Runs are inserted as running when a batch starts and
 * finished with the outcome counts, so an interrupted batch stays visible as
 * running.
 */

// Run status values stored in repair_runs.status.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// PlanRecord is a stored plan row.
type PlanRecord struct {
	PlanID      string    `db:"plan_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	OnError     string    `db:"on_error"`
	Definition  string    `db:"definition"`
	Checksum    string    `db:"checksum"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Plan parses the stored YAML definition.
func (r *PlanRecord) Plan() (*types.Plan, error) {
	p, err := repair.ParsePlan([]byte(r.Definition))
	if err != nil {
		return nil, fmt.Errorf("stored plan %s: %w", r.Name, err)
	}
	return p, nil
}

// RunRecord is a stored repair run row.
type RunRecord struct {
	RunID          string         `db:"run_id"`
	PlanName       string         `db:"plan_name"`
	PlanChecksum   string         `db:"plan_checksum"`
	Source         string         `db:"source"`
	Status         string         `db:"status"`
	TotalRecords   int            `db:"total_records"`
	RepairedCount  int            `db:"repaired_count"`
	UnchangedCount int            `db:"unchanged_count"`
	FailedCount    int            `db:"failed_count"`
	ErrorMessage   sql.NullString `db:"error_message"`
	StartedAt      time.Time      `db:"started_at"`
	FinishedAt     sql.NullTime   `db:"finished_at"`
}

// Summary returns the run's outcome counts.
func (r *RunRecord) Summary() repair.Summary {
	return repair.Summary{
		Total:     r.TotalRecords,
		Repaired:  r.RepairedCount,
		Unchanged: r.UnchangedCount,
		Failed:    r.FailedCount,
	}
}

// PlanStore reads and writes plans and runs through named queries.
type PlanStore struct {
	q *Queries
}

// NewPlanStore creates a store over loaded queries.
func NewPlanStore(q *Queries) *PlanStore {
	return &PlanStore{q: q}
}

// SavePlan inserts or replaces the plan with the compiled plan's name.
func (s *PlanStore) SavePlan(ctx context.Context, plan *repair.CompiledPlan) (*PlanRecord, error) {
	def, err := repair.MarshalPlan(plan.Source)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", plan.Name, err)
	}

	now := time.Now().UTC()
	_, err = s.q.Exec(ctx, "upsert-plan",
		string(types.NewPlanID()),
		plan.Name,
		plan.Description,
		string(plan.OnError),
		string(def),
		plan.Checksum,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("save plan %s: %w", plan.Name, err)
	}
	return s.GetPlan(ctx, plan.Name)
}

// GetPlan returns the stored plan or ErrPlanNotFound.
func (s *PlanStore) GetPlan(ctx context.Context, name string) (*PlanRecord, error) {
	var rec PlanRecord
	err := s.q.Get(ctx, "get-plan-by-name", &rec, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, types.ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", name, err)
	}
	return &rec, nil
}

// ListPlans returns all stored plans ordered by name.
func (s *PlanStore) ListPlans(ctx context.Context) ([]PlanRecord, error) {
	var recs []PlanRecord
	if err := s.q.Select(ctx, "list-plans", &recs); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return recs, nil
}

// LoadInto compiles every stored plan and loads them into engine.
func (s *PlanStore) LoadInto(ctx context.Context, engine *repair.Engine) error {
	recs, err := s.ListPlans(ctx)
	if err != nil {
		return err
	}
	f := &repair.File{Version: "1", Plans: make([]types.Plan, 0, len(recs))}
	for i := range recs {
		p, err := recs[i].Plan()
		if err != nil {
			return err
		}
		f.Plans = append(f.Plans, *p)
	}
	return engine.Load(f)
}

// StartRun records the start of a batch and returns its run ID.
// source identifies the caller, e.g. "cli" or "api:<client_id>".
func (s *PlanStore) StartRun(ctx context.Context, plan *repair.CompiledPlan, source string) (types.RunID, error) {
	id := types.NewRunID()
	_, err := s.q.Exec(ctx, "insert-run",
		string(id),
		plan.Name,
		plan.Checksum,
		source,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("start run for %s: %w", plan.Name, err)
	}
	return id, nil
}

// FinishRun stores the batch outcome. A non-nil runErr marks the run failed.
func (s *PlanStore) FinishRun(ctx context.Context, id types.RunID, summary repair.Summary, runErr error) error {
	status := RunCompleted
	var msg sql.NullString
	if runErr != nil {
		status = RunFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := s.q.Exec(ctx, "finish-run",
		status,
		summary.Total,
		summary.Repaired,
		summary.Unchanged,
		summary.Failed,
		msg,
		time.Now().UTC(),
		string(id),
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, types.ErrRunNotFound)
	}
	return nil
}

// GetRun returns the stored run or ErrRunNotFound.
func (s *PlanStore) GetRun(ctx context.Context, id types.RunID) (*RunRecord, error) {
	var rec RunRecord
	err := s.q.Get(ctx, "get-run", &rec, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, types.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &rec, nil
}

// ListRuns returns up to limit most recent runs of a plan.
func (s *PlanStore) ListRuns(ctx context.Context, planName string, limit int) ([]RunRecord, error) {
	var recs []RunRecord
	if err := s.q.Select(ctx, "list-runs-by-plan", &recs, planName, limit); err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", planName, err)
	}
	return recs, nil
}
