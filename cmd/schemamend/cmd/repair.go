package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/solatis/schemamend/internal/core/config"
	"github.com/solatis/schemamend/internal/core/db"
	"github.com/solatis/schemamend/internal/repair"
	"github.com/solatis/schemamend/internal/types"
	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair drifted records from a JSONL or YAML file",
	Long: `Repair applies a plan to every record of the input and writes JSONL.

The plan comes from --plan-file (with --plan naming one of its plans), from
the database (--plan with --db-url), or inline from --path, --array-path and
--types.`,
	Example: `  schemamend repair --path order.id --types bigint,string --in orders.jsonl
  schemamend repair --path order.lines --array-path lines.price --types double,string
  schemamend repair --plan-file plans.yaml --plan orders-drift --on-error skip`,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
	f := repairCmd.Flags()
	f.String("plan-file", "", "YAML plan file")
	f.String("plan", "", "plan name (from --plan-file or the database)")
	f.String("path", "", "dotted path to the drifted field (inline plan)")
	f.String("array-path", "", "array field and sub-path to broadcast over (inline plan)")
	f.StringSlice("types", nil, "alternative type tags, canonical first (inline plan)")
	f.Bool("strict", false, "fail on impossible casts instead of yielding null")
	f.String("in", "-", "input file (- for stdin)")
	f.String("out", "-", "output file (- for stdout)")
	f.Int("workers", repair.DefaultWorkers, "parallel workers")
	f.String("on-error", "fail", "error policy (fail, skip, null)")
	f.String("format", "jsonl", "input format (jsonl, yaml)")
}

func runRepair(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	plan, err := resolvePlan(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(cmd)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(cmd)
	if err != nil {
		return err
	}

	var store *db.PlanStore
	runID := types.NewRunID()
	if dbURL != "" {
		database, queries, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()
		store = db.NewPlanStore(queries)
		if runID, err = store.StartRun(ctx, plan, "cli"); err != nil {
			return err
		}
	}

	runner := &repair.Runner{Workers: cfg.Repair.Workers}
	format, _ := cmd.Flags().GetString("format")
	var summary repair.Summary
	switch format {
	case "jsonl", "json":
		summary, err = runner.RunJSONL(ctx, plan, in, out)
	case "yaml", "yml":
		summary, err = runner.RunYAML(ctx, plan, in, out)
	default:
		err = fmt.Errorf("unsupported --format %q (expected jsonl or yaml)", format)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}

	if store != nil {
		if ferr := store.FinishRun(context.Background(), runID, summary, err); ferr != nil {
			slog.Warn("failed to record run outcome", "run_id", runID, "error", ferr)
		}
	}

	slog.Info("repair finished",
		"run_id", runID,
		"plan", plan.Name,
		"total", summary.Total,
		"repaired", summary.Repaired,
		"unchanged", summary.Unchanged,
		"failed", summary.Failed,
	)
	return err
}

// resolvePlan builds the compiled plan from a plan file, the database or the
// inline flags, applying --on-error when given.
func resolvePlan(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*repair.CompiledPlan, error) {
	flags := cmd.Flags()
	planFile, _ := flags.GetString("plan-file")
	planName, _ := flags.GetString("plan")
	path, _ := flags.GetString("path")
	arrayPath, _ := flags.GetString("array-path")
	typeTags, _ := flags.GetStringSlice("types")

	var plan types.Plan
	switch {
	case planFile != "":
		f, err := repair.LoadFile(planFile)
		if err != nil {
			return nil, err
		}
		engine := repair.NewEngine()
		if err := engine.Load(f); err != nil {
			return nil, err
		}
		if planName == "" {
			names := engine.Names()
			if len(names) != 1 {
				return nil, fmt.Errorf("--plan required: %s holds %d plans", planFile, len(names))
			}
			planName = names[0]
		}
		compiled, err := engine.Plan(planName)
		if err != nil {
			return nil, err
		}
		plan = *compiled.Source

	case planName != "":
		database, queries, err := openDB()
		if err != nil {
			return nil, fmt.Errorf("--plan without --plan-file reads the database: %w", err)
		}
		defer database.Close()
		rec, err := db.NewPlanStore(queries).GetPlan(ctx, planName)
		if err != nil {
			return nil, err
		}
		p, err := rec.Plan()
		if err != nil {
			return nil, err
		}
		plan = *p

	default:
		if len(typeTags) == 0 {
			return nil, fmt.Errorf("one of --plan-file, --plan or --types is required")
		}
		plan = types.Plan{
			Name:    "inline",
			OnError: cfg.Repair.OnError,
			Repairs: []types.Repair{{
				Path:      path,
				ArrayPath: arrayPath,
				Types:     typeTags,
				Strict:    cfg.Repair.StrictCast,
			}},
		}
	}

	if flags.Changed("on-error") {
		plan.OnError = cfg.Repair.OnError
	}
	return repair.Compile(&plan)
}

func openInput(cmd *cobra.Command) (io.Reader, func(), error) {
	name, _ := cmd.Flags().GetString("in")
	if name == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	name, _ := cmd.Flags().GetString("out")
	if name == "-" {
		w := bufio.NewWriter(os.Stdout)
		return w, w.Flush, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	w := bufio.NewWriter(f)
	return w, func() error {
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}, nil
}
