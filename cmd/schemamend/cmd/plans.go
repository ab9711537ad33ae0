package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/solatis/schemamend/internal/core/db"
	"github.com/solatis/schemamend/internal/repair"
	"github.com/solatis/schemamend/internal/types"
	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage stored repair plans",
}

var plansImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Validate and store every plan of a YAML plan file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		f, err := repair.LoadFile(args[0])
		if err != nil {
			return err
		}

		// Validate the whole file before storing any of it
		engine := repair.NewEngine()
		if err := engine.Load(f); err != nil {
			return err
		}

		database, queries, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()
		store := db.NewPlanStore(queries)

		for _, plan := range engine.Plans() {
			rec, err := store.SavePlan(ctx, plan)
			if err != nil {
				return err
			}
			slog.Info("plan stored", "name", rec.Name, "plan_id", rec.PlanID, "checksum", rec.Checksum)
		}
		return nil
	},
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, queries, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		recs, err := db.NewPlanStore(queries).ListPlans(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tON ERROR\tREPAIRS\tCHECKSUM\tUPDATED")
		for i := range recs {
			repairs := "?"
			if p, err := recs[i].Plan(); err == nil {
				repairs = fmt.Sprint(len(p.Repairs))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.12s\t%s\n",
				recs[i].Name, recs[i].OnError, repairs, recs[i].Checksum, recs[i].UpdatedAt.UTC().Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var plansExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write every stored plan to a YAML plan file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, queries, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		recs, err := db.NewPlanStore(queries).ListPlans(context.Background())
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
		return repair.WriteFile(f, args[0])
	},
}

var plansRunsCmd = &cobra.Command{
	Use:   "runs <plan>",
	Short: "Show recent repair runs of a plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		database, queries, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		runs, err := db.NewPlanStore(queries).ListRuns(context.Background(), args[0], limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSOURCE\tSTATUS\tTOTAL\tREPAIRED\tUNCHANGED\tFAILED\tSTARTED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
				r.RunID, r.Source, r.Status, r.TotalRecords, r.RepairedCount, r.UnchangedCount, r.FailedCount,
				r.StartedAt.UTC().Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	plansRunsCmd.Flags().Int("limit", 20, "maximum runs to show")
	plansCmd.AddCommand(plansImportCmd, plansListCmd, plansExportCmd, plansRunsCmd)
	rootCmd.AddCommand(plansCmd)
}
