package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/solatis/schemamend/internal/core/api"
	"github.com/solatis/schemamend/internal/core/auth"
	"github.com/solatis/schemamend/internal/core/config"
	"github.com/solatis/schemamend/internal/core/db"
	"github.com/solatis/schemamend/internal/core/server"
	"github.com/solatis/schemamend/internal/repair"
	"github.com/spf13/cobra"
)

var repairAPICmd = &cobra.Command{
	Use:   "repair-api",
	Short: "Start the gRPC repair service",
	Long: `Serves RepairRecords and ListPlans over gRPC. Plans are loaded from the
database, or from --plan-file when given. SIGHUP reloads plans.`,
	RunE: runRepairAPI,
}

func init() {
	rootCmd.AddCommand(repairAPICmd)
	repairAPICmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	repairAPICmd.Flags().Int("port", 50061, "gRPC server port")
	repairAPICmd.Flags().String("data-dir", "./data", "directory for repaired-record logs")
	repairAPICmd.Flags().String("plan-file", "", "serve plans from this YAML file instead of the database")
}

func runRepairAPI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	logger := slog.Default()

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	database, queries, err := openDB()
	if err != nil {
		return err
	}
	defer database.Close()
	store := db.NewPlanStore(queries)

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
	}
	authenticator := auth.NewAuthenticator(secrets, queries)

	planFile, _ := cmd.Flags().GetString("plan-file")
	engine := repair.NewEngine()
	reload := func() error {
		if planFile != "" {
			f, err := repair.LoadFile(planFile)
			if err != nil {
				return err
			}
			return engine.Load(f)
		}
		return store.LoadInto(ctx, engine)
	}
	if err := reload(); err != nil {
		return fmt.Errorf("failed to load plans: %w", err)
	}

	service, err := api.NewRepairAPIService(engine, store, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.RepairAPI, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting schemamend repair API",
		"version", Version,
		"host", cfg.RepairAPI.Host,
		"port", cfg.RepairAPI.Port,
		"plans", len(engine.Names()),
	)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case err := <-errChan:
			return err
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				// A failed reload keeps the previous plans
				if err := reload(); err != nil {
					logger.Error("plan reload failed", "error", err)
				} else {
					logger.Info("plans reloaded", "plans", len(engine.Names()))
				}
				continue
			}
			logger.Info("shutting down gracefully")
			return grpcServer.Shutdown(ctx)
		}
	}
}
