// Package api implements the schemamend repair gRPC service.
package api

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/solatis/schemamend/internal/core/config"
	"github.com/solatis/schemamend/internal/core/db"
	"github.com/solatis/schemamend/internal/repair"
)

// RepairAPIService implements RepairAPIServer.
// Thin orchestration layer over the repair engine, runner and plan store.
type RepairAPIService struct {
	engine       *repair.Engine
	store        *db.PlanStore
	runner       *repair.Runner
	cfg          *config.RepairAPIConfig
	logger       *slog.Logger
	jsonlMutexes map[string]*sync.Mutex
	mutexLock    sync.Mutex
}

// NewRepairAPIService creates the service. store may be nil, in which case
// runs are not recorded. Creates the runs output directory if missing.
func NewRepairAPIService(engine *repair.Engine, store *db.PlanStore, cfg *config.Config, logger *slog.Logger) (*RepairAPIService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	runsDir := filepath.Join(cfg.RepairAPI.DataDir, "runs")
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return nil, err
	}

	return &RepairAPIService{
		engine:       engine,
		store:        store,
		runner:       &repair.Runner{Workers: cfg.Repair.Workers},
		cfg:          &cfg.RepairAPI,
		logger:       logger,
		jsonlMutexes: make(map[string]*sync.Mutex),
	}, nil
}

// getJSONLMutex returns the mutex guarding one daily JSONL file.
// The map grows by one entry per day of uptime.
func (s *RepairAPIService) getJSONLMutex(filename string) *sync.Mutex {
	s.mutexLock.Lock()
	defer s.mutexLock.Unlock()

	if _, ok := s.jsonlMutexes[filename]; !ok {
		s.jsonlMutexes[filename] = &sync.Mutex{}
	}
	return s.jsonlMutexes[filename]
}
