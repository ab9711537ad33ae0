package api

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/solatis/schemamend/internal/codec"
	"github.com/solatis/schemamend/internal/core/auth"
	"github.com/solatis/schemamend/internal/repair"
	"github.com/solatis/schemamend/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// RepairRecords applies a named plan to a batch of JSON records.
// Record failures (bad JSON, repair errors under any policy) fail that record
// only; the batch fails for unknown plans, oversize batches, storage errors
// and request timeouts.
func (s *RepairAPIService) RepairRecords(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	clientID := auth.ClientIDFromContext(ctx)
	if clientID == "" {
		return nil, status.Error(codes.Internal, "missing client_id in context")
	}

	req, err := ParseRepairRecordsRequest(in)
	if err != nil {
		return nil, invalidArgument("%v", err)
	}
	if req.Plan == "" {
		return nil, invalidArgument("plan required")
	}
	if len(req.Records) == 0 {
		return nil, invalidArgument("records required")
	}
	if len(req.Records) > s.cfg.MaxBatchSize {
		return nil, invalidArgument("batch size exceeds maximum of %d records", s.cfg.MaxBatchSize)
	}

	plan, err := s.engine.Plan(req.Plan)
	if err != nil {
		return nil, statusError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	// Output file is fixed at request start so a batch spanning midnight
	// lands in one file
	jsonlFilename := filepath.Join(s.cfg.DataDir, "runs", time.Now().UTC().Format("2006-01-02.jsonl"))

	runID := types.NewRunID()
	if s.store != nil {
		if runID, err = s.store.StartRun(ctx, plan, "api:"+clientID); err != nil {
			return nil, statusError(err)
		}
	}

	results, summary, err := s.repairBatch(ctx, plan, req.Records)
	if s.store != nil {
		// Recorded even when the request context has ended
		finishCtx, finishCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if ferr := s.store.FinishRun(finishCtx, runID, summary, err); ferr != nil {
			s.logger.Warn("failed to record run outcome", "run_id", runID, "error", ferr)
		}
		finishCancel()
	}
	if err != nil {
		return nil, statusError(err)
	}

	s.appendJSONL(jsonlFilename, s.getJSONLMutex(jsonlFilename), results)

	resp := &RepairRecordsResponse{
		RunID:          string(runID),
		RepairedCount:  summary.Repaired,
		UnchangedCount: summary.Unchanged,
		FailedCount:    summary.Failed,
		Results:        make([]RecordResult, len(results)),
	}
	for i, r := range results {
		resp.Results[i] = r.wire(i, req.Records[i])
	}

	s.logger.Debug("repaired batch",
		"run_id", runID,
		"plan", plan.Name,
		"client_id", clientID,
		"total", summary.Total,
		"repaired", summary.Repaired,
		"failed", summary.Failed,
	)

	return resp.Struct()
}

// batchResult pairs a repair result with its encoded output.
type batchResult struct {
	repair.Result
	encoded []byte
}

func (r batchResult) wire(index int, input string) RecordResult {
	out := RecordResult{Index: index, Status: string(r.Status), Record: input}
	if r.Err != nil {
		out.Error = r.Err.Error()
		return out
	}
	out.Record = string(r.encoded)
	return out
}

// repairBatch decodes records, runs the plan over the decodable ones and
// merges decode failures back in input order. Returns an error only when ctx
// ended before the batch completed.
func (s *RepairAPIService) repairBatch(ctx context.Context, plan *repair.CompiledPlan, raw []string) ([]batchResult, repair.Summary, error) {
	results := make([]batchResult, len(raw))
	summary := repair.Summary{Total: len(raw)}

	decoded := make([]types.Value, 0, len(raw))
	positions := make([]int, 0, len(raw))
	for i, rec := range raw {
		if len(rec) > types.MaxRecordSize {
			results[i] = failed(types.ErrRecordTooLarge)
			summary.Failed++
			continue
		}
		v, err := codec.DecodeJSON([]byte(rec))
		if err != nil {
			results[i] = failed(err)
			summary.Failed++
			continue
		}
		decoded = append(decoded, v)
		positions = append(positions, i)
	}

	// Record errors are carried per result; the runner's first error is not
	// a batch failure here
	repaired, runSummary, _ := s.runner.Run(ctx, plan, decoded)
	if err := ctx.Err(); err != nil {
		summary.Failed = summary.Total
		return nil, summary, err
	}
	summary.Repaired = runSummary.Repaired
	summary.Unchanged = runSummary.Unchanged
	summary.Failed += runSummary.Failed

	for j, res := range repaired {
		br := batchResult{Result: res}
		if res.Err == nil {
			enc, err := codec.EncodeJSON(res.Record)
			if err != nil {
				if res.Status == repair.StatusRepaired {
					summary.Repaired--
				} else {
					summary.Unchanged--
				}
				summary.Failed++
				br = failed(err)
			} else {
				br.encoded = enc
			}
		}
		results[positions[j]] = br
	}
	return results, summary, nil
}

func failed(err error) batchResult {
	return batchResult{Result: repair.Result{Status: repair.StatusFailed, Err: err}}
}

// appendJSONL writes repaired records to the daily file. Best-effort: the
// response is authoritative, the file is an audit aid.
func (s *RepairAPIService) appendJSONL(filename string, mu *sync.Mutex, results []batchResult) {
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.logger.Warn("failed to open runs file", "file", filename, "error", err)
		return
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range results {
		if r.Status != repair.StatusRepaired {
			continue
		}
		w.Write(r.encoded)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		s.logger.Warn("failed to write runs file", "file", filename, "error", err)
	}
}
