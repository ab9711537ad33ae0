package repair

import (
	"context"
	"fmt"
	"io"

	"github.com/solatis/schemamend/internal/codec"
	"github.com/solatis/schemamend/internal/types"
)

/*
 * Streaming batch repair for files.
 *
 * Records are read in chunks of MaxBatchRecords, each chunk is repaired in
 * parallel by Run, and results are written in input order before the next
 * chunk is read, so memory stays bounded by one chunk.
 *
 * Output per record:
 *   - repaired / unchanged: the resulting record
 *   - failed under skip: the original record, unchanged
 *   - failed under fail (or a structural failure under null): the stream
 *     stops with the error; records of earlier chunks are already written
 *
 * Undecodable input lines are dropped and counted as failed under skip, and
 * stop the stream otherwise.
 */

type streamer struct {
	runner  *Runner
	plan    *CompiledPlan
	out     io.Writer
	buf     []types.Value
	summary Summary
}

// RunJSONL repairs a JSONL stream from in and writes JSONL to out.
func (r *Runner) RunJSONL(ctx context.Context, plan *CompiledPlan, in io.Reader, out io.Writer) (Summary, error) {
	s := r.newStreamer(plan, out)
	err := codec.ReadJSONL(in, func(rec codec.Record) error {
		if rec.Err != nil {
			return s.decodeFailure(fmt.Errorf("line %d: %w", rec.Line, rec.Err))
		}
		return s.add(ctx, rec.Value)
	})
	if err != nil {
		return s.summary, err
	}
	return s.summary, s.flush(ctx)
}

// RunYAML repairs a multi-document YAML stream from in, one record per
// document, and writes JSONL to out.
func (r *Runner) RunYAML(ctx context.Context, plan *CompiledPlan, in io.Reader, out io.Writer) (Summary, error) {
	s := r.newStreamer(plan, out)
	err := codec.DecodeYAMLStream(in, func(v types.Value) error {
		return s.add(ctx, v)
	})
	if err != nil {
		return s.summary, err
	}
	return s.summary, s.flush(ctx)
}

func (r *Runner) newStreamer(plan *CompiledPlan, out io.Writer) *streamer {
	return &streamer{runner: r, plan: plan, out: out, buf: make([]types.Value, 0, 256)}
}

func (s *streamer) decodeFailure(err error) error {
	if s.plan.OnError != types.OnErrorSkip {
		return err
	}
	s.summary.Total++
	s.summary.Failed++
	return nil
}

func (s *streamer) add(ctx context.Context, v types.Value) error {
	s.buf = append(s.buf, v)
	if len(s.buf) < types.MaxBatchRecords {
		return nil
	}
	return s.flush(ctx)
}

func (s *streamer) flush(ctx context.Context) error {
	if len(s.buf) == 0 {
		return nil
	}
	results, sum, err := s.runner.Run(ctx, s.plan, s.buf)
	s.summary.Total += sum.Total
	s.summary.Repaired += sum.Repaired
	s.summary.Unchanged += sum.Unchanged
	s.summary.Failed += sum.Failed
	s.buf = s.buf[:0]
	if err != nil {
		return err
	}

	for _, res := range results {
		if err := codec.WriteJSONL(s.out, res.Record); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
