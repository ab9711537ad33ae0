package repair

import (
	"context"
	"fmt"
	"testing"

	"github.com/solatis/schemamend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driftRecords(t *testing.T, n int) []types.Value {
	recs := make([]types.Value, n)
	for i := range recs {
		recs[i] = mustJSON(t, fmt.Sprintf(`{"seq": %d, "a": {"bigint": null, "string": "%d"}}`, i, i*10))
	}
	return recs
}

func TestRunner_PreservesOrder(t *testing.T) {
	plan := mustCompile(t, *simplePlan("p"))
	recs := driftRecords(t, 200)

	results, summary, err := (&Runner{Workers: 4}).Run(context.Background(), plan, recs)
	require.NoError(t, err)
	require.Len(t, results, 200)
	assert.Equal(t, Summary{Total: 200, Repaired: 200}, summary)

	for i, r := range results {
		seq, _ := r.Record.Field("seq")
		a, _ := r.Record.Field("a")
		assert.Equal(t, int64(i), seq.Data())
		assert.Equal(t, int64(i*10), a.Data())
	}
}

func TestRunner_FirstErrorAndCounts(t *testing.T) {
	plan := mustCompile(t, *simplePlan("p"))
	recs := driftRecords(t, 5)
	recs[1] = mustJSON(t, `{"seq": 1}`)
	recs[3] = mustJSON(t, `{"seq": 3, "a": 7}`)

	results, summary, err := (&Runner{}).Run(context.Background(), plan, recs)
	assert.ErrorIs(t, err, types.ErrFieldNotFound, "lowest index error wins")
	assert.Equal(t, Summary{Total: 5, Repaired: 3, Failed: 2}, summary)
	assert.ErrorIs(t, results[3].Err, types.ErrTypeMismatch)
}

func TestRunner_CancelledContext(t *testing.T) {
	plan := mustCompile(t, *simplePlan("p"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, summary, err := (&Runner{Workers: 2}).Run(ctx, plan, driftRecords(t, 10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, summary.Failed)
	for _, r := range results {
		assert.Equal(t, StatusFailed, r.Status)
	}
}

func TestRunner_Empty(t *testing.T) {
	plan := mustCompile(t, *simplePlan("p"))
	results, summary, err := (&Runner{}).Run(context.Background(), plan, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, Summary{}, summary)
}
