package repair

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/solatis/schemamend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunJSONL(t *testing.T) {
	in := strings.Join([]string{
		`{"a": {"bigint": null, "string": "1"}, "z": true}`,
		``,
		`{"a": {"bigint": 2, "string": null}}`,
		`{"a": 3}`,
	}, "\n")

	t.Run("fail stops", func(t *testing.T) {
		var out bytes.Buffer
		_, err := (&Runner{}).RunJSONL(context.Background(), mustCompile(t, *simplePlan("p")), strings.NewReader(in), &out)
		assert.ErrorIs(t, err, types.ErrTypeMismatch)
		assert.Empty(t, out.String(), "failing chunk is not written")
	})

	t.Run("skip keeps originals", func(t *testing.T) {
		p := simplePlan("p")
		p.OnError = types.OnErrorSkip
		var out bytes.Buffer
		summary, err := (&Runner{Workers: 2}).RunJSONL(context.Background(), mustCompile(t, *p), strings.NewReader(in+"\n{broken\n"), &out)
		require.NoError(t, err)
		assert.Equal(t, Summary{Total: 4, Repaired: 2, Failed: 2}, summary)
		assert.Equal(t, `{"a":1,"z":true}`+"\n"+`{"a":2}`+"\n"+`{"a":3}`+"\n", out.String())
	})
}

func TestRunJSONL_DecodeErrorUnderFail(t *testing.T) {
	var out bytes.Buffer
	_, err := (&Runner{}).RunJSONL(context.Background(), mustCompile(t, *simplePlan("p")), strings.NewReader("{\"a\": 1}\n{oops\n"), &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestRunYAML(t *testing.T) {
	in := `a:
  bigint: null
  string: "7"
---
a:
  bigint: 8
  string: null
`
	var out bytes.Buffer
	summary, err := (&Runner{}).RunYAML(context.Background(), mustCompile(t, *simplePlan("p")), strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 2, Repaired: 2}, summary)
	assert.Equal(t, "{\"a\":7}\n{\"a\":8}\n", out.String())
}
