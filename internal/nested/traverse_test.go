package nested

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/schemamend/internal/types"
)

func bi(n int64) types.Value { return types.Prim("bigint", n) }

func increment(v types.Value, _ Path) (types.Value, error) {
	n, ok := v.Data().(int64)
	if !ok {
		return types.Value{}, fmt.Errorf("increment %v: %w", v, types.ErrTypeMismatch)
	}
	return bi(n + 1), nil
}

func negate(v types.Value, _ Path) (types.Value, error) {
	n, ok := v.Data().(int64)
	if !ok {
		return types.Value{}, fmt.Errorf("negate %v: %w", v, types.ErrTypeMismatch)
	}
	return bi(-n), nil
}

// Scenario A: plain nested update
func TestUpdateNestedField_PlainNested(t *testing.T) {
	root := types.Struct(types.F("a", types.Struct(types.F("b", types.Struct(
		types.F("c", bi(1)),
		types.F("d", bi(2)),
	)))))

	got, err := UpdateNestedField(root, "a.b.c", increment)
	if err != nil {
		t.Fatalf("UpdateNestedField() error = %v", err)
	}

	want := types.Struct(types.F("a", types.Struct(types.F("b", types.Struct(
		types.F("c", bi(2)),
		types.F("d", bi(2)),
	)))))
	if !got.Equal(want) {
		t.Errorf("UpdateNestedField() = %v, want %v", got, want)
	}

	// Input untouched
	c, _ := mustField(t, root, "a", "b").Field("c")
	if !c.Equal(bi(1)) {
		t.Errorf("root mutated: c = %v", c)
	}
}

// Scenario B: array broadcast
func TestUpdateNestedField_ArrayBroadcast(t *testing.T) {
	root := types.Struct(types.F("items", types.Array(
		types.Struct(types.F("x", bi(1))),
		types.Struct(types.F("x", bi(2))),
	)))
	want := types.Struct(types.F("items", types.Array(
		types.Struct(types.F("x", bi(-1))),
		types.Struct(types.F("x", bi(-2))),
	)))

	tests := []struct {
		name      string
		path      string
		arrayPath string
	}{
		{name: "path names the array", path: "items", arrayPath: "items.x"},
		{name: "array at root", path: "", arrayPath: "items.x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UpdateNestedField(root, tt.path, negate, WithArrayPath(tt.arrayPath))
			if err != nil {
				t.Fatalf("UpdateNestedField() error = %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("UpdateNestedField() = %v, want %v", got, want)
			}
		})
	}
}

// Scenario C: drift repair
func TestUpdateNestedField_DriftRepair(t *testing.T) {
	root := types.Struct(types.F("value", types.Struct(
		types.F("type_1", types.Prim("string", "5")),
		types.F("type_2", types.Null("")),
	)))

	got, err := UpdateNestedField(root, "value", CoalesceLeaf("type_1", "type_2"))
	if err != nil {
		t.Fatalf("UpdateNestedField() error = %v", err)
	}
	want := types.Struct(types.F("value", types.Prim("type_1", "5")))
	if !got.Equal(want) {
		t.Errorf("UpdateNestedField() = %v, want %v", got, want)
	}
}

func TestRebuild_ArrayBelowNamedStruct(t *testing.T) {
	elem := func(i, s types.Value) types.Value {
		return types.Struct(
			types.F("id", types.Prim("string", "k")),
			types.F("v", types.Struct(types.F("bigint", i), types.F("string", s))),
		)
	}
	root := types.Struct(
		types.F("a", types.Struct(types.F("b", types.Struct(
			types.F("items", types.Array(
				elem(bi(1), types.Null("")),
				elem(types.Null(""), types.Prim("string", "2")),
			)),
			types.F("keep", bi(7)),
		)))),
		types.F("z", types.Prim("string", "untouched")),
	)

	got, stats, err := RebuildWithStats(root, MustParsePath("a.b"), CoalesceLeaf("bigint", "string"), MustParsePath("items.v"))
	if err != nil {
		t.Fatalf("RebuildWithStats() error = %v", err)
	}

	fixed := func(n int64) types.Value {
		return types.Struct(types.F("id", types.Prim("string", "k")), types.F("v", bi(n)))
	}
	want := types.Struct(
		types.F("a", types.Struct(types.F("b", types.Struct(
			types.F("items", types.Array(fixed(1), fixed(2))),
			types.F("keep", bi(7)),
		)))),
		types.F("z", types.Prim("string", "untouched")),
	)
	if !got.Equal(want) {
		t.Errorf("RebuildWithStats() = %v, want %v", got, want)
	}
	if stats.Levels != 2 || stats.Broadcasts != 1 {
		t.Errorf("stats = %+v, want 2 levels and 1 broadcast", stats)
	}
}

func TestRebuild_Stats(t *testing.T) {
	root := types.Struct(types.F("a", types.Struct(types.F("b", types.Struct(types.F("c", bi(1)))))))

	tests := []struct {
		name       string
		path       Path
		wantLevels int
	}{
		{name: "three segments", path: Path{"a", "b", "c"}, wantLevels: 3},
		{name: "one segment", path: Path{"a"}, wantLevels: 1},
		{name: "empty path", path: Path{}, wantLevels: 0},
	}

	leaf := func(v types.Value, _ Path) (types.Value, error) { return v, nil }
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats, err := RebuildWithStats(root, tt.path, leaf, nil)
			if err != nil {
				t.Fatalf("RebuildWithStats() error = %v", err)
			}
			if stats.Levels != tt.wantLevels || stats.Broadcasts != 0 {
				t.Errorf("stats = %+v, want %d levels", stats, tt.wantLevels)
			}
			if !got.Equal(root) {
				t.Errorf("identity leaf changed value: %v", got)
			}
		})
	}
}

func TestRebuild_EmptyPathAppliesAtRoot(t *testing.T) {
	var seen types.Value
	var seenPath Path = Path{"sentinel"}
	leaf := func(v types.Value, remaining Path) (types.Value, error) {
		seen, seenPath = v, remaining
		return bi(42), nil
	}
	root := types.Struct(types.F("a", bi(1)))

	got, err := Rebuild(root, Path{}, leaf, nil)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !seen.Equal(root) || len(seenPath) != 0 {
		t.Errorf("leaf saw %v with %v, want root with empty path", seen, seenPath)
	}
	if !got.Equal(bi(42)) {
		t.Errorf("Rebuild() = %v, want 42", got)
	}
}

func TestRebuild_ScalarLeafSeesSegment(t *testing.T) {
	var seenPath Path
	leaf := func(v types.Value, remaining Path) (types.Value, error) {
		seenPath = remaining
		return v, nil
	}
	root := types.Struct(types.F("a", types.Struct(types.F("b", bi(1)))))
	if _, err := Rebuild(root, Path{"a", "b"}, leaf, nil); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if seenPath.String() != "b" {
		t.Errorf("leaf remaining = %q, want b", seenPath.String())
	}
}

func TestRebuild_NullPropagation(t *testing.T) {
	root := types.Struct(types.F("a", types.Null("")), types.F("b", bi(1)))

	got, err := Rebuild(root, Path{"a", "x", "y"}, increment, nil)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if !got.Equal(root) {
		t.Errorf("Rebuild() through null = %v, want %v", got, root)
	}
}

func TestRebuild_Errors(t *testing.T) {
	root := types.Struct(
		types.F("a", types.Struct(types.F("b", bi(1)))),
		types.F("items", types.Array(types.Struct(types.F("x", bi(1))))),
		types.F("scalar", bi(3)),
	)
	boom := errors.New("boom")

	tests := []struct {
		name      string
		path      string
		arrayPath string
		leaf      LeafFunc
		wantErr   error
	}{
		{name: "missing intermediate", path: "nope.b", leaf: increment, wantErr: types.ErrFieldNotFound},
		{name: "missing terminal", path: "a.nope", leaf: increment, wantErr: types.ErrFieldNotFound},
		{name: "descend into primitive", path: "scalar.x", leaf: increment, wantErr: types.ErrTypeMismatch},
		{name: "array path on struct field", path: "", arrayPath: "a.b", leaf: increment, wantErr: types.ErrTypeMismatch},
		{name: "array path head mismatch", path: "items", arrayPath: "other.x", leaf: increment, wantErr: types.ErrTypeMismatch},
		{name: "missing array field", path: "", arrayPath: "nope.x", leaf: increment, wantErr: types.ErrFieldNotFound},
		{name: "missing element field", path: "", arrayPath: "items.nope", leaf: increment, wantErr: types.ErrFieldNotFound},
		{name: "malformed path", path: "a..b", leaf: increment, wantErr: types.ErrEmptyPathSegment},
		{name: "malformed array path", path: "a", arrayPath: "items.", leaf: increment, wantErr: types.ErrEmptyPathSegment},
		{name: "leaf error", path: "a.b", leaf: func(types.Value, Path) (types.Value, error) { return types.Value{}, boom }, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UpdateNestedField(root, tt.path, tt.leaf, WithArrayPath(tt.arrayPath))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateNestedField() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRebuild_DeepPathIsIterative(t *testing.T) {
	const depth = 10000
	path := make(Path, depth)
	for i := range path {
		path[i] = "n"
	}
	v := bi(0)
	for i := 0; i < depth; i++ {
		v = types.Struct(types.F("n", v), types.F("s", bi(int64(i))))
	}

	got, stats, err := RebuildWithStats(v, path, increment, nil)
	if err != nil {
		t.Fatalf("RebuildWithStats() error = %v", err)
	}
	if stats.Levels != depth {
		t.Errorf("Levels = %d, want %d", stats.Levels, depth)
	}
	leaf := got
	for i := 0; i < depth; i++ {
		leaf, _ = leaf.Field("n")
	}
	if !leaf.Equal(bi(1)) {
		t.Errorf("deep leaf = %v, want 1", leaf)
	}
}

// Property-based test: fields off the path keep value and position
func TestRebuild_PropertySiblingPreservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("siblings survive rebuild unchanged", prop.ForAll(
		func(depth int, siblings int, seed int64) bool {
			// Each level: sib_0..sib_k before "next", one trailing sibling after.
			v := bi(seed)
			path := make(Path, depth)
			for level := depth - 1; level >= 0; level-- {
				fields := make([]types.Field, 0, siblings+2)
				for s := 0; s < siblings; s++ {
					fields = append(fields, types.F(fmt.Sprintf("sib_%d", s), bi(seed+int64(level*100+s))))
				}
				fields = append(fields, types.F("next", v))
				fields = append(fields, types.F("tail", types.Prim("string", fmt.Sprint(level))))
				v = types.Struct(fields...)
				path[level] = "next"
			}

			got, err := Rebuild(v, path, increment, nil)
			if err != nil {
				return false
			}

			orig, out := v, got
			for level := 0; level < depth; level++ {
				if out.NumFields() != orig.NumFields() {
					return false
				}
				for i := 0; i < orig.NumFields(); i++ {
					of, nf := orig.FieldAt(i), out.FieldAt(i)
					if of.Name != nf.Name {
						return false
					}
					if of.Name != "next" && !of.Value.Equal(nf.Value) {
						return false
					}
				}
				orig, _ = orig.Field("next")
				out, _ = out.Field("next")
			}
			return out.Equal(bi(seed + 1))
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 4),
		gen.Int64Range(-1000000, 1000000),
	))

	properties.TestingRun(t)
}

func mustField(t *testing.T, v types.Value, names ...string) types.Value {
	t.Helper()
	for _, n := range names {
		var err error
		v, err = v.Field(n)
		if err != nil {
			t.Fatalf("Field(%q) error = %v", n, err)
		}
	}
	return v
}

func TestUpdateNestedField_NullLeaf(t *testing.T) {
	root := types.Struct(
		types.F("a", types.Struct(types.F("b", bi(1)), types.F("c", bi(2)))),
	)
	got, err := UpdateNestedField(root, "a.b", NullLeaf("bigint"))
	if err != nil {
		t.Fatalf("UpdateNestedField() error = %v", err)
	}
	want := types.Struct(
		types.F("a", types.Struct(types.F("b", types.Null("bigint")), types.F("c", bi(2)))),
	)
	if !got.Equal(want) {
		t.Errorf("UpdateNestedField() = %v, want %v", got, want)
	}
}
