// internal/nested/traverse.go
package nested

import (
	"fmt"

	"github.com/solatis/schemamend/internal/types"
)

/*
 * Path-driven rebuild of nested values.
 *
 * Walks a Path through nested structs, applies a leaf transform at the end,
 * then re-wraps every struct on the way back up with WithField. Fields off the
 * path are carried over untouched, so siblings keep their values and order.
 *
 * Traversal states:
 *   - Descend: more than one segment left, or one left with an array path
 *     pending (the extra hop into the last named field)
 *   - Array terminal: path exhausted, array path pending; broadcast the leaf
 *     over every element of the array named by the array path head
 *   - Scalar terminal: one segment left, no array path; replace that field
 *     with the leaf result
 *   - Root: empty path, no array path; the leaf sees the root itself
 *
 * The named path always wins over the array path: arrays are only entered once
 * every named segment has been consumed.
 *
 * Iterative: frames of (parent, field) are pushed while descending and
 * unwound afterwards, so schema depth never grows the goroutine stack.
 */

// LeafFunc produces the replacement for the value at the end of a traversal.
// remaining is what the leaf is addressed by: the field segment in the scalar
// case, the array sub-path for broadcast elements, and nil at the root.
type LeafFunc func(v types.Value, remaining Path) (types.Value, error)

// RebuildStats counts the work performed by one rebuild.
type RebuildStats struct {
	Levels     int // struct levels rebuilt with WithField
	Broadcasts int // array broadcasts, at most one
}

type frame struct {
	parent types.Value
	name   string
}

// Rebuild returns root with the location addressed by path (and optionally
// arrayPath) replaced by the leaf result. root is never modified.
// Returns ErrFieldNotFound or ErrTypeMismatch from field access unchanged
// (wrapped with the failing path); leaf errors propagate as-is.
func Rebuild(root types.Value, path Path, leaf LeafFunc, arrayPath Path) (types.Value, error) {
	v, _, err := RebuildWithStats(root, path, leaf, arrayPath)
	return v, err
}

// RebuildWithStats is Rebuild that also reports how many levels were rebuilt.
func RebuildWithStats(root types.Value, path Path, leaf LeafFunc, arrayPath Path) (types.Value, RebuildStats, error) {
	var stats RebuildStats
	pending := len(arrayPath) > 0

	cur := root
	rest := path
	frames := make([]frame, 0, len(path))
	for len(rest) > 1 || (len(rest) == 1 && pending) {
		name := rest[0]
		child, err := cur.Field(name)
		if err != nil {
			return types.Value{}, stats, fmt.Errorf("path %q: %w", path[:len(frames)+1].String(), err)
		}
		frames = append(frames, frame{parent: cur, name: name})
		cur = child
		rest = rest[1:]
	}

	var out types.Value
	var err error
	switch {
	case pending:
		out, err = broadcastAt(cur, frames, arrayPath, leaf)
		stats.Broadcasts = 1
	case len(rest) == 1:
		out, err = applyAt(cur, rest[0], leaf)
		stats.Levels++
	default:
		out, err = leaf(cur, nil)
	}
	if err != nil {
		return types.Value{}, stats, fmt.Errorf("path %q: %w", path.String(), err)
	}

	for i := len(frames) - 1; i >= 0; i-- {
		out, err = frames[i].parent.WithField(frames[i].name, out)
		if err != nil {
			return types.Value{}, stats, fmt.Errorf("path %q: %w", path[:i+1].String(), err)
		}
		stats.Levels++
	}
	return out, stats, nil
}

// applyAt replaces field name of cur with the leaf result.
// A null parent has nothing to rebuild; the leaf is not invoked.
func applyAt(cur types.Value, name string, leaf LeafFunc) (types.Value, error) {
	if cur.IsNull() {
		return cur, nil
	}
	child, err := cur.Field(name)
	if err != nil {
		return types.Value{}, err
	}
	nv, err := leaf(child, Path{name})
	if err != nil {
		return types.Value{}, err
	}
	return cur.WithField(name, nv)
}

// broadcastAt maps leaf over the array addressed by the head of arrayPath.
// Normally cur is the struct holding the array. When the last hop already
// landed on the array, the array path head must restate that field name.
func broadcastAt(cur types.Value, frames []frame, arrayPath Path, leaf LeafFunc) (types.Value, error) {
	name, sub := arrayPath.Head(), arrayPath.Tail()
	elemLeaf := Descend(leaf)

	if cur.Kind() == types.KindArray {
		if len(frames) == 0 || frames[len(frames)-1].name != name {
			return types.Value{}, fmt.Errorf("array path %q on array value: %w", arrayPath.String(), types.ErrTypeMismatch)
		}
		return Broadcast(cur, sub, elemLeaf)
	}

	arr, err := cur.Field(name)
	if err != nil {
		return types.Value{}, fmt.Errorf("array path %q: %w", arrayPath.String(), err)
	}
	mapped, err := Broadcast(arr, sub, elemLeaf)
	if err != nil {
		return types.Value{}, fmt.Errorf("array path %q: %w", arrayPath.String(), err)
	}
	return cur.WithField(name, mapped)
}
