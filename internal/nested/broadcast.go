package nested

import (
	"fmt"

	"github.com/solatis/schemamend/internal/types"
)

// Broadcast applies leaf to every element of arr with the same subPath and
// returns a new array of equal length and order. Element i depends only on
// arr[i]. A null array stays null; any other non-array is ErrTypeMismatch.
func Broadcast(arr types.Value, subPath Path, leaf LeafFunc) (types.Value, error) {
	if arr.IsNull() {
		return arr, nil
	}
	if arr.Kind() != types.KindArray {
		return types.Value{}, fmt.Errorf("broadcast over %s: %w", arr.Kind(), types.ErrTypeMismatch)
	}
	out := make([]types.Value, arr.Len())
	for i := range out {
		v, err := leaf(arr.Index(i), subPath)
		if err != nil {
			return types.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return types.Array(out...), nil
}

// Descend turns a terminal leaf into an element leaf: the element is rebuilt
// along the remaining sub-path and leaf runs at its end. With an empty
// sub-path the leaf sees the element itself.
func Descend(leaf LeafFunc) LeafFunc {
	return func(v types.Value, remaining Path) (types.Value, error) {
		return Rebuild(v, remaining, leaf, nil)
	}
}
