package nested

import "github.com/solatis/schemamend/internal/types"

type options struct {
	arrayPath string
}

// Option configures UpdateNestedField.
type Option func(*options)

// WithArrayPath broadcasts the leaf over an array found once the main path is
// exhausted. The first segment names the array field, the rest is the path
// inside each element.
func WithArrayPath(dotted string) Option {
	return func(o *options) {
		o.arrayPath = dotted
	}
}

// UpdateNestedField parses dottedPath (and the optional array path) and
// rebuilds root with the addressed location replaced by the leaf result.
// Returns ErrEmptyPathSegment for malformed paths before touching root.
func UpdateNestedField(root types.Value, dottedPath string, leaf LeafFunc, opts ...Option) (types.Value, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	path, err := ParsePath(dottedPath)
	if err != nil {
		return types.Value{}, err
	}
	arrayPath, err := ParsePath(o.arrayPath)
	if err != nil {
		return types.Value{}, err
	}
	return Rebuild(root, path, leaf, arrayPath)
}

// CoalesceAlternatives coalesces a drift struct to its canonical type,
// typeTags[0], using lenient casts.
func CoalesceAlternatives(v types.Value, typeTags []string) (types.Value, error) {
	c, err := NewCoalescer(typeTags...)
	if err != nil {
		return types.Value{}, err
	}
	return c.Coalesce(v)
}

// CoalesceLeaf returns CoalesceAlternatives as a LeafFunc for UpdateNestedField.
// typeTags is copied. With no tags the leaf fails with ErrNoAlternatives.
func CoalesceLeaf(typeTags ...string) LeafFunc {
	c := &Coalescer{Types: append([]string(nil), typeTags...)}
	return c.Leaf()
}

// NullLeaf replaces the addressed value with a null of the given type.
func NullLeaf(typ string) LeafFunc {
	return func(types.Value, Path) (types.Value, error) {
		return types.Null(typ), nil
	}
}
