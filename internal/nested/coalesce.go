package nested

import (
	"fmt"

	"github.com/solatis/schemamend/internal/types"
)

// Coalescer collapses a drift struct holding alternative-typed representations
// of one logical value into a single primitive of the canonical type.
type Coalescer struct {
	Types  []string // canonical type first, then alternatives in priority order
	Strict bool     // fail on impossible casts instead of yielding null
}

// NewCoalescer builds a lenient Coalescer.
// Returns ErrNoAlternatives when no type tags are given.
func NewCoalescer(typeTags ...string) (*Coalescer, error) {
	if len(typeTags) == 0 {
		return nil, types.ErrNoAlternatives
	}
	tags := make([]string, len(typeTags))
	copy(tags, typeTags)
	return &Coalescer{Types: tags}, nil
}

// Canonical returns the target type tag.
func (c *Coalescer) Canonical() string {
	if len(c.Types) == 0 {
		return ""
	}
	return c.Types[0]
}

// Coalesce selects the first non-null field of v named by c.Types, in order,
// and casts it to the canonical type. All-null (or a null v) yields a null
// typed as the canonical type.
// Every alternative must exist on v: a missing one is ErrFieldNotFound even if
// an earlier alternative was non-null, so failures never depend on the data.
func (c *Coalescer) Coalesce(v types.Value) (types.Value, error) {
	if len(c.Types) == 0 {
		return types.Value{}, types.ErrNoAlternatives
	}
	canonical := c.Types[0]
	if v.IsNull() {
		return types.Null(canonical), nil
	}
	if v.Kind() != types.KindStruct {
		return types.Value{}, fmt.Errorf("coalesce %s: %w", v.Kind(), types.ErrTypeMismatch)
	}

	alts := make([]types.Value, len(c.Types))
	for i, t := range c.Types {
		alt, err := v.Field(t)
		if err != nil {
			return types.Value{}, fmt.Errorf("coalesce alternative: %w", err)
		}
		alts[i] = alt
	}
	for _, alt := range alts {
		if !alt.IsNull() {
			return Cast(alt, canonical, c.Strict)
		}
	}
	return types.Null(canonical), nil
}

// Leaf exposes the coalescer as a LeafFunc.
func (c *Coalescer) Leaf() LeafFunc {
	return func(v types.Value, _ Path) (types.Value, error) {
		return c.Coalesce(v)
	}
}
