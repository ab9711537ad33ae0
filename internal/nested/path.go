// Package nested rebuilds nested record values with one addressed location
// transformed, leaving every other branch of the tree untouched.
package nested

import (
	"fmt"
	"strings"

	"github.com/solatis/schemamend/internal/types"
)

// Path is an ordered list of struct field names.
type Path []string

// ParsePath splits a dotted path into segments.
// An empty string yields an empty Path (apply at the current value).
// Returns ErrEmptyPathSegment for leading, trailing or doubled dots.
// Field names containing '.' are not addressable; there is no escaping.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	segs := strings.Split(s, ".")
	for i, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("path %q segment %d: %w", s, i, types.ErrEmptyPathSegment)
		}
	}
	return Path(segs), nil
}

// MustParsePath is ParsePath that panics on malformed input.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) String() string { return strings.Join(p, ".") }

// Head returns the first segment, or "" for an empty path.
func (p Path) Head() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Tail returns the path without its first segment.
func (p Path) Tail() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[1:]
}
