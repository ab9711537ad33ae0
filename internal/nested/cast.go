// internal/nested/cast.go
package nested

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/solatis/schemamend/internal/types"
)

/*
 * Primitive casting for coalesced values.
 *
 * Type tags are opaque strings supplied by the caller. Tags from the common
 * catalog families are converted; any other tag is treated as opaque and the
 * payload is kept as-is under the new tag.
 *
 * Families (tags compared case-insensitively, parameters like "(10,2)" ignored):
 *   - string:  string, varchar, char
 *   - integer: tinyint, smallint, int, integer, bigint, long (range-checked)
 *   - float:   float, real, double, decimal
 *   - boolean: boolean, bool
 *
 * Key distinction: a null input is not a failure; it yields a typed null.
 * An impossible conversion (e.g. "abc" to bigint) yields a typed null in
 * lenient mode, matching the host engine's non-ANSI cast, and
 * ErrCoercionFailed in strict mode.
 */

// Family groups type tags that share a Go representation.
type Family int

const (
	FamilyOpaque Family = iota
	FamilyString
	FamilyInteger
	FamilyFloat
	FamilyBoolean
)

// FamilyOf classifies a type tag.
func FamilyOf(tag string) Family {
	switch baseTag(tag) {
	case "string", "varchar", "char":
		return FamilyString
	case "tinyint", "smallint", "int", "integer", "bigint", "long":
		return FamilyInteger
	case "float", "real", "double", "decimal":
		return FamilyFloat
	case "boolean", "bool":
		return FamilyBoolean
	default:
		return FamilyOpaque
	}
}

func baseTag(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// Cast converts a primitive to the target type tag.
// Returns ErrTypeMismatch for struct or array input.
// Returns ErrCoercionFailed only when strict is set.
func Cast(v types.Value, target string, strict bool) (types.Value, error) {
	if v.Kind() != types.KindPrimitive {
		return types.Value{}, fmt.Errorf("cast %s to %s: %w", v.Kind(), target, types.ErrTypeMismatch)
	}
	if v.IsNull() {
		return types.Null(target), nil
	}

	var data any
	var ok bool
	switch FamilyOf(target) {
	case FamilyString:
		data, ok = castString(v.Data())
	case FamilyInteger:
		data, ok = castInteger(v.Data(), target)
	case FamilyFloat:
		data, ok = castFloat(v.Data())
	case FamilyBoolean:
		data, ok = castBoolean(v.Data())
	default:
		return types.Prim(target, v.Data()), nil
	}

	if !ok {
		if strict {
			return types.Value{}, fmt.Errorf("cast %v to %s: %w", v, target, types.ErrCoercionFailed)
		}
		return types.Null(target), nil
	}
	return types.Prim(target, data), nil
}

// normalize folds the Go numeric types decoders produce into int64/float64.
func normalize(d any) any {
	switch n := d.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return d
	}
}

// castString renders any primitive payload as text.
func castString(d any) (any, bool) {
	switch v := normalize(d).(type) {
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return formatDouble(v), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}

// formatDouble keeps a fractional marker on integral values ("5.0", not "5").
func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// castInteger converts to int64, truncating fractions and rejecting values
// outside the range of the target tag.
func castInteger(d any, target string) (any, bool) {
	lo, hi := intRange(target)
	var n int64
	switch v := normalize(d).(type) {
	case int64:
		n = v
	case float64:
		t, ok := truncate(v)
		if !ok {
			return nil, false
		}
		n = t
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			n = i
			break
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		t, ok := truncate(f)
		if !ok {
			return nil, false
		}
		n = t
	case bool:
		if v {
			n = 1
		}
	default:
		return nil, false
	}
	if n < lo || n > hi {
		return nil, false
	}
	return n, true
}

func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int64(t), true
}

func intRange(tag string) (int64, int64) {
	switch baseTag(tag) {
	case "tinyint":
		return math.MinInt8, math.MaxInt8
	case "smallint":
		return math.MinInt16, math.MaxInt16
	case "int", "integer":
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// castFloat converts numeric payloads and numeric strings to float64.
// Whitespace-only strings are not numbers.
func castFloat(d any) (any, bool) {
	switch v := normalize(d).(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case bool:
		if v {
			return 1.0, true
		}
		return 0.0, true
	default:
		return nil, false
	}
}

// castBoolean accepts booleans, numbers (non-zero is true) and the usual
// textual spellings.
func castBoolean(d any) (any, bool) {
	switch v := normalize(d).(type) {
	case bool:
		return v, true
	case int64:
		return v != 0, true
	case float64:
		if math.IsNaN(v) {
			return nil, false
		}
		return v != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "t", "yes", "y", "1":
			return true, true
		case "false", "f", "no", "n", "0":
			return false, true
		}
		return nil, false
	default:
		return nil, false
	}
}
