// internal/types/plan.go
package types

/*
 * Domain types for repair plans.
 *
 * Provides Plan and Repair structures used by internal/repair for compilation
 * and application. These types are wire-format agnostic - YAML and gRPC
 * conversion happens at the loader/API boundary.
 *
 * Key types:
 *   - Plan: named, ordered list of repairs with one error policy
 *   - Repair: one drift fix (target path, optional array path, type tags)
 *   - ErrorPolicy: what the host does when a record fails
 */

// ErrorPolicy selects how a failed record is handled by the host layer.
type ErrorPolicy string

const (
	// OnErrorFail surfaces the error to the caller.
	OnErrorFail ErrorPolicy = "fail"
	// OnErrorSkip keeps the original record and reports the failure.
	OnErrorSkip ErrorPolicy = "skip"
	// OnErrorNull substitutes a null of the canonical type at the addressed location.
	OnErrorNull ErrorPolicy = "null"
)

// Valid reports whether p is a known policy.
func (p ErrorPolicy) Valid() bool {
	switch p {
	case OnErrorFail, OnErrorSkip, OnErrorNull:
		return true
	default:
		return false
	}
}

// Repair describes one coalescing fix inside a record.
type Repair struct {
	Path      string   `yaml:"path" json:"path"`                                 // dotted path to the drifted field
	ArrayPath string   `yaml:"array_path,omitempty" json:"array_path,omitempty"` // optional dotted path into an array below Path
	Types     []string `yaml:"types" json:"types"`                               // canonical type first, then alternatives
	Strict    bool     `yaml:"strict,omitempty" json:"strict,omitempty"`         // fail instead of null on impossible casts
}

// Plan is a named set of repairs applied in order to every record.
type Plan struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	OnError     ErrorPolicy `yaml:"on_error,omitempty" json:"on_error,omitempty"`
	Repairs     []Repair    `yaml:"repairs" json:"repairs"`
}
