// Package types provides domain models shared across schemamend components.
//
// Zero-dependency design: value.go, plan.go and errors.go use only the
// standard library so the nested rebuild core stays importable without
// storage or transport deps. ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
package types

// Resource limits enforced when plans are compiled and batches accepted.
// The nested core itself is iterative and imposes no depth limit.
const (
	// MaxPathDepth bounds dotted path length accepted in a repair plan.
	// 64 levels covers crawler-inferred schemas several times deeper than
	// anything observed in practice.
	MaxPathDepth = 64

	// MaxAlternatives bounds the alternative type list of one repair.
	// Crawlers emit one alternative per inferred type; 16 is far above that.
	MaxAlternatives = 16

	// MaxBatchRecords caps records accepted per repair request.
	MaxBatchRecords = 10000

	// MaxRecordSize limits a single encoded record to bound memory per record.
	MaxRecordSize = 4 * 1024 * 1024
)
