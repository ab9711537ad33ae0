package types

import "errors"

// Sentinel errors for schemamend operations.
var (
	// ErrFieldNotFound indicates a path segment does not exist on the current struct.
	ErrFieldNotFound = errors.New("field not found")

	// ErrTypeMismatch indicates a value has the wrong shape for the requested
	// operation (field access on a non-struct, broadcast over a non-array).
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrEmptyPathSegment indicates a dotted path with an empty segment
	// (leading, trailing or doubled dot).
	ErrEmptyPathSegment = errors.New("empty path segment")

	// ErrPathTooDeep indicates a plan path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("path exceeds maximum depth")

	// ErrCoercionFailed indicates a strict cast could not convert the value.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrNoAlternatives indicates a coalesce was configured without type tags.
	ErrNoAlternatives = errors.New("no alternative types given")

	// ErrTooManyAlternatives indicates a repair exceeds MaxAlternatives.
	ErrTooManyAlternatives = errors.New("too many alternative types")

	// ErrEmptyPlan indicates a plan without a name or without repairs.
	ErrEmptyPlan = errors.New("plan is empty")

	// ErrDuplicatePlan indicates two plans share a name.
	ErrDuplicatePlan = errors.New("duplicate plan name")

	// ErrPlanNotFound indicates an unknown plan name.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrRunNotFound indicates an unknown run ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrUnknownErrorPolicy indicates an on_error value other than fail, skip or null.
	ErrUnknownErrorPolicy = errors.New("unknown error policy")

	// ErrRecordTooLarge indicates an encoded record exceeds MaxRecordSize.
	ErrRecordTooLarge = errors.New("record exceeds maximum size")
)
