package types

import (
	"time"

	"github.com/google/uuid"
)

// PlanID represents a UUIDv7 plan identifier.
type PlanID string

// RunID represents a UUIDv7 repair run identifier.
// Time-ordered IDs keep run listings naturally sorted by start time.
type RunID string

// NewPlanID generates a UUIDv7 plan identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewPlanID() PlanID {
	return PlanID(uuid.Must(uuid.NewV7()).String())
}

// NewRunID generates a UUIDv7 run identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// ParseRunID validates and converts a string to RunID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseRunID(s string) (RunID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RunID(s), nil
}

// RunIDTime extracts the timestamp embedded in a UUIDv7 run ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func RunIDTime(id RunID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
