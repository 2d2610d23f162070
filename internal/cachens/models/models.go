package models

// Outcome records which path produced a lookup result, so callers can tell a
// healthy read from a defaulted one instead of guessing from the value.
type Outcome string

const (
	// OutcomeFresh means the value came from the store on the normal path.
	OutcomeFresh Outcome = "fresh"

	// OutcomeDefaulted means the store was unreachable and the safe default
	// was returned. Namespacing failures must never block request processing.
	OutcomeDefaulted Outcome = "defaulted"

	// OutcomeRepaired means the stored value was corrupt (not a positive
	// integer) and was overwritten with the initial value.
	OutcomeRepaired Outcome = "repaired"
)

// VersionLookup is the result of reading a principal's namespace version.
type VersionLookup struct {
	Version int64
	Outcome Outcome
}

// EnabledLookup is the result of reading a principal's cache enabled flag.
type EnabledLookup struct {
	Enabled bool
	Outcome Outcome
}

// InitialVersion is the version assigned to a principal on first access.
const InitialVersion int64 = 1
