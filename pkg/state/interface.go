package state

// Store snapshots the whole ShowState document. The session engine saves
// after every mutation and broadcasts only once the save has returned, so
// an implementation must not acknowledge a write it has not made durable.
//
// The whole-document shape is deliberate at this scale; an incremental
// implementation can slot in behind the same two methods.
type Store interface {
	// Load restores the last snapshot, or returns (nil, nil) when none
	// has ever been written.
	Load() (*ShowState, error)
	// Save replaces the snapshot with the given state.
	Save(s *ShowState) error
}
