package docstore

// State describes how a Load call resolved.
type State int

const (
	// StateMissing means no document exists under the name.
	StateMissing State = iota
	// StateLoaded means the document decoded cleanly into the destination.
	StateLoaded
	// StateRecovered means the stored bytes failed to decode and were moved aside.
	// The destination must be ignored and a default substituted.
	StateRecovered
)

func (s State) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateLoaded:
		return "loaded"
	case StateRecovered:
		return "recovered"
	}
	return "unknown"
}

// Result is the typed outcome of Load.
type Result struct {
	State State
	// BackupPath is where the unreadable bytes were moved when State is StateRecovered.
	BackupPath string
}

// Store persists single JSON documents by relative name (e.g. "profile/advanced_profile.json").
//
// Concurrency: a Save is atomic per call, but concurrent writers to the same name must be
// serialized by the caller.
type Store interface {
	Save(name string, doc any) error
	// Load decodes the named document into dst. dst is only meaningful when the returned
	// State is StateLoaded. Decode failures are never returned as errors.
	Load(name string, dst any) (Result, error)
}
