package profiles

import (
	"fmt"
	"time"

	"github.com/vitalcoach/coach-api/internal/domain"
)

// Document names, relative to the store root.
const (
	ProfileDoc  = "profile.json"
	TargetsDoc  = "targets.json"
	AdvancedDoc = "profile/advanced_profile.json"
)

// Documents lists every owned document in load order.
var Documents = []string{ProfileDoc, TargetsDoc, AdvancedDoc}

// SyncStateDoc records unpushed local changes across restarts. It is not user-facing.
const SyncStateDoc = "sync_state.json"

type syncState struct {
	PendingPush    bool                      `json:"pendingPush"`
	PendingAnswers []domain.OnboardingAnswer `json:"pendingAnswers,omitempty"`
}

// DocState tracks where the in-memory copy of a document came from.
type DocState int

const (
	DocAbsent DocState = iota
	DocLoadedFromDisk
	// DocAuthoritative means the in-memory value has been reconciled with the remote
	// or written locally since load, and is what the next save will persist.
	DocAuthoritative
)

func (s DocState) String() string {
	switch s {
	case DocAbsent:
		return "absent"
	case DocLoadedFromDisk:
		return "loaded-from-disk"
	case DocAuthoritative:
		return "in-memory-authoritative"
	}
	return "unknown"
}

// Notice is a non-blocking message for the user about a document that was reset.
type Notice struct {
	Document string
	// BackupPath holds the unreadable original bytes. Empty when the document decoded but
	// failed validation.
	BackupPath string
	At         time.Time
}

func (n Notice) Message() string {
	if n.BackupPath == "" {
		return fmt.Sprintf("%s was invalid and has been reset to defaults.", n.Document)
	}
	return fmt.Sprintf("%s could not be read and has been reset to defaults. The original was saved to %s.", n.Document, n.BackupPath)
}
