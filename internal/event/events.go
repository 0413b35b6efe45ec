// Package event defines the typed domain events emitted by the scheduling
// engine and the in-process bus that delivers them.  Rendering, counters,
// remote sync and the message broker all observe the engine exclusively
// through these events.
package event

// Event topic constants
const (
	TopicPlaced      = "scheduling.placed"
	TopicUnscheduled = "scheduling.unscheduled"
	TopicChanged     = "scheduling.changed"
	TopicRecount     = "scheduling.recount"
	TopicConflict    = "scheduling.conflict"
	TopicSyncResult  = "scheduling.sync_result"
)

// Placed is emitted when a session commits a grid placement.  From is zero
// when the session came from the unscheduled list.
type Placed struct {
	SessionID         uint64 `json:"session_id"`
	FromMicrolocation uint64 `json:"from_microlocation"`
	ToMicrolocation   uint64 `json:"to_microlocation"`
}

// Unscheduled is emitted when a session is moved back to the unscheduled
// list.
type Unscheduled struct {
	SessionID         uint64 `json:"session_id"`
	FromMicrolocation uint64 `json:"from_microlocation"`
}

// Changed carries the full session snapshot after a committed mutation and
// triggers remote persistence.  Bulk operations such as the initial load do
// not broadcast it.
type Changed struct {
	SessionID       uint64   `json:"session_id"`
	Title           string   `json:"title"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	MicrolocationID *uint64  `json:"microlocation_id"`
	TrackID         *uint64  `json:"track_id"`
	SpeakerIDs      []uint64 `json:"speaker_ids"`
}

// Recount asks the rendering collaborator to refresh the scheduled-session
// counter badge of the listed microlocations.
type Recount struct {
	MicrolocationIDs []uint64 `json:"microlocation_ids"`
}

// Conflict reports a rejected placement with a user-facing message.
type Conflict struct {
	SessionID uint64 `json:"session_id"`
	Message   string `json:"message"`
}

// SyncResult reports the outcome of a remote update.  Err is empty on
// success.  Retry, when non-nil, re-issues the identical sync call; it is
// only populated on failure.
type SyncResult struct {
	SessionID uint64 `json:"session_id"`
	Err       string `json:"error,omitempty"`
	Retry     func() `json:"-"`
}
