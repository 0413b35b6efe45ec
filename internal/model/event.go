package model

import "time"

// Event holds the identity and time bounds of the main event being
// scheduled.  The first and last calendar day of the event use the event's
// own start/end clock time as grid bounds; every other day runs 00:00-23:59.
//
// Fields:
//  ID        – identifier of the event at the remote authority.
//  StartTime – when the event opens (UTC).
//  EndTime   – when the event closes (UTC).
type Event struct {
	ID        uint64
	StartTime time.Time
	EndTime   time.Time
}
