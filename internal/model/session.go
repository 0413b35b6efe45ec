package model

import "time"

// Session represents a schedulable time-bounded item belonging to the main
// event.  A session may be placed into a microlocation column on the grid
// (scheduled) or live in the unscheduled list.  Only sessions whose State is
// "accepted" are ever loaded into the engine.
//
// Fields:
//  ID              – identifier assigned by the remote authority.
//  Title           – display title of the session.
//  State           – acceptance state ("accepted", "pending", "rejected").
//  StartTime       – absolute start timestamp (UTC).
//  EndTime         – absolute end timestamp (UTC).
//  StartReset      – true when StartTime holds the 00:00 unschedule sentinel.
//  EndReset        – true when EndTime holds the 00:00 unschedule sentinel.
//  Duration        – derived duration in minutes, never negative.
//  Top             – vertical grid position in pixels (nil when unscheduled).
//  MicrolocationID – room the session is placed in (nil when unscheduled).
//  TrackID         – topical track used for coloring (nullable).
//  SpeakerIDs      – speaker identifiers, forwarded verbatim to the authority.
//  SpeakerNames    – speaker display names for the info summary.
type Session struct {
	ID              uint64
	Title           string
	State           string
	StartTime       time.Time
	EndTime         time.Time
	StartReset      bool
	EndReset        bool
	Duration        int
	Top             *int
	MicrolocationID *uint64
	TrackID         *uint64
	SpeakerIDs      []uint64
	SpeakerNames    []string
}

// Scheduled reports whether the session currently has a complete, valid grid
// placement: a microlocation, a vertical position and non-reset times.
func (s *Session) Scheduled() bool {
	return s.MicrolocationID != nil && s.Top != nil && !s.StartReset && !s.EndReset &&
		!s.StartTime.IsZero() && !s.EndTime.IsZero()
}

// Day returns the calendar date of the session's start time, truncated to
// midnight UTC.  It keys the day bucket the session belongs to.
func (s *Session) Day() time.Time {
	return time.Date(s.StartTime.Year(), s.StartTime.Month(), s.StartTime.Day(), 0, 0, 0, 0, time.UTC)
}

// Clone returns a deep copy of the session.  Snapshots handed to the event
// bus and the sync coordinator must not alias the store's live record.
func (s *Session) Clone() *Session {
	c := *s
	if s.Top != nil {
		top := *s.Top
		c.Top = &top
	}
	if s.MicrolocationID != nil {
		id := *s.MicrolocationID
		c.MicrolocationID = &id
	}
	if s.TrackID != nil {
		id := *s.TrackID
		c.TrackID = &id
	}
	c.SpeakerIDs = append([]uint64(nil), s.SpeakerIDs...)
	c.SpeakerNames = append([]string(nil), s.SpeakerNames...)
	return &c
}
