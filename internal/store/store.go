// Package store holds the authoritative in-memory index of all sessions,
// partitioned into day buckets, together with the microlocation and track
// registries.  Every read or mutation of shared scheduling state goes
// through a SessionStore; no other package keeps session state of its own.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/event-scheduler/internal/model"
)

// ErrUnknownSession is returned when an operation references a session id
// that was never loaded into the store.
var ErrUnknownSession = errors.New("unknown session")

// DefaultUnscheduledDuration is the duration, in minutes, assigned to a
// session when it is moved to the unscheduled list.
const DefaultUnscheduledDuration = 30

// SessionStore indexes sessions by day bucket and keeps a separate,
// deduplicated list of unscheduled sessions.  A session id lives in exactly
// one day bucket's scheduled set or in the unscheduled index, never both
// and never neither once loaded.  All methods are safe for concurrent use;
// compound check-then-commit sequences are serialized by the scheduler
// engine on top of this.  Session reads return cloned snapshots: the live
// records never leave the store, so view goroutines cannot observe a
// placement mid-commit.
type SessionStore struct {
	mu             sync.RWMutex
	sessions       map[uint64]*model.Session
	buckets        map[time.Time][]*model.Session // scheduled sessions keyed by start date
	unscheduled    []*model.Session               // insertion-ordered, unique by id
	days           []time.Time                    // ordered calendar dates shown as day buttons
	microlocations []*model.Microlocation         // alphabetical by name
	tracks         []*model.Track
}

// New returns an empty SessionStore.
func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[uint64]*model.Session),
		buckets:  make(map[time.Time][]*model.Session),
	}
}

// Upsert inserts or replaces a session in the bucket keyed by its current
// start date.  When the session's date changed since the last upsert it is
// removed from its old bucket and inserted into the new one as one atomic
// step, and any unscheduled-index entry for the id is dropped.
func (s *SessionStore) Upsert(sess *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeFromBucketsLocked(sess.ID)
	s.removeUnscheduledLocked(sess.ID)
	s.sessions[sess.ID] = sess

	day := sess.Day()
	s.buckets[day] = append(s.buckets[day], sess)
	s.ensureDayLocked(day)
}

// Unschedule clears the session's placement: the vertical position and
// microlocation are dropped, the times are reset to the 00:00 sentinel of
// their existing date, and the session is appended to the unscheduled index
// (unique by id).  It returns a snapshot of the reset session or
// ErrUnknownSession.
func (s *SessionStore) Unschedule(id uint64) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}

	s.removeFromBucketsLocked(id)

	sess.Top = nil
	sess.MicrolocationID = nil
	sess.Duration = DefaultUnscheduledDuration
	sess.StartTime = midnightOf(sess.StartTime)
	sess.EndTime = midnightOf(sess.EndTime)
	sess.StartReset = true
	sess.EndReset = true

	s.removeUnscheduledLocked(id)
	s.unscheduled = append(s.unscheduled, sess)
	return sess.Clone(), nil
}

// Get returns a snapshot of the session record for the id.
func (s *SessionStore) Get(id uint64) (*model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return sess.Clone(), true
}

// SessionsForDay returns snapshots of the scheduled sessions of the given
// day sorted by start time ascending.  The sort is stable so equal start
// times keep their insertion order.
func (s *SessionStore) SessionsForDay(day time.Time) []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.buckets[dateOf(day)]
	out := make([]*model.Session, 0, len(bucket))
	for _, sess := range bucket {
		out = append(out, sess.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Unscheduled returns every session in the unscheduled index.  Unscheduled
// sessions conceptually belong to every day bucket, so the result does not
// depend on the selected day.  Entries that somehow regained a full
// placement are filtered out defensively.
func (s *SessionStore) Unscheduled() []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Session, 0, len(s.unscheduled))
	for _, sess := range s.unscheduled {
		if !sess.Scheduled() {
			out = append(out, sess.Clone())
		}
	}
	return out
}

// SearchUnscheduled filters the unscheduled index by a fuzzy title match.
// Results are sorted by title and unique by id.  An empty query returns the
// whole index.
func (s *SessionStore) SearchUnscheduled(query string) []*model.Session {
	matched := s.Unscheduled()
	if q := strings.TrimSpace(query); q != "" {
		filtered := matched[:0]
		for _, sess := range matched {
			if fuzzyMatch(sess.Title, q) {
				filtered = append(filtered, sess)
			}
		}
		matched = filtered
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Title < matched[j].Title })
	seen := make(map[uint64]struct{}, len(matched))
	out := matched[:0]
	for _, sess := range matched {
		if _, dup := seen[sess.ID]; dup {
			continue
		}
		seen[sess.ID] = struct{}{}
		out = append(out, sess)
	}
	return out
}

// ScheduledCount returns the number of scheduled sessions currently placed
// in the given microlocation, across all days.  It backs the counter badge
// recount events.
func (s *SessionStore) ScheduledCount(microlocationID uint64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, bucket := range s.buckets {
		for _, sess := range bucket {
			if sess.MicrolocationID != nil && *sess.MicrolocationID == microlocationID {
				n++
			}
		}
	}
	return n
}

// Days returns the ordered calendar dates of the schedule.
func (s *SessionStore) Days() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]time.Time(nil), s.days...)
}

// EnsureDay registers a calendar date as a day bucket, keeping the list
// sorted.  The engine seeds the contiguous event date range at load time;
// sessions outside that range extend it here.
func (s *SessionStore) EnsureDay(day time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureDayLocked(dateOf(day))
}

// AddMicrolocation appends a microlocation, keeping the registry sorted
// alphabetically by name.  Duplicate ids are ignored.
func (s *SessionStore) AddMicrolocation(m *model.Microlocation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, have := range s.microlocations {
		if have.ID == m.ID {
			return
		}
	}
	s.microlocations = append(s.microlocations, m)
	sort.SliceStable(s.microlocations, func(i, j int) bool {
		return s.microlocations[i].Name < s.microlocations[j].Name
	})
}

// Microlocations returns the registry in display order.
func (s *SessionStore) Microlocations() []*model.Microlocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Microlocation(nil), s.microlocations...)
}

// MicrolocationByID looks up a microlocation record.
func (s *SessionStore) MicrolocationByID(id uint64) (*model.Microlocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.microlocations {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// AddTrack registers a track, unique by id.
func (s *SessionStore) AddTrack(t *model.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.tracks {
		if have.ID == t.ID {
			return
		}
	}
	s.tracks = append(s.tracks, t)
}

// Tracks returns all registered tracks.
func (s *SessionStore) Tracks() []*model.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Track(nil), s.tracks...)
}

// TrackByID looks up a track record.
func (s *SessionStore) TrackByID(id uint64) (*model.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

func (s *SessionStore) removeFromBucketsLocked(id uint64) {
	for day, bucket := range s.buckets {
		for i, sess := range bucket {
			if sess.ID == id {
				s.buckets[day] = append(bucket[:i], bucket[i+1:]...)
				return
			}
		}
	}
}

func (s *SessionStore) removeUnscheduledLocked(id uint64) {
	for i, sess := range s.unscheduled {
		if sess.ID == id {
			s.unscheduled = append(s.unscheduled[:i], s.unscheduled[i+1:]...)
			return
		}
	}
}

func (s *SessionStore) ensureDayLocked(day time.Time) {
	for _, have := range s.days {
		if have.Equal(day) {
			return
		}
	}
	s.days = append(s.days, day)
	sort.Slice(s.days, func(i, j int) bool { return s.days[i].Before(s.days[j]) })
}

// fuzzyMatch reports whether every rune of the query appears in the title
// in order, ignoring case.
func fuzzyMatch(title, query string) bool {
	q := []rune(strings.ToLower(query))
	i := 0
	for _, r := range strings.ToLower(title) {
		if i < len(q) && q[i] == r {
			i++
		}
	}
	return i == len(q)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func midnightOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return dateOf(t)
}
