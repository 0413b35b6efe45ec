// Package scheduler implements the placement lifecycle of sessions on the
// grid.  It is the only writer of the session store: the interaction
// surface reports drops, resizes and removals here, the engine validates
// the proposed geometry against the collision engine and the grid extent,
// commits on success and reverts fully on rejection.  Committed mutations
// are announced on the event bus; remote persistence is the sync
// coordinator's job and never blocks a local edit.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/event-scheduler/internal/collision"
	"github.com/iliyamo/event-scheduler/internal/event"
	"github.com/iliyamo/event-scheduler/internal/model"
	"github.com/iliyamo/event-scheduler/internal/remote"
	"github.com/iliyamo/event-scheduler/internal/store"
	"github.com/iliyamo/event-scheduler/internal/timegrid"
)

// Sentinel errors of the placement state machine.  Collision and bounds
// rejections resolve locally and never reach the sync coordinator.
var (
	ErrReadOnly             = errors.New("scheduler is read-only")
	ErrUnknownSession       = errors.New("unknown session")
	ErrUnknownMicrolocation = errors.New("unknown microlocation")
	ErrUnknownDay           = errors.New("unknown day")
	ErrCollision            = errors.New("session cannot be dropped onto another session")
	ErrOutOfBounds          = errors.New("placement lies outside the grid")
	ErrNotScheduled         = errors.New("session is not scheduled")
)

// Options configures the engine.
type Options struct {
	Grid            timegrid.Config
	DefaultDuration int  // minutes assigned to a fresh placement from the unscheduled list
	ReadOnly        bool // disables every mutating transition; day switching stays active
}

// Loader is the slice of the remote client the initial load needs.
type Loader interface {
	ListMicrolocations(ctx context.Context) ([]remote.Microlocation, error)
	ListSessions(ctx context.Context) ([]remote.Session, error)
}

// Engine owns the active day, the grid extent and all compound
// check-then-commit sequences over the session store.  A single mutex
// serializes mutations, which is the Go rendering of the original's single
// event-processing thread.
type Engine struct {
	mu        sync.Mutex
	opts      Options
	mainEvent model.Event
	store     *store.SessionStore
	bus       *event.Bus
	activeDay time.Time
	extent    timegrid.Extent
}

// New builds an engine for the given main event.  The contiguous date range
// of the event is seeded as day buckets and the first day becomes active.
func New(opts Options, mainEvent model.Event, st *store.SessionStore, bus *event.Bus) *Engine {
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = store.DefaultUnscheduledDuration
	}
	e := &Engine{opts: opts, mainEvent: mainEvent, store: st, bus: bus}

	end := dateOf(mainEvent.EndTime)
	for d := dateOf(mainEvent.StartTime); !d.After(end); d = d.AddDate(0, 0, 1) {
		st.EnsureDay(d)
	}
	days := st.Days()
	if len(days) > 0 {
		e.activeDay = days[0]
		e.extent = timegrid.ExtentForDay(opts.Grid, e.activeDay, mainEvent.StartTime, mainEvent.EndTime)
	}
	return e
}

// Load fetches microlocations and sessions from the authority and fills the
// store.  Only sessions in the "accepted" state are loaded; everything else
// is ignored entirely.  Loading is a non-broadcasting bulk operation: no
// Changed events are emitted, only a final recount for all columns.
func (e *Engine) Load(ctx context.Context, client Loader) error {
	microlocations, err := client.ListMicrolocations(ctx)
	if err != nil {
		return fmt.Errorf("loading microlocations: %w", err)
	}
	sessions, err := client.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]uint64, 0, len(microlocations))
	for _, m := range microlocations {
		e.store.AddMicrolocation(&model.Microlocation{
			ID: m.ID, Name: m.Name, Room: m.Room, Floor: m.Floor,
			Latitude: m.Latitude, Longitude: m.Longitude,
		})
		ids = append(ids, m.ID)
	}

	for _, dto := range sessions {
		if dto.State != "accepted" {
			continue
		}
		sess, err := e.sessionFromWire(dto)
		if err != nil {
			return fmt.Errorf("loading session %d: %w", dto.ID, err)
		}
		e.store.Upsert(sess)
		if !sess.Scheduled() {
			if _, err := e.store.Unschedule(sess.ID); err != nil {
				return err
			}
		}
	}

	e.bus.Publish(event.TopicRecount, event.Recount{MicrolocationIDs: ids})
	return nil
}

// sessionFromWire converts an authority session into the in-memory record,
// deriving duration and the header-compensated vertical position from the
// session's own day bounds.
func (e *Engine) sessionFromWire(dto remote.Session) (*model.Session, error) {
	start, err := remote.ParseTime(dto.StartTime)
	if err != nil {
		return nil, fmt.Errorf("bad start_time %q: %v", dto.StartTime, err)
	}
	end, err := remote.ParseTime(dto.EndTime)
	if err != nil {
		return nil, fmt.Errorf("bad end_time %q: %v", dto.EndTime, err)
	}

	sess := &model.Session{
		ID:        dto.ID,
		Title:     dto.Title,
		State:     dto.State,
		StartTime: start,
		EndTime:   end,
	}
	if d := int(end.Sub(start).Minutes()); d >= 0 {
		sess.Duration = d
	} else {
		sess.Duration = -d
	}
	if dto.Track != nil {
		id := dto.Track.ID
		sess.TrackID = &id
		e.store.AddTrack(&model.Track{ID: dto.Track.ID, Name: dto.Track.Name, Color: dto.Track.Color})
	}
	for _, sp := range dto.Speakers {
		sess.SpeakerIDs = append(sess.SpeakerIDs, sp.ID)
		sess.SpeakerNames = append(sess.SpeakerNames, sp.Name)
	}
	if dto.Microlocation != nil {
		id := dto.Microlocation.ID
		sess.MicrolocationID = &id
		ext := timegrid.ExtentForDay(e.opts.Grid, start, e.mainEvent.StartTime, e.mainEvent.EndTime)
		top := e.opts.Grid.TopForStart(start, ext.Start)
		sess.Top = &top
	}
	return sess, nil
}

// ActiveDay returns the currently selected day.
func (e *Engine) ActiveDay() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeDay
}

// Extent returns the grid extent of the active day.
func (e *Engine) Extent() timegrid.Extent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.extent
}

// Days returns the ordered day buckets of the schedule.
func (e *Engine) Days() []time.Time { return e.store.Days() }

// SwitchDay selects another day bucket and recomputes the grid extent.
// Every session is subsequently rendered strictly from its persisted
// fields; no geometry is recomputed.  Day switching stays active in
// read-only mode.
func (e *Engine) SwitchDay(day time.Time) error {
	day = dateOf(day)
	known := false
	for _, d := range e.store.Days() {
		if d.Equal(day) {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownDay
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeDay = day
	e.extent = timegrid.ExtentForDay(e.opts.Grid, day, e.mainEvent.StartTime, e.mainEvent.EndTime)
	return nil
}

// Place commits a drop of the session onto a microlocation column of the
// active day at the given raw vertical position.  The position is snapped
// to the grid, the height comes from the session's current duration (or the
// default for sessions fresh off the unscheduled list), and the candidate
// is validated against the grid bounds and the collision engine.  A
// rejected placement reverts the session to the unscheduled list and emits
// a conflict notification; nothing is sent to the authority.
func (e *Engine) Place(sessionID, microlocationID uint64, rawTop int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.ReadOnly {
		return ErrReadOnly
	}
	sess, ok := e.store.Get(sessionID)
	if !ok {
		return ErrUnknownSession
	}
	if _, ok := e.store.MicrolocationByID(microlocationID); !ok {
		return ErrUnknownMicrolocation
	}

	grid := e.opts.Grid
	top := grid.Snap(rawTop)
	duration := sess.Duration
	if duration <= 0 {
		duration = e.opts.DefaultDuration
	}
	height := grid.MinutesToPixels(duration, false)

	if top < grid.UnitPx || top+height > e.extent.HeightPx(grid) {
		e.revertLocked(sess)
		e.bus.Publish(event.TopicConflict, event.Conflict{SessionID: sessionID, Message: "session cannot be placed outside the timeline"})
		return ErrOutOfBounds
	}

	candidate := collision.Placement{SessionID: sessionID, MicrolocationID: microlocationID, Top: top, Height: height}
	if collision.Overlaps(candidate, e.placementsForDayLocked(e.activeDay), sessionID) {
		e.revertLocked(sess)
		e.bus.Publish(event.TopicConflict, event.Conflict{SessionID: sessionID, Message: ErrCollision.Error()})
		return ErrCollision
	}

	from := microlocationOf(sess)
	start, end := grid.TimesForPlacement(e.activeDay, e.extent.Start, top, height)
	sess.Top = &top
	sess.MicrolocationID = &microlocationID
	sess.StartTime = start
	sess.EndTime = end
	sess.Duration = duration
	sess.StartReset = false
	sess.EndReset = false
	e.store.Upsert(sess)

	e.bus.Publish(event.TopicPlaced, event.Placed{SessionID: sessionID, FromMicrolocation: from, ToMicrolocation: microlocationID})
	e.bus.Publish(event.TopicRecount, event.Recount{MicrolocationIDs: recountIDs(from, microlocationID)})
	e.publishChangedLocked(sess)
	return nil
}

// Resize commits a new height for a scheduled session.  The height is
// snapped and clamped to a minimum of one grid unit, the vertical position
// is unchanged, and the resulting interval is validated like a drop.  A
// rejected resize leaves the prior placement fully intact.  Resize always
// broadcasts a Changed event on commit.
func (e *Engine) Resize(sessionID uint64, rawHeight int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.ReadOnly {
		return ErrReadOnly
	}
	sess, ok := e.store.Get(sessionID)
	if !ok {
		return ErrUnknownSession
	}
	if !sess.Scheduled() {
		return ErrNotScheduled
	}

	grid := e.opts.Grid
	height := grid.Snap(rawHeight)
	if height < grid.UnitPx {
		height = grid.UnitPx
	}

	day := sess.Day()
	ext := timegrid.ExtentForDay(grid, day, e.mainEvent.StartTime, e.mainEvent.EndTime)
	if *sess.Top+height > ext.HeightPx(grid) {
		e.bus.Publish(event.TopicConflict, event.Conflict{SessionID: sessionID, Message: "session cannot be resized beyond the timeline"})
		return ErrOutOfBounds
	}

	candidate := collision.Placement{SessionID: sessionID, MicrolocationID: *sess.MicrolocationID, Top: *sess.Top, Height: height}
	if collision.Overlaps(candidate, e.placementsForDayLocked(day), sessionID) {
		e.bus.Publish(event.TopicConflict, event.Conflict{SessionID: sessionID, Message: ErrCollision.Error()})
		return ErrCollision
	}

	start, end := grid.TimesForPlacement(day, ext.Start, *sess.Top, height)
	sess.StartTime = start
	sess.EndTime = end
	sess.Duration = grid.PixelsToMinutes(height, false)
	e.store.Upsert(sess)

	e.publishChangedLocked(sess)
	return nil
}

// Unschedule removes a session from the grid and returns it to the
// unscheduled list, recomputing the counter of the column it left.
func (e *Engine) Unschedule(sessionID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.ReadOnly {
		return ErrReadOnly
	}
	sess, ok := e.store.Get(sessionID)
	if !ok {
		return ErrUnknownSession
	}

	from := microlocationOf(sess)
	updated, err := e.store.Unschedule(sessionID)
	if err != nil {
		return err
	}

	e.bus.Publish(event.TopicUnscheduled, event.Unscheduled{SessionID: sessionID, FromMicrolocation: from})
	e.bus.Publish(event.TopicRecount, event.Recount{MicrolocationIDs: recountIDs(from, 0)})
	e.publishChangedLocked(updated)
	return nil
}

// ClearOverlaps sweeps every day bucket and moves each session that
// collides with a sibling to the unscheduled list.  It returns the ids of
// the reverted sessions.  Like the initial load this is a local bulk
// cleanup: Unscheduled and Recount events fire, Changed does not.
func (e *Engine) ClearOverlaps() ([]uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.ReadOnly {
		return nil, ErrReadOnly
	}

	var reverted []uint64
	for _, day := range e.store.Days() {
		for _, id := range collision.FindAllOverlaps(e.placementsForDayLocked(day)) {
			sess, ok := e.store.Get(id)
			if !ok {
				continue
			}
			from := microlocationOf(sess)
			if _, err := e.store.Unschedule(id); err != nil {
				return reverted, err
			}
			reverted = append(reverted, id)
			e.bus.Publish(event.TopicUnscheduled, event.Unscheduled{SessionID: id, FromMicrolocation: from})
			e.bus.Publish(event.TopicRecount, event.Recount{MicrolocationIDs: recountIDs(from, 0)})
		}
	}
	return reverted, nil
}

// AddMicrolocation asserts a microlocation created at the authority into
// the grid at runtime.
func (e *Engine) AddMicrolocation(m *model.Microlocation) error {
	if e.opts.ReadOnly {
		return ErrReadOnly
	}
	e.store.AddMicrolocation(m)
	e.bus.Publish(event.TopicRecount, event.Recount{MicrolocationIDs: []uint64{m.ID}})
	return nil
}

// revertLocked undoes the pending placement of a rejected drop.  A session
// that was already unscheduled is untouched; a scheduled one is moved to
// the unscheduled list so no partial geometry survives.  No Changed event
// fires: collision rejections never reach the authority.
func (e *Engine) revertLocked(sess *model.Session) {
	if !sess.Scheduled() {
		return
	}
	from := microlocationOf(sess)
	if _, err := e.store.Unschedule(sess.ID); err != nil {
		return
	}
	e.bus.Publish(event.TopicUnscheduled, event.Unscheduled{SessionID: sess.ID, FromMicrolocation: from})
	e.bus.Publish(event.TopicRecount, event.Recount{MicrolocationIDs: recountIDs(from, 0)})
}

func (e *Engine) placementsForDayLocked(day time.Time) []collision.Placement {
	sessions := e.store.SessionsForDay(day)
	out := make([]collision.Placement, 0, len(sessions))
	for _, s := range sessions {
		if !s.Scheduled() {
			continue
		}
		out = append(out, collision.Placement{
			SessionID:       s.ID,
			MicrolocationID: *s.MicrolocationID,
			Top:             *s.Top,
			Height:          e.opts.Grid.MinutesToPixels(s.Duration, false),
		})
	}
	return out
}

func (e *Engine) publishChangedLocked(sess *model.Session) {
	snap := sess.Clone()
	e.bus.Publish(event.TopicChanged, event.Changed{
		SessionID:       snap.ID,
		Title:           snap.Title,
		StartTime:       snap.StartTime.Format(remote.TimeLayout),
		EndTime:         snap.EndTime.Format(remote.TimeLayout),
		MicrolocationID: snap.MicrolocationID,
		TrackID:         snap.TrackID,
		SpeakerIDs:      snap.SpeakerIDs,
	})
}

func microlocationOf(sess *model.Session) uint64 {
	if sess.MicrolocationID == nil {
		return 0
	}
	return *sess.MicrolocationID
}

// recountIDs builds the recount list from the old and new column, dropping
// the zero placeholder and duplicates.
func recountIDs(from, to uint64) []uint64 {
	var out []uint64
	if from != 0 {
		out = append(out, from)
	}
	if to != 0 && to != from {
		out = append(out, to)
	}
	return out
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
