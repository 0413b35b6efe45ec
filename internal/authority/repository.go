package authority // authority holds the data access logic of the reference authority service

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package allows sentinel error definitions
	"time"
)

// Sentinel errors of the authority repositories.
var (
	ErrSessionNotFound = errors.New("session not found")
)

// MicrolocationRow represents a room of the venue as stored in MySQL.
type MicrolocationRow struct {
	ID        uint64
	EventID   uint64
	Name      string
	Room      sql.NullString
	Floor     sql.NullInt32
	Latitude  sql.NullFloat64
	Longitude sql.NullFloat64
}

// SessionRow represents a submitted session as stored in MySQL.  Track and
// microlocation references are nullable: a session may be accepted before
// it is placed anywhere.
type SessionRow struct {
	ID              uint64
	EventID         uint64
	Title           string
	State           string
	StartTime       time.Time
	EndTime         time.Time
	TrackID         sql.NullInt64
	TrackName       sql.NullString
	TrackColor      sql.NullString
	MicrolocationID sql.NullInt64
	MicrolocationNm sql.NullString
	SpeakerIDs      []uint64
	SpeakerNames    []string
}

// MicrolocationRepo provides access to the microlocations of an event.
type MicrolocationRepo struct {
	db *sql.DB
}

func NewMicrolocationRepo(db *sql.DB) *MicrolocationRepo {
	return &MicrolocationRepo{db: db}
}

// ListByEvent returns every microlocation of the event ordered by name.
func (r *MicrolocationRepo) ListByEvent(ctx context.Context, eventID uint64) ([]*MicrolocationRow, error) {
	const q = `SELECT id, event_id, name, room, floor, latitude, longitude
	           FROM microlocations WHERE event_id = ? ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MicrolocationRow
	for rows.Next() {
		m := new(MicrolocationRow)
		if err := rows.Scan(&m.ID, &m.EventID, &m.Name, &m.Room, &m.Floor, &m.Latitude, &m.Longitude); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create inserts a new microlocation and fills in its assigned id.
func (r *MicrolocationRepo) Create(ctx context.Context, m *MicrolocationRow) error {
	const q = `INSERT INTO microlocations (event_id, name, room, floor, latitude, longitude)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.EventID, m.Name, m.Room, m.Floor, m.Latitude, m.Longitude)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// SessionRepo provides access to the sessions of an event.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// ListByEvent returns every session of the event with its track and
// speakers resolved.  The scheduler filters on state itself, so no state
// filter is applied here.
func (r *SessionRepo) ListByEvent(ctx context.Context, eventID uint64) ([]*SessionRow, error) {
	const q = `SELECT s.id, s.event_id, s.title, s.state, s.start_time, s.end_time,
	                  s.track_id, t.name, t.color, s.microlocation_id, m.name
	           FROM sessions s
	           LEFT JOIN tracks t ON t.id = s.track_id
	           LEFT JOIN microlocations m ON m.id = s.microlocation_id
	           WHERE s.event_id = ?
	           ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SessionRow
	for rows.Next() {
		s := new(SessionRow)
		if err := rows.Scan(&s.ID, &s.EventID, &s.Title, &s.State, &s.StartTime, &s.EndTime,
			&s.TrackID, &s.TrackName, &s.TrackColor, &s.MicrolocationID, &s.MicrolocationNm); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range out {
		if err := r.loadSpeakers(ctx, s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SessionRepo) loadSpeakers(ctx context.Context, s *SessionRow) error {
	const q = `SELECT sp.id, sp.name
	           FROM session_speakers ss
	           JOIN speakers sp ON sp.id = ss.speaker_id
	           WHERE ss.session_id = ?
	           ORDER BY sp.id`
	rows, err := r.db.QueryContext(ctx, q, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id uint64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		s.SpeakerIDs = append(s.SpeakerIDs, id)
		s.SpeakerNames = append(s.SpeakerNames, name)
	}
	return rows.Err()
}

// UpdatePlacement applies a scheduler edit: title, times, track,
// microlocation and the speaker set.  The speaker rows are replaced inside
// one transaction so a concurrent read never sees a half-updated set.
func (r *SessionRepo) UpdatePlacement(ctx context.Context, eventID, sessionID uint64,
	title string, start, end time.Time, trackID, microlocationID *uint64, speakerIDs []uint64) error {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `UPDATE sessions
	           SET title = ?, start_time = ?, end_time = ?, track_id = ?, microlocation_id = ?
	           WHERE id = ? AND event_id = ?`
	res, err := tx.ExecContext(ctx, q, title, start, end, nullableID(trackID), nullableID(microlocationID), sessionID, eventID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update,
		// so confirm existence explicitly.
		var exists uint64
		err := tx.QueryRowContext(ctx, `SELECT id FROM sessions WHERE id = ? AND event_id = ?`, sessionID, eventID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_speakers WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	for _, sp := range speakerIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO session_speakers (session_id, speaker_id) VALUES (?, ?)`, sessionID, sp); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func nullableID(id *uint64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
