package authority

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-scheduler/internal/remote"
)

// Handler serves the authority's HTTP API.  The response shapes are the
// wire contract the scheduler consumes, so the DTOs of the remote package
// are reused verbatim here.
type Handler struct {
	Microlocations *MicrolocationRepo
	Sessions       *SessionRepo
}

func NewHandler(m *MicrolocationRepo, s *SessionRepo) *Handler {
	return &Handler{Microlocations: m, Sessions: s}
}

// Register wires the authority routes onto the Echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/v1/events/:event_id/microlocations", h.ListMicrolocations)
	e.POST("/v1/events/:event_id/microlocations", h.CreateMicrolocation)
	e.GET("/v1/events/:event_id/sessions", h.ListSessions)
	e.PUT("/v1/events/:event_id/sessions/:id", h.UpdateSession)
}

// ListMicrolocations returns the rooms of the event.
func (h *Handler) ListMicrolocations(c echo.Context) error {
	eventID, err := pathID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	rows, err := h.Microlocations.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]remote.Microlocation, 0, len(rows))
	for _, m := range rows {
		out = append(out, microlocationDTO(m))
	}
	return c.JSON(http.StatusOK, out)
}

// CreateMicrolocation inserts a new room and echoes it back with its id.
func (h *Handler) CreateMicrolocation(c echo.Context) error {
	eventID, err := pathID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req remote.CreateMicrolocationPayload
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	row := &MicrolocationRow{
		EventID:   eventID,
		Name:      req.Name,
		Room:      sql.NullString{String: req.Room, Valid: req.Room != ""},
		Floor:     sql.NullInt32{Int32: int32(req.Floor), Valid: true},
		Latitude:  sql.NullFloat64{Float64: req.Latitude, Valid: req.Latitude != 0},
		Longitude: sql.NullFloat64{Float64: req.Longitude, Valid: req.Longitude != 0},
	}
	if err := h.Microlocations.Create(ctx, row); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, microlocationDTO(row))
}

// ListSessions returns every session of the event, regardless of state.
func (h *Handler) ListSessions(c echo.Context) error {
	eventID, err := pathID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	rows, err := h.Sessions.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]remote.Session, 0, len(rows))
	for _, s := range rows {
		out = append(out, sessionDTO(s))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateSession applies a scheduler edit to a session.
func (h *Handler) UpdateSession(c echo.Context) error {
	eventID, err := pathID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req remote.UpdateSessionPayload
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	start, err := remote.ParseTime(req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be YYYY-MM-DD HH:mm:ss"})
	}
	end, err := remote.ParseTime(req.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be YYYY-MM-DD HH:mm:ss"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	err = h.Sessions.UpdatePlacement(ctx, eventID, sessionID, req.Title, start, end, req.TrackID, req.MicrolocationID, req.SpeakerIDs)
	if errors.Is(err, ErrSessionNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- mapping -----

func microlocationDTO(m *MicrolocationRow) remote.Microlocation {
	return remote.Microlocation{
		ID:        m.ID,
		Name:      m.Name,
		Room:      m.Room.String,
		Floor:     int(m.Floor.Int32),
		Latitude:  m.Latitude.Float64,
		Longitude: m.Longitude.Float64,
	}
}

func sessionDTO(s *SessionRow) remote.Session {
	dto := remote.Session{
		ID:        s.ID,
		Title:     s.Title,
		State:     s.State,
		StartTime: s.StartTime.Format(remote.TimeLayout),
		EndTime:   s.EndTime.Format(remote.TimeLayout),
	}
	if s.TrackID.Valid {
		dto.Track = &remote.TrackRef{
			ID:    uint64(s.TrackID.Int64),
			Name:  s.TrackName.String,
			Color: s.TrackColor.String,
		}
	}
	if s.MicrolocationID.Valid {
		dto.Microlocation = &remote.MicrolocationRef{
			ID:   uint64(s.MicrolocationID.Int64),
			Name: s.MicrolocationNm.String,
		}
	}
	dto.Speakers = make([]remote.SpeakerRef, 0, len(s.SpeakerIDs))
	for i, id := range s.SpeakerIDs {
		dto.Speakers = append(dto.Speakers, remote.SpeakerRef{ID: id, Name: s.SpeakerNames[i]})
	}
	return dto
}

// ----- helpers -----

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}
