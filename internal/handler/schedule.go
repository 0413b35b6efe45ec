package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-scheduler/internal/config"
	"github.com/iliyamo/event-scheduler/internal/middleware"
	"github.com/iliyamo/event-scheduler/internal/model"
	"github.com/iliyamo/event-scheduler/internal/palette"
	"github.com/iliyamo/event-scheduler/internal/remote"
	"github.com/iliyamo/event-scheduler/internal/scheduler"
	"github.com/iliyamo/event-scheduler/internal/store"
	"github.com/iliyamo/event-scheduler/internal/timegrid"
)

// ScheduleHandler serves the grid views and the placement operations.  All
// writes go through the engine; the handler only translates HTTP to engine
// calls and engine errors back to status codes.
type ScheduleHandler struct {
	Cfg         config.Config
	Grid        timegrid.Config
	Engine      *scheduler.Engine
	Store       *store.SessionStore
	Rdb         *redis.Client // nil disables cache invalidation
	CachePrefix string
}

func NewScheduleHandler(cfg config.Config, grid timegrid.Config, eng *scheduler.Engine, st *store.SessionStore, rdb *redis.Client, cachePrefix string) *ScheduleHandler {
	return &ScheduleHandler{Cfg: cfg, Grid: grid, Engine: eng, Store: st, Rdb: rdb, CachePrefix: cachePrefix}
}

// ----- DTOs -----

type dayPart struct {
	Date   string `json:"date"`  // "2013-05-02"
	Label  string `json:"label"` // "2nd May 2013"
	Active bool   `json:"active"`
}

type gridPart struct {
	UnitMinutes int    `json:"unit_minutes"`
	UnitPx      int    `json:"unit_px"`
	DayStart    string `json:"day_start"` // "08:00"
	DayEnd      string `json:"day_end"`
	Units       int    `json:"units"`
	HeightPx    int    `json:"height_px"`
}

type sessionPart struct {
	ID        uint64   `json:"id"`
	Title     string   `json:"title"`
	Top       int      `json:"top"`
	Height    int      `json:"height"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Color     string   `json:"color"`
	Speakers  []string `json:"speakers"`
	Summary   string   `json:"summary"`
}

type columnPart struct {
	ID             uint64        `json:"id"`
	Name           string        `json:"name"`
	Room           string        `json:"room"`
	Floor          int           `json:"floor"`
	ScheduledCount int           `json:"scheduled_count"`
	Sessions       []sessionPart `json:"sessions"`
}

type scheduleResp struct {
	ReadOnly bool         `json:"read_only"`
	Day      dayPart      `json:"day"`
	Grid     gridPart     `json:"grid"`
	Days     []dayPart    `json:"days"`
	Columns  []columnPart `json:"columns"`
}

type unscheduledPart struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	Duration  int    `json:"duration_min"`
	StartTime string `json:"start_time"`
	IsReset   bool   `json:"is_reset"`
	Color     string `json:"color"`
	Summary   string `json:"summary"`
}

// ----- views -----

// GetSchedule renders the active day: the grid extent, every microlocation
// column and the placed sessions with their colors and info summaries.
func (h *ScheduleHandler) GetSchedule(c echo.Context) error {
	day := h.Engine.ActiveDay()
	ext := h.Engine.Extent()

	scheduled := h.Store.SessionsForDay(day)
	known := make(map[uint64]bool)

	columns := make([]columnPart, 0)
	for _, m := range h.Store.Microlocations() {
		known[m.ID] = true
		col := columnPart{
			ID:             m.ID,
			Name:           m.Name,
			Room:           m.Room,
			Floor:          m.Floor,
			ScheduledCount: h.Store.ScheduledCount(m.ID),
			Sessions:       []sessionPart{},
		}
		for _, s := range scheduled {
			if !s.Scheduled() || *s.MicrolocationID != m.ID {
				continue
			}
			col.Sessions = append(col.Sessions, h.sessionView(s))
		}
		columns = append(columns, col)
	}

	// Sessions whose room the registry does not know still render, in a
	// placeholder column.  Log-only; the data inconsistency sits upstream.
	var orphans []sessionPart
	for _, s := range scheduled {
		if s.Scheduled() && !known[*s.MicrolocationID] {
			log.Printf("session %d references unknown microlocation %d", s.ID, *s.MicrolocationID)
			orphans = append(orphans, h.sessionView(s))
		}
	}
	if len(orphans) > 0 {
		columns = append(columns, columnPart{Name: "Unknown room", Sessions: orphans, ScheduledCount: len(orphans)})
	}

	return c.JSON(http.StatusOK, scheduleResp{
		ReadOnly: h.Cfg.ReadOnly,
		Day:      dayPart{Date: day.Format("2006-01-02"), Label: timegrid.DayLabel(day), Active: true},
		Grid: gridPart{
			UnitMinutes: h.Grid.UnitMinutes,
			UnitPx:      h.Grid.UnitPx,
			DayStart:    clockString(ext.Start),
			DayEnd:      clockString(ext.End),
			Units:       ext.UnitCount,
			HeightPx:    ext.HeightPx(h.Grid),
		},
		Days:    h.dayParts(day),
		Columns: columns,
	})
}

// GetDays lists the day buckets of the event with their display labels.
func (h *ScheduleHandler) GetDays(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"days": h.dayParts(h.Engine.ActiveDay())})
}

// GetUnscheduled lists the unscheduled sessions, optionally filtered by a
// fuzzy title query (?q=).
func (h *ScheduleHandler) GetUnscheduled(c echo.Context) error {
	var sessions []*model.Session
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		sessions = h.Store.SearchUnscheduled(q)
	} else {
		sessions = h.Store.Unscheduled()
	}

	items := make([]unscheduledPart, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, unscheduledPart{
			ID:        s.ID,
			Title:     s.Title,
			Duration:  s.Duration,
			StartTime: s.StartTime.Format(remote.TimeLayout),
			IsReset:   s.StartReset && s.EndReset,
			Color:     h.colorFor(s),
			Summary:   h.summaryFor(s),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": items})
}

// ----- mutations -----

type switchDayReq struct {
	Day string `json:"day"` // "2006-01-02"
}

// SwitchDay selects another day bucket.  Allowed in read-only mode.
func (h *ScheduleHandler) SwitchDay(c echo.Context) error {
	var req switchDayReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(req.Day), time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be YYYY-MM-DD"})
	}
	if err := h.Engine.SwitchDay(day); err != nil {
		return h.engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"day": day.Format("2006-01-02")})
}

type dropReq struct {
	MicrolocationID uint64 `json:"microlocation_id"`
	Top             int    `json:"top"`
}

// Drop places a session onto a microlocation column of the active day.
func (h *ScheduleHandler) Drop(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req dropReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.Engine.Place(id, req.MicrolocationID, req.Top); err != nil {
		return h.engineError(c, err)
	}
	h.invalidate(c)

	sess, _ := h.Store.Get(id)
	return c.JSON(http.StatusOK, echo.Map{"session": h.sessionView(sess)})
}

type resizeReq struct {
	Height int `json:"height"`
}

// Resize commits a new pixel height for a scheduled session.
func (h *ScheduleHandler) Resize(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var req resizeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	if err := h.Engine.Resize(id, req.Height); err != nil {
		return h.engineError(c, err)
	}
	h.invalidate(c)

	sess, _ := h.Store.Get(id)
	return c.JSON(http.StatusOK, echo.Map{"session": h.sessionView(sess)})
}

// Remove returns a session from the grid to the unscheduled list.
func (h *ScheduleHandler) Remove(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	if err := h.Engine.Unschedule(id); err != nil {
		return h.engineError(c, err)
	}
	h.invalidate(c)
	return c.NoContent(http.StatusNoContent)
}

// ClearOverlaps sweeps every day and unschedules each session that collides
// with a sibling.  The reverted ids are returned to the caller.
func (h *ScheduleHandler) ClearOverlaps(c echo.Context) error {
	reverted, err := h.Engine.ClearOverlaps()
	if err != nil {
		return h.engineError(c, err)
	}
	h.invalidate(c)
	if reverted == nil {
		reverted = []uint64{}
	}
	return c.JSON(http.StatusOK, echo.Map{"reverted": reverted})
}

// ----- helpers -----

func (h *ScheduleHandler) dayParts(active time.Time) []dayPart {
	days := h.Engine.Days()
	out := make([]dayPart, 0, len(days))
	for _, d := range days {
		out = append(out, dayPart{
			Date:   d.Format("2006-01-02"),
			Label:  timegrid.DayLabel(d),
			Active: d.Equal(active),
		})
	}
	return out
}

func (h *ScheduleHandler) sessionView(s *model.Session) sessionPart {
	top := 0
	if s.Top != nil {
		top = *s.Top
	}
	return sessionPart{
		ID:        s.ID,
		Title:     s.Title,
		Top:       top,
		Height:    h.Grid.MinutesToPixels(s.Duration, false),
		StartTime: s.StartTime.Format(remote.TimeLayout),
		EndTime:   s.EndTime.Format(remote.TimeLayout),
		Color:     h.colorFor(s),
		Speakers:  append([]string{}, s.SpeakerNames...),
		Summary:   h.summaryFor(s),
	}
}

func (h *ScheduleHandler) colorFor(s *model.Session) string {
	if s.TrackID != nil {
		if t, ok := h.Store.TrackByID(*s.TrackID); ok {
			return palette.ForTrack(t.ID, t.Name, t.Color)
		}
	}
	return palette.ForUnknown()
}

// summaryFor builds the hover text of a session block: the time range, the
// track name and the speaker list.
func (h *ScheduleHandler) summaryFor(s *model.Session) string {
	var b strings.Builder
	if s.Scheduled() {
		fmt.Fprintf(&b, "%s - %s", s.StartTime.Format("15:04"), s.EndTime.Format("15:04"))
	} else {
		fmt.Fprintf(&b, "%d min", s.Duration)
	}
	if s.TrackID != nil {
		if t, ok := h.Store.TrackByID(*s.TrackID); ok && t.Name != "" {
			b.WriteString(" | ")
			b.WriteString(t.Name)
		}
	}
	if len(s.SpeakerNames) > 0 {
		b.WriteString(" | By ")
		b.WriteString(strings.Join(s.SpeakerNames, ", "))
	}
	return b.String()
}

func clockString(c timegrid.Clock) string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func sessionID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// invalidate drops cached schedule views after a committed mutation.
func (h *ScheduleHandler) invalidate(c echo.Context) {
	middleware.FlushCache(c.Request().Context(), h.Rdb, h.CachePrefix)
}

// engineError maps engine sentinels onto HTTP status codes.  Collision and
// bounds rejections are conflicts the client resolves by re-rendering.
func (h *ScheduleHandler) engineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, scheduler.ErrReadOnly):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, scheduler.ErrUnknownSession),
		errors.Is(err, scheduler.ErrUnknownMicrolocation),
		errors.Is(err, scheduler.ErrUnknownDay):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, scheduler.ErrCollision),
		errors.Is(err, scheduler.ErrOutOfBounds):
		h.invalidate(c)
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, scheduler.ErrNotScheduled):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
	}
}
