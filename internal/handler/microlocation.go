package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-scheduler/internal/model"
	"github.com/iliyamo/event-scheduler/internal/remote"
	"github.com/iliyamo/event-scheduler/internal/scheduler"
)

// MicrolocationCreator is the slice of the remote client this handler needs.
type MicrolocationCreator interface {
	CreateMicrolocation(ctx context.Context, payload remote.CreateMicrolocationPayload) (remote.Microlocation, error)
}

// MicrolocationHandler creates rooms at the authority and asserts them into
// the running grid.  Creation is the one edit that is remote-first: a room
// that only exists locally could never receive synced sessions.
type MicrolocationHandler struct {
	Client MicrolocationCreator
	Engine *scheduler.Engine
}

func NewMicrolocationHandler(client MicrolocationCreator, eng *scheduler.Engine) *MicrolocationHandler {
	return &MicrolocationHandler{Client: client, Engine: eng}
}

type createMicrolocationReq struct {
	Name      string  `json:"name"`
	Room      string  `json:"room"`
	Floor     int     `json:"floor"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Create registers a new microlocation with the authority, then appends the
// returned room as a fresh grid column.  An authority failure is reported
// as retryable and leaves the grid untouched.
func (h *MicrolocationHandler) Create(c echo.Context) error {
	var req createMicrolocationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	created, err := h.Client.CreateMicrolocation(ctx, remote.CreateMicrolocationPayload{
		Name:      req.Name,
		Room:      req.Room,
		Floor:     req.Floor,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "creating microlocation failed, please retry"})
	}

	m := &model.Microlocation{
		ID: created.ID, Name: created.Name, Room: created.Room, Floor: created.Floor,
		Latitude: created.Latitude, Longitude: created.Longitude,
	}
	if err := h.Engine.AddMicrolocation(m); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"microlocation": columnPart{
			ID: m.ID, Name: m.Name, Room: m.Room, Floor: m.Floor, Sessions: []sessionPart{},
		},
	})
}
