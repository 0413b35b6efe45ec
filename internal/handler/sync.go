package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-scheduler/internal/syncer"
)

// SyncHandler exposes the sync coordinator's failure ledger so an operator
// can inspect and re-issue edits the authority rejected or missed.
type SyncHandler struct {
	Coordinator *syncer.Coordinator
}

func NewSyncHandler(co *syncer.Coordinator) *SyncHandler {
	return &SyncHandler{Coordinator: co}
}

// Failures lists the session ids whose last edit is not persisted remotely.
func (h *SyncHandler) Failures(c echo.Context) error {
	failed := h.Coordinator.Failures()
	if failed == nil {
		failed = []uint64{}
	}
	return c.JSON(http.StatusOK, echo.Map{"session_ids": failed})
}

// Retry re-issues the identical failed payload for one session.  The
// request is accepted immediately; the outcome arrives as a sync result.
func (h *SyncHandler) Retry(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	known := false
	for _, failed := range h.Coordinator.Failures() {
		if failed == id {
			known = true
			break
		}
	}
	if !known {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no failed edit for session"})
	}
	go h.Coordinator.Retry(id)
	return c.JSON(http.StatusAccepted, echo.Map{"session_id": id})
}
