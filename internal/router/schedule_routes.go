package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-scheduler/internal/handler"
	"github.com/iliyamo/event-scheduler/internal/middleware"
)

// RegisterSchedule wires the grid views and placement operations.  Every
// route requires an authenticated organizer.  The read endpoints sit behind
// the response cache and the write endpoints behind the rate limiter; a
// rejected write still re-renders quickly because mutations flush the cache.
func RegisterSchedule(e *echo.Echo, s *handler.ScheduleHandler, m *handler.MicrolocationHandler, sy *handler.SyncHandler, jwtSecret string, view echo.MiddlewareFunc, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/schedule")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(handler.RoleOrganizer))

	// Views.
	g.GET("", s.GetSchedule, view)
	g.GET("/days", s.GetDays, view)
	g.GET("/unscheduled", s.GetUnscheduled)

	// Day selection stays active in read-only mode.
	g.POST("/day", s.SwitchDay)

	// Placement lifecycle.
	g.POST("/sessions/:id/drop", s.Drop, limit)
	g.POST("/sessions/:id/resize", s.Resize, limit)
	g.POST("/sessions/:id/remove", s.Remove, limit)
	g.POST("/clear-overlaps", s.ClearOverlaps, limit)

	// Rooms and sync failures.
	g.POST("/microlocations", m.Create, limit)
	g.GET("/sync/failures", sy.Failures)
	g.POST("/sync/:id/retry", sy.Retry, limit)
}
