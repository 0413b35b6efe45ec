// Package timegrid implements the coordinate model of the scheduling grid.
// It converts between wall-clock minutes and vertical pixel positions, snaps
// free-form drag geometry to the grid, and computes the grid extent for a
// given day.  48 pixels correspond to 15 minutes by default; the smallest
// unit of measurement is one grid unit.
package timegrid

import (
	"fmt"
	"time"
)

// Default grid granularity.  One unit of 48 pixels covers 15 minutes.
const (
	DefaultUnitMinutes = 15
	DefaultUnitPx      = 48
)

// Config carries the grid granularity.  The zero value is not usable; build
// one with New or fill both fields explicitly.
type Config struct {
	UnitMinutes int // minutes covered by one grid unit
	UnitPx      int // pixel height of one grid unit
}

// New returns a Config with the given granularity, falling back to the
// defaults for non-positive values.
func New(unitMinutes, unitPx int) Config {
	if unitMinutes <= 0 {
		unitMinutes = DefaultUnitMinutes
	}
	if unitPx <= 0 {
		unitPx = DefaultUnitPx
	}
	return Config{UnitMinutes: unitMinutes, UnitPx: unitPx}
}

// Clock is a wall-clock time of day without a date.
type Clock struct {
	Hour   int
	Minute int
}

// Minutes returns the clock time as minutes since midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

// Extent describes the grid of a single day: its clock bounds and the total
// number of grid units.  UnitCount drives the total grid height and must be
// recomputed whenever the selected day changes.
type Extent struct {
	Start     Clock
	End       Clock
	UnitCount int
}

// HeightPx returns the total pixel height of the day's grid, including the
// header row.
func (e Extent) HeightPx(cfg Config) int { return e.UnitCount * cfg.UnitPx }

// MinutesToPixels converts minutes to a vertical pixel distance.  The sign
// of minutes is discarded.  When forTop is true one extra unit is added to
// compensate for the header row that occupies the first grid unit.
func (cfg Config) MinutesToPixels(minutes int, forTop bool) int {
	if minutes < 0 {
		minutes = -minutes
	}
	px := minutes * cfg.UnitPx / cfg.UnitMinutes
	if forTop {
		px += cfg.UnitPx
	}
	return px
}

// PixelsToMinutes is the exact inverse of MinutesToPixels.  The sign of
// pixels is discarded.  When fromTop is true one unit is subtracted before
// scaling down, undoing the header compensation.
func (cfg Config) PixelsToMinutes(pixels int, fromTop bool) int {
	if pixels < 0 {
		pixels = -pixels
	}
	if fromTop {
		pixels -= cfg.UnitPx
	}
	return pixels * cfg.UnitMinutes / cfg.UnitPx
}

// Snap rounds a raw pixel value to the nearest multiple of the unit height,
// quantizing free-form drag or resize geometry to the grid's minimum time
// unit.
func (cfg Config) Snap(raw int) int {
	half := cfg.UnitPx / 2
	if raw < 0 {
		return -((-raw + half) / cfg.UnitPx * cfg.UnitPx)
	}
	return (raw + half) / cfg.UnitPx * cfg.UnitPx
}

// ExtentForDay computes the grid extent for the given calendar day.  The
// first and last day of the main event use the event's actual start and end
// clock time; every other day runs the full 00:00-23:59 range.
func ExtentForDay(cfg Config, day, eventStart, eventEnd time.Time) Extent {
	ext := Extent{Start: Clock{0, 0}, End: Clock{23, 59}}
	if sameDay(day, eventStart) {
		ext.Start = Clock{eventStart.Hour(), eventStart.Minute()}
	}
	if sameDay(day, eventEnd) {
		ext.End = Clock{eventEnd.Hour(), eventEnd.Minute()}
	}
	span := ext.End.Minutes() - ext.Start.Minutes()
	if span < 0 {
		span = 0
	}
	// One unit per started interval plus the header unit.
	ext.UnitCount = (span+cfg.UnitMinutes-1)/cfg.UnitMinutes + 1
	return ext
}

// TopForStart returns the header-compensated pixel position of a session
// that starts at the given timestamp on a day whose grid begins at dayStart.
func (cfg Config) TopForStart(start time.Time, dayStart Clock) int {
	startMinutes := start.Hour()*60 + start.Minute()
	return cfg.MinutesToPixels(startMinutes-dayStart.Minutes(), true)
}

// TimesForPlacement converts a committed placement back into absolute start
// and end timestamps, anchored to the selected day and the grid's start
// clock.  top must be header-compensated and height is the session's pixel
// height.
func (cfg Config) TimesForPlacement(day time.Time, dayStart Clock, top, height int) (time.Time, time.Time) {
	startMinutes := dayStart.Minutes() + cfg.PixelsToMinutes(top, true)
	endMinutes := startMinutes + cfg.PixelsToMinutes(height, false)
	base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(startMinutes) * time.Minute),
		base.Add(time.Duration(endMinutes) * time.Minute)
}

// DayLabel formats a date the way day buttons display it, e.g.
// "2nd May 2013".
func DayLabel(day time.Time) string {
	return fmt.Sprintf("%d%s %s %d", day.Day(), ordinalSuffix(day.Day()), day.Month().String(), day.Year())
}

func ordinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
