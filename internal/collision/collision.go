// Package collision decides whether a candidate placement may occupy a
// microlocation column.  A placement covers the half-open pixel interval
// [Top, Top+Height) of its column; two placements collide when they share a
// microlocation and their intervals intersect.  Intervals that only touch
// at an endpoint do not collide, so back-to-back sessions are legal.
package collision

// Placement is the geometric footprint of a scheduled session.
type Placement struct {
	SessionID       uint64
	MicrolocationID uint64
	Top             int
	Height          int
}

// Intersects reports whether two placements occupy overlapping space in the
// same microlocation column.
func Intersects(a, b Placement) bool {
	if a.MicrolocationID != b.MicrolocationID {
		return false
	}
	return a.Top < b.Top+b.Height && b.Top < a.Top+a.Height
}

// Overlaps reports whether the candidate collides with any of the existing
// placements.  The placement identified by excludeID is skipped so a
// session being moved is never compared against its own prior position.
func Overlaps(candidate Placement, existing []Placement, excludeID uint64) bool {
	for _, p := range existing {
		if p.SessionID == excludeID {
			continue
		}
		if Intersects(candidate, p) {
			return true
		}
	}
	return false
}

// FindAllOverlaps sweeps every placement against its siblings and returns
// the session ids involved in at least one collision, in input order.  The
// scheduler uses the result to bulk-revert conflicting sessions to the
// unscheduled list.
func FindAllOverlaps(placements []Placement) []uint64 {
	var conflicted []uint64
	for i, p := range placements {
		for j, q := range placements {
			if i == j {
				continue
			}
			if Intersects(p, q) {
				conflicted = append(conflicted, p.SessionID)
				break
			}
		}
	}
	return conflicted
}
