// Package palette assigns display colors to tracks.  A track with an
// explicit color keeps it; otherwise a color is derived deterministically
// from the track's name and id, so the same track renders identically
// across page loads and clients.
package palette

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// colors800 is the fallback palette, the 800-weight shades of the material
// color set used for session blocks.
var colors800 = []string{
	"#c62828", // red
	"#ad1457", // pink
	"#6a1b9a", // purple
	"#4527a0", // deep purple
	"#283593", // indigo
	"#1565c0", // blue
	"#0277bd", // light blue
	"#00838f", // cyan
	"#00695c", // teal
	"#2e7d32", // green
	"#558b2f", // light green
	"#9e9d24", // lime
	"#f9a825", // yellow
	"#ff8f00", // amber
	"#ef6c00", // orange
	"#d84315", // deep orange
	"#4e342e", // brown
	"#424242", // grey
	"#37474f", // blue grey
}

// unknownSeed stands in for a missing track, mirroring the fixed color the
// original scheduler gave untracked sessions.
const unknownSeed = "null"

// ForTrack returns the color for a track.  An explicit non-empty color wins;
// otherwise the color is picked from the fallback palette by a stable hash
// of name and id.
func ForTrack(id uint64, name, explicit string) string {
	if c := strings.TrimSpace(explicit); c != "" {
		return c
	}
	return pick(name + strconv.FormatUint(id, 10))
}

// ForUnknown returns the placeholder color used when a session references
// no track, or a track id with no matching record.
func ForUnknown() string {
	return pick(unknownSeed)
}

func pick(seed string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return colors800[int(h.Sum32()%uint32(len(colors800)))]
}
