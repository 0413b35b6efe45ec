package model

// Track is a topical category used for grouping and coloring sessions,
// independent of microlocations.  Tracks are read-only from the engine's
// perspective.
//
// Fields:
//  ID    – identifier assigned by the remote authority.
//  Name  – display name of the track.
//  Color – explicit CSS color; when empty a deterministic color is derived
//          from Name and ID by the palette package.
type Track struct {
	ID    uint64
	Name  string
	Color string
}

// Speaker pairs a speaker id with a display name.  Speakers ride along on
// sessions and are echoed back to the authority on every update.
type Speaker struct {
	ID   uint64
	Name string
}
