package model

// Microlocation represents a physical or virtual room of the event venue.
// Each microlocation is rendered as one vertical column of the grid.
// Microlocations are created by the remote authority and never mutated
// locally; new ones may be appended at runtime via the create operation.
//
// Fields:
//  ID        – identifier assigned by the remote authority.
//  Name      – display name; columns are ordered alphabetically by it.
//  Room      – room designation within the venue.
//  Floor     – floor number.
//  Latitude  – venue latitude, forwarded verbatim.
//  Longitude – venue longitude, forwarded verbatim.
type Microlocation struct {
	ID        uint64
	Name      string
	Room      string
	Floor     int
	Latitude  float64
	Longitude float64
}
