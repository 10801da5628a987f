// README: Common identifier and coordinate types shared across modules.
package types

// ID is a database-assigned identifier for listings, users and line-items.
type ID int64

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Zero reports whether the point carries no coordinate at all.
// Listings submitted without a map pin arrive as (0, 0).
func (p Point) Zero() bool {
	return p.Lat == 0 && p.Lng == 0
}
