// Package altimetry retrieves ICESat-2 altimetry tracks from the
// OpenAltimetry API and parses ATL06 granule filenames.
package altimetry

import "errors"

var (
	ErrPatternMismatch   = errors.New("filename does not match ATL06 pattern")
	ErrRequestFailed     = errors.New("request failed")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnexpectedShape   = errors.New("unexpected response shape")
	ErrInvalidRequest    = errors.New("invalid request")
)

// A BBox is a bounding box in longitude and latitude.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// A Point is a single elevation observation along a beam.
type Point struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	H     float64 `json:"h"`
	Beam  string  `json:"beam"`
	Cycle string  `json:"cycle"`
	Time  string  `json:"time"`
}

// A Track is the set of points of all beams of one pass, in beam order.
type Track struct {
	Points []Point
}

// Len returns the number of rows in t.
func (t *Track) Len() int {
	return len(t.Points)
}
