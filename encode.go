package altimetry

import (
	"encoding/csv"
	"encoding/json"
	"io"
)

// Columns are the column names of a Track, in order.
var Columns = []string{"lat", "lon", "h", "beam", "cycle", "time"}

// Row returns p's values formatted in Columns order.
func (p Point) Row() []string {
	return []string{
		formatFloat(p.Lat),
		formatFloat(p.Lon),
		formatFloat(p.H),
		p.Beam,
		p.Cycle,
		p.Time,
	}
}

// WriteCSV writes t to w as CSV with a header row. An empty track is written
// as just the header.
func (t *Track) WriteCSV(w io.Writer) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(Columns); err != nil {
		return err
	}
	for _, point := range t.Points {
		if err := csvWriter.Write(point.Row()); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteJSON writes t to w as a JSON array of row objects. An empty track is
// written as an empty array.
func (t *Track) WriteJSON(w io.Writer) error {
	points := t.Points
	if points == nil {
		points = []Point{}
	}
	return json.NewEncoder(w).Encode(points)
}
