package geo

import "time"

// Displacement is the derived edge between two consecutive breadcrumbs.
type Displacement struct {
	DtSeconds   float64
	DistanceKM  float64
	FromCell    string
	ToCell      string
	Timestamp   time.Time // timestamp of the later breadcrumb
}

// ComputeDisplacements builds the displacement series for a sequence of
// (timestamp, cell) pairs, already ordered and index-validated by the Chain
// Validator. The series has len-1 entries.
func ComputeDisplacements(timestamps []time.Time, cells []string) []Displacement {
	n := len(timestamps)
	if n < 2 {
		return nil
	}
	out := make([]Displacement, 0, n-1)
	for i := 1; i < n; i++ {
		dt := ClampDt(timestamps[i].Sub(timestamps[i-1]).Seconds())
		dist := CellDistanceKM(cells[i-1], cells[i])
		out = append(out, Displacement{
			DtSeconds:  dt,
			DistanceKM: dist,
			FromCell:   cells[i-1],
			ToCell:     cells[i],
			Timestamp:  timestamps[i],
		})
	}
	return out
}
