package metrics

import (
	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/projection"
)

// MedianAgeRow carries one year's median ages. An empty population reports
// 0, the defined zero-population convention for this metric.
type MedianAgeRow struct {
	Year   int     `json:"year"`
	Male   float64 `json:"male"`
	Female float64 `json:"female"`
	Total  float64 `json:"total"`
}

// MedianAges computes the median age per year for males, females, and the
// whole population, interpolating linearly inside the crossing single-year
// interval. The result never leaves [0, MaxAge] and never leaves the
// bracketing interval.
func MedianAges(res *projection.Result) []MedianAgeRow {
	rows := make([]MedianAgeRow, 0, len(res.Years))
	for i := range res.Years {
		snap := &res.Years[i]
		rows = append(rows, MedianAgeRow{
			Year:   snap.Year,
			Male:   medianAge(snap.Matrix, countSex(demography.SexMale)),
			Female: medianAge(snap.Matrix, countSex(demography.SexFemale)),
			Total:  medianAge(snap.Matrix, countTotal),
		})
	}
	return rows
}

func countSex(sex demography.Sex) func(demography.CohortRow) float64 {
	return func(r demography.CohortRow) float64 { return r.Count(sex) }
}

func countTotal(r demography.CohortRow) float64 {
	return r.Total()
}

// medianAge builds the cumulative age distribution from age 0 upward, finds
// the interval where it crosses half the total, and interpolates within
// that one-year interval.
func medianAge(m *demography.CohortMatrix, count func(demography.CohortRow) float64) float64 {
	total := 0.0
	for _, r := range m.Rows {
		total += count(r)
	}
	if total == 0 {
		return 0
	}

	half := total / 2
	cumulative := 0.0
	for _, r := range m.Rows {
		c := count(r)
		if cumulative+c >= half && c > 0 {
			frac := (half - cumulative) / c
			// Interpolation stays inside the crossing interval even
			// under floating-point drift.
			if frac < 0 {
				frac = 0
			}
			if frac > 1 {
				frac = 1
			}
			return float64(r.Age) + frac
		}
		cumulative += c
	}

	return float64(m.TopAge())
}
