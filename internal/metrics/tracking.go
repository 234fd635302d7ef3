package metrics

import (
	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/projection"
)

// CohortTrackingRow follows one birth cohort through a single projection
// year. Survival compares against the prior year, Cumulative against the
// cohort's first recorded size. Migration can push either above 100.
type CohortTrackingRow struct {
	Year       int     `json:"year"`
	Age        int     `json:"age"`
	Male       float64 `json:"male"`
	Female     float64 `json:"female"`
	Total      float64 `json:"total"`
	Survival   Ratio   `json:"survival"`   // percent of the prior year
	Cumulative Ratio   `json:"cumulative"` // percent of the initial size
}

// TrackCohort follows the cohort born in birthYear across the projection
// (age = year - birthYear). Tracking stops once the cohort reaches the
// terminal bucket, where it merges with older cohorts and loses identity.
// Returns nil when the cohort never appears inside the series.
func TrackCohort(res *projection.Result, birthYear int) []CohortTrackingRow {
	var rows []CohortTrackingRow
	initial := -1.0
	prior := 0.0

	for i := range res.Years {
		snap := &res.Years[i]
		age := snap.Year - birthYear
		if age < 0 || age >= demography.MaxAge {
			continue
		}

		row, ok := snap.Matrix.Row(age)
		if !ok {
			continue
		}
		total := row.Total()

		tr := CohortTrackingRow{
			Year:   snap.Year,
			Age:    age,
			Male:   row.Male,
			Female: row.Female,
			Total:  total,
		}

		if initial < 0 {
			// First sighting anchors both baselines.
			initial = total
			tr.Survival = NewRatio(total, total, 100)
			tr.Cumulative = NewRatio(total, total, 100)
		} else {
			tr.Survival = NewRatio(total, prior, 100)
			tr.Cumulative = NewRatio(total, initial, 100)
		}

		prior = total
		rows = append(rows, tr)
	}
	return rows
}
