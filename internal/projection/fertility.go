package projection

import "github.com/popula/engine/internal/demography"

// ExpectedBirths computes the year's expected births from the female
// cohorts at each fertility age, split by the table's sex ratio at birth
// (males per 100 females). Fails with *demography.MissingCohortError when a
// fertility age has no cohort row to draw mothers from.
func ExpectedBirths(m *demography.CohortMatrix, fert *demography.FertilityTable) (maleBirths, femaleBirths float64, err error) {
	total := 0.0
	for _, r := range fert.Rates {
		row, ok := m.Row(r.Age)
		if !ok {
			return 0, 0, &demography.MissingCohortError{Age: r.Age}
		}
		total += row.Female * r.Rate
	}
	if total <= 0 {
		return 0, 0, nil
	}

	maleShare := fert.SexRatioAtBirth / (fert.SexRatioAtBirth + 100)
	maleBirths = total * maleShare
	femaleBirths = total - maleBirths
	return maleBirths, femaleBirths, nil
}
