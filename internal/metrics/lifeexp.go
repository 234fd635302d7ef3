package metrics

import (
	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/lifetable"
	"github.com/popula/engine/internal/projection"
)

// LifeExpectancyRow summarizes one projection year's life table per sex:
// expectancy at birth and at the old-age boundary.
type LifeExpectancyRow struct {
	Year      int     `json:"year"`
	MaleE0    float64 `json:"male_e0"`
	FemaleE0  float64 `json:"female_e0"`
	MaleE65   float64 `json:"male_e65"`
	FemaleE65 float64 `json:"female_e65"`
}

// LifeExpectancies rebuilds each year's shock-adjusted life table and
// extracts e0 and e65 per sex. It takes the same base mortality and shocks
// the projection ran with; the result itself only stores cohorts.
func LifeExpectancies(mort *demography.MortalityTable, shocks []projection.Shock, baseYear, horizon int, radix float64) ([]LifeExpectancyRow, error) {
	if radix == 0 {
		radix = lifetable.Radix
	}
	rows := make([]LifeExpectancyRow, 0, horizon+1)
	for year := baseYear; year <= baseYear+horizon; year++ {
		adjusted := projection.AdjustedMortality(mort, shocks, year)
		male, female, err := lifetable.BuildTable(adjusted, radix)
		if err != nil {
			return nil, err
		}
		row := LifeExpectancyRow{
			Year:     year,
			MaleE0:   male[0].Ex,
			FemaleE0: female[0].Ex,
		}
		if len(male) > oldMin {
			row.MaleE65 = male[oldMin].Ex
			row.FemaleE65 = female[oldMin].Ex
		}
		rows = append(rows, row)
	}
	return rows, nil
}
