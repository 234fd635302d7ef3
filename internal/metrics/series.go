package metrics

import (
	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/projection"
)

// Age band boundaries shared by the sex-ratio and dependency calculators:
// youth 0-14, working age 15-64, old age 65+.
const (
	youthMax   = 14
	workingMin = 15
	workingMax = 64
	oldMin     = 65
)

// Band names a population slice for sex-ratio reporting.
type Band string

const (
	BandAll     Band = "all"
	BandBirth   Band = "0"
	BandYouth   Band = "0-14"
	BandWorking Band = "15-64"
	BandOld     Band = "65+"
)

// SexRatioRow is one year-band sex ratio (males per 100 females). Flat
// scalar columns only, ready for tabular export.
type SexRatioRow struct {
	Year  int   `json:"year"`
	Band  Band  `json:"band"`
	Ratio Ratio `json:"ratio"`
}

// SexRatios computes males-per-100-females for every recorded year over the
// standard bands. A band with women but no men reports 0; no women at all
// reports the infinite sentinel; an empty band reports zero-population.
func SexRatios(res *projection.Result) []SexRatioRow {
	rows := make([]SexRatioRow, 0, len(res.Years)*5)
	for i := range res.Years {
		snap := &res.Years[i]
		m := snap.Matrix
		bands := []struct {
			band   Band
			lo, hi int
		}{
			{BandAll, 0, demography.MaxAge},
			{BandBirth, 0, 0},
			{BandYouth, 0, youthMax},
			{BandWorking, workingMin, workingMax},
			{BandOld, oldMin, demography.MaxAge},
		}
		for _, b := range bands {
			males := m.SumRangeSex(b.lo, b.hi, demography.SexMale)
			females := m.SumRangeSex(b.lo, b.hi, demography.SexFemale)
			rows = append(rows, SexRatioRow{
				Year:  snap.Year,
				Band:  b.band,
				Ratio: NewRatio(males, females, 100),
			})
		}
	}
	return rows
}

// DependencyRow carries one year's dependency ratios: dependents per 100
// working-age persons.
type DependencyRow struct {
	Year   int   `json:"year"`
	Youth  Ratio `json:"youth"`
	OldAge Ratio `json:"old_age"`
	Total  Ratio `json:"total"`
}

// DependencyRatios computes youth (0-14), old-age (65+) and total
// dependency ratios per year. With no working-age population the sentinels
// propagate instead of dividing by zero.
func DependencyRatios(res *projection.Result) []DependencyRow {
	rows := make([]DependencyRow, 0, len(res.Years))
	for i := range res.Years {
		snap := &res.Years[i]
		m := snap.Matrix
		young := m.SumRange(0, youthMax)
		working := m.SumRange(workingMin, workingMax)
		old := m.SumRange(oldMin, demography.MaxAge)

		rows = append(rows, DependencyRow{
			Year:   snap.Year,
			Youth:  NewRatio(young, working, 100),
			OldAge: NewRatio(old, working, 100),
			Total:  NewRatio(young+old, working, 100),
		})
	}
	return rows
}
