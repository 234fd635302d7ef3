// Package lifetable builds full actuarial life tables from age-specific
// mortality probabilities.
package lifetable

import (
	"math"

	"github.com/popula/engine/internal/demography"
)

// Radix is the nominal starting population a life table is normalized to.
const Radix = 100_000.0

// infantSeparation is the fraction of infant deaths assumed to occur late in
// the first year of life. Infant mortality clusters near birth, so person-
// years for age 0 use lx1 + 0.3*d0 instead of the midpoint rule.
const infantSeparation = 0.3

// Row is one age of a life table: survivors lx out of the radix, deaths dx
// in the interval, person-years PersonYears lived in the interval, Tx
// person-years remaining from age x onward, and Ex remaining life
// expectancy at age x.
type Row struct {
	Age         int     `json:"age"`
	Qx          float64 `json:"qx"`
	Lx          float64 `json:"lx"`
	Dx          float64 `json:"dx"`
	PersonYears float64 `json:"person_years"`
	Tx          float64 `json:"tx"`
	Ex          float64 `json:"ex"`
}

// Build constructs a life table from a qx schedule indexed by age from 0.
// The final age is treated as a closed terminal interval: survivors there
// have no further interval, so its person-years close the Tx suffix sum.
// Fails with *demography.InvalidRateError when any qx is outside [0,1].
//
// Arithmetic runs at full precision; the only rounding is the integral
// death count dx, per the standard table construction. Presentation
// rounding belongs to the export boundary.
func Build(qx []float64, radix float64) ([]Row, error) {
	if len(qx) == 0 {
		return nil, &demography.InvalidRateError{Reason: "empty mortality schedule"}
	}
	if radix <= 0 {
		return nil, &demography.InvalidRateError{Value: radix, Reason: "radix must be positive"}
	}
	for age, q := range qx {
		if q < 0 || q > 1 || math.IsNaN(q) {
			return nil, &demography.InvalidRateError{Age: age, Value: q, Reason: "qx outside [0,1]"}
		}
	}

	rows := make([]Row, len(qx))
	lx := radix
	for age, q := range qx {
		dx := math.Round(lx * q)
		if dx > lx {
			dx = lx
		}
		lxNext := lx - dx

		var personYears float64
		if age == 0 {
			personYears = lxNext + infantSeparation*dx
		} else {
			personYears = (lx + lxNext) / 2
		}

		rows[age] = Row{Age: age, Qx: q, Lx: lx, Dx: dx, PersonYears: personYears}
		lx = lxNext
	}

	// Tx is the reverse cumulative sum of person-years, summed last age
	// first so the terminal bucket closes the table.
	tx := 0.0
	for age := len(rows) - 1; age >= 0; age-- {
		tx += rows[age].PersonYears
		rows[age].Tx = tx
		if rows[age].Lx > 0 {
			rows[age].Ex = tx / rows[age].Lx
		}
	}

	return rows, nil
}

// BuildTable builds per-sex life tables from a validated mortality table.
func BuildTable(t *demography.MortalityTable, radix float64) (male, female []Row, err error) {
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	male, err = Build(t.QxSlice(demography.SexMale), radix)
	if err != nil {
		return nil, nil, err
	}
	female, err = Build(t.QxSlice(demography.SexFemale), radix)
	if err != nil {
		return nil, nil, err
	}
	return male, female, nil
}

// SurvivalRatio returns the fraction of a cohort aged x expected to reach
// age x+1, i.e. lx(x+1)/lx(x). Returns 0 once lx reaches zero. For the
// terminal age the ratio is 1-qx: the open bucket retains its survivors.
func SurvivalRatio(rows []Row, age int) float64 {
	if age < 0 || age >= len(rows) {
		return 0
	}
	r := rows[age]
	if r.Lx <= 0 {
		return 0
	}
	if age == len(rows)-1 {
		return 1 - r.Qx
	}
	return rows[age+1].Lx / r.Lx
}
