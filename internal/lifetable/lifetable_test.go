package lifetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popula/engine/internal/demography"
)

func TestBuildSingleAge(t *testing.T) {
	rows, err := Build([]float64{0.005}, Radix)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, 100_000.0, r.Lx)
	assert.Equal(t, 500.0, r.Dx)
	// Infant person-years: lx1 + 0.3*d0 = 99500 + 150.
	assert.Equal(t, 99_650.0, r.PersonYears)
	assert.Equal(t, 99_650.0, r.Tx)
	assert.InDelta(t, 0.9965, r.Ex, 1e-9)
}

func TestBuildSurvivorshipChain(t *testing.T) {
	qx := []float64{0.01, 0.002, 0.003, 0.5, 1.0}
	rows, err := Build(qx, Radix)
	require.NoError(t, err)
	require.Len(t, rows, len(qx))

	assert.Equal(t, Radix, rows[0].Lx)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i].Lx, rows[i-1].Lx, "lx must be non-increasing")
		assert.Equal(t, rows[i-1].Lx-rows[i-1].Dx, rows[i].Lx)
	}
	// qx=1 kills the whole remaining cohort.
	last := rows[len(rows)-1]
	assert.Equal(t, last.Lx, last.Dx)

	// Tx is the suffix sum of person-years.
	suffix := 0.0
	for i := len(rows) - 1; i >= 0; i-- {
		suffix += rows[i].PersonYears
		assert.InDelta(t, suffix, rows[i].Tx, 1e-9)
	}

	// Re-summing forward reproduces Tx at age 0 within tolerance.
	forward := 0.0
	for _, r := range rows {
		forward += r.PersonYears
	}
	assert.InDelta(t, rows[0].Tx, forward, 1e-6)
}

func TestBuildLifeExpectancyProperties(t *testing.T) {
	qx := make([]float64, 111)
	for age := range qx {
		qx[age] = 0.002 + 0.0005*float64(age)
		if qx[age] > 1 {
			qx[age] = 1
		}
	}
	rows, err := Build(qx, Radix)
	require.NoError(t, err)

	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Ex, 0.0, "age %d", r.Age)
		if r.Lx == 0 {
			assert.Zero(t, r.Ex, "extinct cohort keeps ex=0 at age %d", r.Age)
		}
	}
	// A plausible adult schedule gives decades of expectancy at birth.
	assert.Greater(t, rows[0].Ex, 20.0)
}

func TestBuildRejectsBadInput(t *testing.T) {
	var rateErr *demography.InvalidRateError

	_, err := Build(nil, Radix)
	require.ErrorAs(t, err, &rateErr)

	_, err = Build([]float64{0.5, 1.2}, Radix)
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 1, rateErr.Age)

	_, err = Build([]float64{-0.1}, Radix)
	require.ErrorAs(t, err, &rateErr)

	_, err = Build([]float64{0.1}, 0)
	require.ErrorAs(t, err, &rateErr)
}

func TestBuildTablePerSex(t *testing.T) {
	table := &demography.MortalityTable{Rates: []demography.MortalityRate{
		{Age: 0, QxMale: 0.02, QxFemale: 0.01},
		{Age: 1, QxMale: 0.004, QxFemale: 0.002},
	}}

	male, female, err := BuildTable(table, Radix)
	require.NoError(t, err)
	assert.Equal(t, 2_000.0, male[0].Dx)
	assert.Equal(t, 1_000.0, female[0].Dx)
	assert.Less(t, male[1].Lx, female[1].Lx)
}

func TestSurvivalRatio(t *testing.T) {
	rows, err := Build([]float64{0.01, 0.5, 0.2}, Radix)
	require.NoError(t, err)

	// Age 0: lx1/lx0 = 99000/100000 exactly.
	assert.Equal(t, 0.99, SurvivalRatio(rows, 0))
	// Terminal age keeps 1-qx of its occupants.
	assert.InDelta(t, 0.8, SurvivalRatio(rows, 2), 1e-9)
	// Out of range.
	assert.Zero(t, SurvivalRatio(rows, -1))
	assert.Zero(t, SurvivalRatio(rows, 3))
}

func TestSurvivalRatioExtinctCohort(t *testing.T) {
	rows, err := Build([]float64{1.0, 0.1}, Radix)
	require.NoError(t, err)
	assert.Zero(t, rows[1].Lx)
	assert.Zero(t, SurvivalRatio(rows, 1))
}
