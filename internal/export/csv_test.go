package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/lifetable"
	"github.com/popula/engine/internal/metrics"
	"github.com/popula/engine/internal/projection"
)

func parseCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	recs, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestWriteSummaries(t *testing.T) {
	m := demography.NewEmptyMatrix(5)
	m.Set(1, demography.SexMale, 500)
	m.Set(1, demography.SexFemale, 490)
	res := &projection.Result{
		BaseYear: 2030,
		Years: []projection.Snapshot{{
			Year:   2030,
			Matrix: m,
			Summary: projection.YearSummary{
				Births: 12.25, Deaths: 3.0, NetMigration: -1.5,
				NaturalChange: 9.25, GrowthRate: 0.25,
			},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaries(&buf, res))

	recs := parseCSV(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"year", "population", "births", "deaths", "net_migration", "natural_change", "growth_rate"}, recs[0])
	assert.Equal(t, []string{"2030", "990.00", "12.25", "3.00", "-1.50", "9.25", "0.2500"}, recs[1])
}

func TestWriteCohorts(t *testing.T) {
	m := demography.NewEmptyMatrix(2)
	m.Set(0, demography.SexMale, 10.5)
	snap := &projection.Snapshot{Year: 2031, Matrix: m}

	var buf bytes.Buffer
	require.NoError(t, WriteCohorts(&buf, snap))

	recs := parseCSV(t, &buf)
	require.Len(t, recs, 4, "header plus one row per age")
	assert.Equal(t, []string{"2031", "0", "10.50", "0.00"}, recs[1])
}

func TestWriteSexRatiosSentinels(t *testing.T) {
	rows := []metrics.SexRatioRow{
		{Year: 2030, Band: metrics.BandAll, Ratio: metrics.NewRatio(105, 100, 100)},
		{Year: 2030, Band: metrics.BandOld, Ratio: metrics.NewRatio(0, 0, 100)},
		{Year: 2030, Band: metrics.BandBirth, Ratio: metrics.NewRatio(5, 0, 100)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSexRatios(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "105.00")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "inf")
}

func TestWriteDependencyRatios(t *testing.T) {
	rows := []metrics.DependencyRow{{
		Year:   2030,
		Youth:  metrics.NewRatio(200, 500, 100),
		OldAge: metrics.NewRatio(100, 500, 100),
		Total:  metrics.NewRatio(300, 500, 100),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteDependencyRatios(&buf, rows))

	recs := parseCSV(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"2030", "40.00", "20.00", "60.00"}, recs[1])
}

func TestWriteMedianAges(t *testing.T) {
	rows := []metrics.MedianAgeRow{{Year: 2030, Male: 38.25, Female: 41.5, Total: 39.75}}

	var buf bytes.Buffer
	require.NoError(t, WriteMedianAges(&buf, rows))

	recs := parseCSV(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"2030", "38.25", "41.50", "39.75"}, recs[1])
}

func TestWriteLifeTable(t *testing.T) {
	rows, err := lifetable.Build([]float64{0.005, 0.002}, lifetable.Radix)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLifeTable(&buf, rows))

	recs := parseCSV(t, &buf)
	require.Len(t, recs, 3)
	assert.Equal(t, "100000", recs[1][2])
	assert.Equal(t, "500", recs[1][3])
	assert.True(t, strings.HasPrefix(recs[1][1], "0.005"))
}

func TestWriteCohortTracking(t *testing.T) {
	rows := []metrics.CohortTrackingRow{{
		Year: 2031, Age: 1, Male: 450, Female: 440, Total: 890,
		Survival:   metrics.NewRatio(890, 1000, 100),
		Cumulative: metrics.NewRatio(890, 1000, 100),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCohortTracking(&buf, rows))

	recs := parseCSV(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"2031", "1", "450.00", "440.00", "890.00", "89.00", "89.00"}, recs[1])
}

func TestWriteLifeExpectancies(t *testing.T) {
	rows := []metrics.LifeExpectancyRow{{Year: 2030, MaleE0: 78.5, FemaleE0: 83.25, MaleE65: 17.75, FemaleE65: 20.5}}

	var buf bytes.Buffer
	require.NoError(t, WriteLifeExpectancies(&buf, rows))

	recs := parseCSV(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"2030", "78.50", "83.25", "17.75", "20.50"}, recs[1])
}
