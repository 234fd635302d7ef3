package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/projection"
	"github.com/popula/engine/internal/scenario"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestScenarioRoundTrip(t *testing.T) {
	db := openTestDB(t)

	s := scenario.New("pandemic study", "covid-like shock", 2025, 2060)
	s.Shocks = []projection.Shock{
		scenario.PandemicShock("wave one", 2030, 2032, 1.5, 0),
	}
	require.NoError(t, db.SaveScenario(s))

	got, err := db.GetScenario(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Name, got.Name)
	assert.Equal(t, s.BaseYear, got.BaseYear)
	assert.Equal(t, s.EndYear, got.EndYear)
	require.Len(t, got.Shocks, 1)
	assert.Equal(t, projection.ComponentMortality, got.Shocks[0].Component)
	assert.Equal(t, 1.5, got.Shocks[0].Value)
	assert.WithinDuration(t, s.CreatedAt, got.CreatedAt, time.Second)
}

func TestGetScenarioNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetScenario("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListScenarios(t *testing.T) {
	db := openTestDB(t)

	a := scenario.New("a", "", 2025, 2050)
	b := scenario.New("b", "", 2025, 2050)
	require.NoError(t, db.SaveScenario(a))
	require.NoError(t, db.SaveScenario(b))

	all, err := db.ListScenarios()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSaveScenarioReplaces(t *testing.T) {
	db := openTestDB(t)

	s := scenario.New("v1", "", 2025, 2050)
	require.NoError(t, db.SaveScenario(s))

	s.Name = "v2"
	require.NoError(t, db.SaveScenario(s))

	got, err := db.GetScenario(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)

	all, err := db.ListScenarios()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteScenarioCascades(t *testing.T) {
	db := openTestDB(t)

	s := scenario.New("doomed", "", 2025, 2050)
	require.NoError(t, db.SaveScenario(s))
	require.NoError(t, db.SaveBaseline(testBaseline(s.ID)))
	require.NoError(t, db.SaveResult(s.ID, &projection.Result{State: projection.StateCompleted}))

	require.NoError(t, db.DeleteScenario(s.ID))

	_, err := db.GetScenario(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetBaseline(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetResult(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testBaseline(scenarioID string) *Baseline {
	pop := demography.NewEmptyMatrix(demography.MaxAge)
	pop.Set(30, demography.SexMale, 1000)
	pop.Set(30, demography.SexFemale, 1000)

	mort := &demography.MortalityTable{}
	for age := 0; age <= demography.MaxAge; age++ {
		mort.Rates = append(mort.Rates, demography.MortalityRate{Age: age, QxMale: 0.01, QxFemale: 0.008})
	}

	return &Baseline{
		ScenarioID: scenarioID,
		Population: pop,
		Mortality:  mort,
		Fertility: &demography.FertilityTable{
			SexRatioAtBirth: 105,
			Rates:           []demography.FertilityRate{{Age: 30, Rate: 0.1}},
		},
		Migration: []demography.MigrationEntry{
			{Age: 30, Sex: demography.SexFemale, NetCount: 25},
		},
	}
}

func TestBaselineRoundTrip(t *testing.T) {
	db := openTestDB(t)

	b := testBaseline("scn-1")
	require.NoError(t, db.SaveBaseline(b))

	got, err := db.GetBaseline("scn-1")
	require.NoError(t, err)
	assert.Equal(t, 2000.0, got.Population.Total())
	assert.Len(t, got.Mortality.Rates, demography.MaxAge+1)
	assert.Equal(t, 105.0, got.Fertility.SexRatioAtBirth)
	require.Len(t, got.Migration, 1)
	assert.Equal(t, 25.0, got.Migration[0].NetCount)
}

func TestBaselineNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetBaseline("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultRoundTrip(t *testing.T) {
	db := openTestDB(t)

	m := demography.NewEmptyMatrix(demography.MaxAge)
	m.Set(31, demography.SexMale, 990)
	res := &projection.Result{
		BaseYear:   2025,
		Horizon:    1,
		State:      projection.StateCompleted,
		ComputedAt: time.Now().UTC().Truncate(time.Second),
		Elapsed:    1500 * time.Millisecond,
		Years: []projection.Snapshot{{
			Year:    2026,
			Matrix:  m,
			Summary: projection.YearSummary{Births: 42, Deaths: 10},
		}},
	}
	require.NoError(t, db.SaveResult("scn-2", res))

	got, err := db.GetResult("scn-2")
	require.NoError(t, err)
	assert.Equal(t, projection.StateCompleted, got.State)
	assert.Equal(t, 2025, got.BaseYear)
	assert.Equal(t, 1500*time.Millisecond, got.Elapsed)
	require.Len(t, got.Years, 1)
	assert.Equal(t, 42.0, got.Years[0].Summary.Births)
	assert.Equal(t, 990.0, got.Years[0].Matrix.Get(31, demography.SexMale))
	assert.True(t, res.ComputedAt.Equal(got.ComputedAt))
}

func TestResultFailedStateRoundTrip(t *testing.T) {
	db := openTestDB(t)

	res := &projection.Result{
		State:   projection.StateFailed,
		Failure: "run cancelled before year 2030",
	}
	require.NoError(t, db.SaveResult("scn-3", res))

	got, err := db.GetResult("scn-3")
	require.NoError(t, err)
	assert.Equal(t, projection.StateFailed, got.State)
	assert.Equal(t, "run cancelled before year 2030", got.Failure)
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveMeta("schema_version", "1"))
	v, err := db.GetMeta("schema_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, db.SaveMeta("schema_version", "2"))
	v, err = db.GetMeta("schema_version")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	_, err = db.GetMeta("absent")
	assert.ErrorIs(t, err, ErrNotFound)
}
