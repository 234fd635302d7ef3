package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/projection"
)

func TestNewScenario(t *testing.T) {
	s := New("aging nation", "slow decline baseline", 2025, 2075)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 50, s.Horizon())
	assert.False(t, s.CreatedAt.IsZero())
	assert.Empty(t, s.Validate())
}

func TestValidateYearBounds(t *testing.T) {
	cases := []struct {
		name      string
		base, end int
		wantErr   string
	}{
		{"base before floor", 1900, 2000, "base year must be between"},
		{"base past ceiling", 2150, 2160, "base year must be between"},
		{"end past ceiling", 2050, 2250, "end year must be between"},
		{"inverted", 2060, 2050, "base year must be before end year"},
		{"equal years", 2050, 2050, "base year must be before end year"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New("x", "", tc.base, tc.end)
			errs := s.Validate()
			require.NotEmpty(t, errs)
			found := false
			for _, e := range errs {
				if strings.Contains(e, tc.wantErr) {
					found = true
				}
			}
			assert.True(t, found, "expected %q in %v", tc.wantErr, errs)
		})
	}
}

func TestValidateRequiresIdentity(t *testing.T) {
	s := New("", "", 2025, 2050)
	s.ID = ""
	errs := s.Validate()
	assert.Contains(t, errs, "scenario id is required")
	assert.Contains(t, errs, "scenario name is required")
}

func TestValidateShockBounds(t *testing.T) {
	s := New("shocked", "", 2025, 2050)
	s.Shocks = []projection.Shock{
		PandemicShock("early", 2020, 2030, 1.5, 0),
		WarShock("late", 2045, 2060, 2.0, 18, 40),
	}

	errs := s.Validate()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "starts before the scenario base year")
	assert.Contains(t, errs[1], "ends after the scenario end year")
}

func TestValidateCollectsShockErrors(t *testing.T) {
	s := New("broken", "", 2025, 2050)
	s.Shocks = []projection.Shock{{
		Name:      "inverted",
		StartYear: 2040,
		EndYear:   2030,
		Ages:      demography.AllAges(),
	}}

	errs := s.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "start year 2040 after end year 2030")
}

func TestTemplates(t *testing.T) {
	p := PandemicShock("flu", 2030, 2032, 1.4, 0)
	assert.Equal(t, projection.ComponentMortality, p.Component)
	assert.Equal(t, projection.AdjustMultiply, p.Kind)
	assert.Nil(t, p.Sex, "pandemics hit both sexes")
	assert.NoError(t, p.Validate())

	w := WarShock("front", 2030, 2035, 2.5, 18, 40)
	require.NotNil(t, w.Sex)
	assert.Equal(t, demography.SexMale, *w.Sex)
	assert.Equal(t, demography.AgeRange{Min: 18, Max: 40}, w.Ages)
	assert.NoError(t, w.Validate())

	mg := MigrationSurge("open doors", 2030, 2035, 3)
	assert.Equal(t, projection.ComponentMigration, mg.Component)
	assert.Equal(t, demography.AllAges(), mg.Ages)

	bb := BabyBoom("postwar", 2030, 2040, 1.3)
	assert.Equal(t, projection.ComponentFertility, bb.Component)
	assert.NoError(t, bb.Validate())
}
