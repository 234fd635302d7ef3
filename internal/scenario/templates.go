package scenario

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/projection"
)

// Crisis templates matching the shocks analysts reach for most often.
// Each returns a ready-to-attach shock; callers remain free to build
// arbitrary ones by hand.

// PandemicShock multiplies mortality for everyone at or above minAge across
// the year range. A factor of 1.4 means "+40% mortality".
func PandemicShock(name string, startYear, endYear int, factor float64, minAge int) projection.Shock {
	return projection.Shock{
		ID:          uuid.NewString(),
		Name:        name,
		Description: fmt.Sprintf("pandemic: %+.0f%% mortality for ages %d+", (factor-1)*100, minAge),
		Component:   projection.ComponentMortality,
		StartYear:   startYear,
		EndYear:     endYear,
		Ages:        demography.AgeRange{Min: minAge, Max: demography.MaxAge},
		Kind:        projection.AdjustMultiply,
		Value:       factor,
	}
}

// WarShock multiplies male mortality in the conscription age band.
func WarShock(name string, startYear, endYear int, factor float64, minAge, maxAge int) projection.Shock {
	male := demography.SexMale
	return projection.Shock{
		ID:          uuid.NewString(),
		Name:        name,
		Description: fmt.Sprintf("war: %+.0f%% male mortality for ages %d-%d", (factor-1)*100, minAge, maxAge),
		Component:   projection.ComponentMortality,
		StartYear:   startYear,
		EndYear:     endYear,
		Ages:        demography.AgeRange{Min: minAge, Max: maxAge},
		Sex:         &male,
		Kind:        projection.AdjustMultiply,
		Value:       factor,
	}
}

// MigrationSurge multiplies net migration counts across the year range,
// all ages and sexes.
func MigrationSurge(name string, startYear, endYear int, factor float64) projection.Shock {
	return projection.Shock{
		ID:          uuid.NewString(),
		Name:        name,
		Description: fmt.Sprintf("migration surge: x%.2f net flows", factor),
		Component:   projection.ComponentMigration,
		StartYear:   startYear,
		EndYear:     endYear,
		Ages:        demography.AllAges(),
		Kind:        projection.AdjustMultiply,
		Value:       factor,
	}
}

// BabyBoom multiplies fertility across the year range.
func BabyBoom(name string, startYear, endYear int, factor float64) projection.Shock {
	return projection.Shock{
		ID:          uuid.NewString(),
		Name:        name,
		Description: fmt.Sprintf("fertility shift: x%.2f birth rates", factor),
		Component:   projection.ComponentFertility,
		StartYear:   startYear,
		EndYear:     endYear,
		Ages:        demography.AllAges(),
		Kind:        projection.AdjustMultiply,
		Value:       factor,
	}
}
