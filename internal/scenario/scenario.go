// Package scenario defines user-authored projection scenarios: a base
// population reference, a year range, and the crisis shocks to apply.
package scenario

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/popula/engine/internal/projection"
)

// Year bounds accepted for scenarios. Historical back-projections before
// 1950 and projections past 2200 are rejected as input mistakes.
const (
	MinBaseYear = 1950
	MaxBaseYear = 2100
	MaxEndYear  = 2200
)

// Scenario is a named, persisted projection configuration.
type Scenario struct {
	ID          string             `json:"id" db:"id"`
	Name        string             `json:"name" db:"name"`
	Description string             `json:"description" db:"description"`
	BaseYear    int                `json:"base_year" db:"base_year"`
	EndYear     int                `json:"end_year" db:"end_year"`
	Shocks      []projection.Shock `json:"shocks"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// New creates a scenario with a fresh ID and timestamps.
func New(name, description string, baseYear, endYear int) *Scenario {
	now := time.Now().UTC()
	return &Scenario{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		BaseYear:    baseYear,
		EndYear:     endYear,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Horizon returns the number of years to project beyond the base year.
func (s *Scenario) Horizon() int {
	return s.EndYear - s.BaseYear
}

// Validate collects every problem with the scenario. An empty slice means
// the scenario can run.
func (s *Scenario) Validate() []string {
	var errs []string

	if s.ID == "" {
		errs = append(errs, "scenario id is required")
	}
	if s.Name == "" {
		errs = append(errs, "scenario name is required")
	}
	if s.BaseYear >= s.EndYear {
		errs = append(errs, "base year must be before end year")
	}
	if s.BaseYear < MinBaseYear || s.BaseYear > MaxBaseYear {
		errs = append(errs, fmt.Sprintf("base year must be between %d and %d", MinBaseYear, MaxBaseYear))
	}
	if s.EndYear < MinBaseYear || s.EndYear > MaxEndYear {
		errs = append(errs, fmt.Sprintf("end year must be between %d and %d", MinBaseYear, MaxEndYear))
	}

	for i := range s.Shocks {
		sh := &s.Shocks[i]
		if err := sh.Validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if sh.StartYear < s.BaseYear {
			errs = append(errs, fmt.Sprintf("shock %q starts before the scenario base year", sh.Name))
		}
		if sh.EndYear > s.EndYear {
			errs = append(errs, fmt.Sprintf("shock %q ends after the scenario end year", sh.Name))
		}
	}

	return errs
}
