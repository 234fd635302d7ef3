// Package projection implements the cohort-component projection driver:
// the year-stepping loop plus the fertility, migration, and shock modifier
// stages it pulls from.
package projection

import (
	"fmt"

	"github.com/popula/engine/internal/demography"
)

// Component identifies which rate table a shock targets. The tag keeps a
// shock's adjustment bound to the numeric domain of its target.
type Component uint8

const (
	ComponentMortality Component = iota
	ComponentFertility
	ComponentMigration
)

// String returns the lowercase component name used in exports and storage.
func (c Component) String() string {
	switch c {
	case ComponentFertility:
		return "fertility"
	case ComponentMigration:
		return "migration"
	default:
		return "mortality"
	}
}

// ComponentFromString parses a stored component name.
func ComponentFromString(s string) (Component, bool) {
	switch s {
	case "mortality":
		return ComponentMortality, true
	case "fertility":
		return ComponentFertility, true
	case "migration":
		return ComponentMigration, true
	}
	return 0, false
}

// AdjustKind selects how a shock perturbs its target rate.
type AdjustKind uint8

const (
	AdjustMultiply AdjustKind = iota
	AdjustAdd
)

// Shock is a scenario-defined adjustment to one demographic component for a
// span of years and ages: a pandemic raising elderly mortality, a war
// raising young-male mortality, a migration surge.
//
// Overlapping shocks compose by sequential application in the order the
// caller supplies them. Multiplicative and additive adjustments do not
// commute, so that order is part of the contract.
type Shock struct {
	ID          string              `json:"id,omitempty"`
	Name        string              `json:"name,omitempty"`
	Description string              `json:"description,omitempty"`
	Component   Component           `json:"component"`
	StartYear   int                 `json:"start_year"`
	EndYear     int                 `json:"end_year"`
	Ages        demography.AgeRange `json:"ages"`
	Sex         *demography.Sex     `json:"sex,omitempty"` // nil = both sexes
	Kind        AdjustKind          `json:"kind"`
	Value       float64             `json:"value"`

	// Once restricts the shock to its start year only; otherwise it
	// applies to every year in [StartYear, EndYear].
	Once bool `json:"once,omitempty"`
}

// Matches reports whether the shock applies to the given year, age and sex.
func (s *Shock) Matches(year, age int, sex demography.Sex) bool {
	if s.Once {
		if year != s.StartYear {
			return false
		}
	} else if year < s.StartYear || year > s.EndYear {
		return false
	}
	if !s.Ages.Contains(age) {
		return false
	}
	if s.Sex != nil && *s.Sex != sex {
		return false
	}
	return true
}

// adjust applies the shock's adjustment to a base value.
func (s *Shock) adjust(base float64) float64 {
	if s.Kind == AdjustAdd {
		return base + s.Value
	}
	return base * s.Value
}

// Validate rejects shocks that cannot describe a well-formed adjustment.
func (s *Shock) Validate() error {
	if s.StartYear > s.EndYear {
		return fmt.Errorf("shock %q: start year %d after end year %d", s.Name, s.StartYear, s.EndYear)
	}
	if s.Ages.Min > s.Ages.Max {
		return fmt.Errorf("shock %q: age range %d-%d inverted", s.Name, s.Ages.Min, s.Ages.Max)
	}
	if s.Kind == AdjustMultiply && s.Value < 0 {
		return fmt.Errorf("shock %q: negative multiplier %g", s.Name, s.Value)
	}
	return nil
}

// AdjustedMortality returns a copy of the base table with every matching
// mortality shock applied for the given year, probabilities clamped back
// into [0,1] after composition. The base table is never touched.
func AdjustedMortality(base *demography.MortalityTable, shocks []Shock, year int) *demography.MortalityTable {
	adjusted := base.Clone()
	for i := range adjusted.Rates {
		r := &adjusted.Rates[i]
		for j := range shocks {
			s := &shocks[j]
			if s.Component != ComponentMortality {
				continue
			}
			if s.Matches(year, r.Age, demography.SexMale) {
				r.QxMale = s.adjust(r.QxMale)
			}
			if s.Matches(year, r.Age, demography.SexFemale) {
				r.QxFemale = s.adjust(r.QxFemale)
			}
		}
		r.QxMale = clamp01(r.QxMale)
		r.QxFemale = clamp01(r.QxFemale)
	}
	return adjusted
}

// AdjustedFertility returns a copy of the base table with matching
// fertility shocks applied for the year, rates floored at zero.
func AdjustedFertility(base *demography.FertilityTable, shocks []Shock, year int) *demography.FertilityTable {
	adjusted := base.Clone()
	for i := range adjusted.Rates {
		r := &adjusted.Rates[i]
		for j := range shocks {
			s := &shocks[j]
			if s.Component != ComponentFertility {
				continue
			}
			// Fertility applies to women only; a sex-targeted fertility
			// shock naming males can never match.
			if s.Matches(year, r.Age, demography.SexFemale) {
				r.Rate = s.adjust(r.Rate)
			}
		}
		if r.Rate < 0 {
			r.Rate = 0
		}
	}
	return adjusted
}

// AdjustedMigration returns migration entries with matching migration
// shocks applied for the year. Net counts are unconstrained in sign.
func AdjustedMigration(base []demography.MigrationEntry, shocks []Shock, year int) []demography.MigrationEntry {
	adjusted := make([]demography.MigrationEntry, len(base))
	copy(adjusted, base)
	for i := range adjusted {
		e := &adjusted[i]
		for j := range shocks {
			s := &shocks[j]
			if s.Component != ComponentMigration {
				continue
			}
			if s.Matches(year, e.Age, e.Sex) {
				e.NetCount = s.adjust(e.NetCount)
			}
		}
	}
	return adjusted
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
