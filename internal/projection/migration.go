package projection

import (
	"fmt"

	"github.com/popula/engine/internal/demography"
)

// WarningKind classifies non-fatal numeric anomalies recovered during a run.
type WarningKind uint8

const (
	// WarningNegativePopulation marks a cohort that net emigration would
	// have driven below zero; the cell was clamped to zero instead.
	WarningNegativePopulation WarningKind = iota
)

// Warning is a non-fatal anomaly attached to the projection year it
// occurred in. Warnings never abort a run.
type Warning struct {
	Kind   WarningKind    `json:"kind"`
	Year   int            `json:"year"`
	Age    int            `json:"age"`
	Sex    demography.Sex `json:"sex"`
	Detail string         `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("year %d age %d %s: %s", w.Year, w.Age, w.Sex, w.Detail)
}

// ApplyMigration adds each entry's net count to the matching age-sex cell of
// the working matrix. Entries referencing ages the matrix does not carry are
// rejected with *demography.UnknownAgeError. A cell driven negative is
// clamped to zero and reported as a warning — net emigration must never
// produce a negative cohort.
//
// Returns the net count actually applied after clamping, so the driver's
// year summary reflects real flows rather than requested ones.
func ApplyMigration(m *demography.CohortMatrix, entries []demography.MigrationEntry, year int) (applied float64, warnings []Warning, err error) {
	for _, e := range entries {
		if _, ok := m.Row(e.Age); !ok {
			return applied, warnings, &demography.UnknownAgeError{Age: e.Age}
		}

		before := m.Get(e.Age, e.Sex)
		after := before + e.NetCount
		if after < 0 {
			warnings = append(warnings, Warning{
				Kind:   WarningNegativePopulation,
				Year:   year,
				Age:    e.Age,
				Sex:    e.Sex,
				Detail: fmt.Sprintf("net migration %g exceeds cohort %g, clamped to zero", e.NetCount, before),
			})
			after = 0
		}
		applied += after - before
		m.Set(e.Age, e.Sex, after)
	}
	return applied, warnings, nil
}
