package projection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/lifetable"
)

// State is the lifecycle of one projection run.
type State uint8

const (
	StateInitialized State = iota
	StateStepping
	StateCompleted
	StateFailed
)

// String returns the lowercase state name used in storage and responses.
func (s State) String() string {
	switch s {
	case StateStepping:
		return "stepping"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "initialized"
	}
}

// Input carries everything one projection run needs. The driver treats all
// of it as read-only for the run's lifetime; the working matrix is a
// private copy. Runs share no state, so any number may execute concurrently.
type Input struct {
	BaseYear int
	Horizon  int // years to project beyond the base year

	Initial   *demography.CohortMatrix
	Mortality *demography.MortalityTable
	Fertility *demography.FertilityTable
	Migration []demography.MigrationEntry
	Shocks    []Shock

	// Radix for the per-year life tables. Zero means lifetable.Radix.
	Radix float64
}

// YearSummary aggregates one projected year's demographic flows.
type YearSummary struct {
	Births        float64 `json:"births"`
	Deaths        float64 `json:"deaths"`
	NetMigration  float64 `json:"net_migration"`
	NaturalChange float64 `json:"natural_change"`
	GrowthRate    float64 `json:"growth_rate"` // percent vs prior year
}

// Snapshot is the immutable record of one projected year.
type Snapshot struct {
	Year     int                      `json:"year"`
	Matrix   *demography.CohortMatrix `json:"matrix"`
	Summary  YearSummary              `json:"summary"`
	Warnings []Warning                `json:"warnings,omitempty"`
}

// Result is the ordered yearly series of a run, base year first. A failed
// run still carries every year snapshotted before the failure, so callers
// can distinguish "ran N of M years" from "never started".
type Result struct {
	BaseYear int        `json:"base_year"`
	Horizon  int        `json:"horizon"`
	State    State      `json:"state"`
	Failure  string     `json:"failure,omitempty"`
	Years    []Snapshot `json:"years"`

	ComputedAt time.Time     `json:"computed_at"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Snapshot returns the recorded snapshot for a calendar year.
func (r *Result) Snapshot(year int) (*Snapshot, bool) {
	idx := year - r.BaseYear
	if idx < 0 || idx >= len(r.Years) {
		return nil, false
	}
	return &r.Years[idx], true
}

// validate checks everything that must hold before any year is stepped.
// Validation failures are fatal and produce an empty result.
func (in *Input) validate() error {
	if in.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", in.Horizon)
	}
	if in.Initial == nil || len(in.Initial.Rows) == 0 {
		return fmt.Errorf("initial cohort matrix is required")
	}
	if in.Mortality == nil {
		return fmt.Errorf("mortality table is required")
	}
	if err := in.Mortality.Validate(); err != nil {
		return err
	}
	if len(in.Mortality.Rates) != demography.MaxAge+1 {
		return &demography.InvalidRateError{
			Age:    len(in.Mortality.Rates) - 1,
			Reason: fmt.Sprintf("mortality table must cover ages 0..%d", demography.MaxAge),
		}
	}
	if in.Fertility == nil {
		return fmt.Errorf("fertility table is required")
	}
	if err := in.Fertility.Validate(); err != nil {
		return err
	}
	for i := range in.Shocks {
		if err := in.Shocks[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Run executes a full projection: for each year it ages the working matrix,
// applies survivorship from that year's (possibly shock-adjusted) life
// table, inserts births, applies migration, and records an immutable
// snapshot. Cancellation is checked once per year step, so a snapshot is
// never half-written.
func Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	res := &Result{
		BaseYear: in.BaseYear,
		Horizon:  in.Horizon,
		State:    StateInitialized,
	}

	if err := in.validate(); err != nil {
		res.State = StateFailed
		res.Failure = err.Error()
		res.ComputedAt = time.Now()
		res.Elapsed = time.Since(start)
		return res, err
	}

	radix := in.Radix
	if radix == 0 {
		radix = lifetable.Radix
	}

	// Private working matrix, dense through the terminal bucket.
	working := in.Initial.Clone()
	working.Extend(demography.MaxAge)

	slog.Info("projection run started",
		"base_year", in.BaseYear,
		"horizon", in.Horizon,
		"population", humanize.Commaf(working.Total()),
		"shocks", len(in.Shocks),
	)

	// Base year snapshot: the starting population, no flows.
	res.Years = append(res.Years, Snapshot{Year: in.BaseYear, Matrix: working.Clone()})
	res.State = StateStepping

	fail := func(err error) (*Result, error) {
		res.State = StateFailed
		res.Failure = err.Error()
		res.ComputedAt = time.Now()
		res.Elapsed = time.Since(start)
		slog.Warn("projection run failed",
			"year", in.BaseYear+len(res.Years)-1,
			"completed_years", len(res.Years)-1,
			"of", in.Horizon,
			"error", err,
		)
		return res, err
	}

	for step := 1; step <= in.Horizon; step++ {
		year := in.BaseYear + step

		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("run cancelled before year %d: %w", year, err))
		}

		// This year's shock-adjusted rates. Base tables stay untouched.
		mort := AdjustedMortality(in.Mortality, in.Shocks, year)
		maleLT, femaleLT, err := lifetable.BuildTable(mort, radix)
		if err != nil {
			return fail(err)
		}

		prevTotal := working.Total()

		// Age every cohort up one year and apply survivorship. The
		// terminal bucket absorbs both itself and the previous top age;
		// age 0 is vacated for this year's births.
		next := demography.NewEmptyMatrix(demography.MaxAge)
		deaths := 0.0
		for age := 0; age <= demography.MaxAge; age++ {
			for _, sex := range []demography.Sex{demography.SexMale, demography.SexFemale} {
				count := working.Get(age, sex)
				if count == 0 {
					continue
				}
				rows := maleLT
				if sex == demography.SexFemale {
					rows = femaleLT
				}
				survivors := count * lifetable.SurvivalRatio(rows, age)
				deaths += count - survivors

				target := age + 1
				if age == demography.MaxAge {
					target = demography.MaxAge
				}
				next.Add(target, sex, survivors)
			}
		}
		working = next

		// Births from the post-mortality female cohorts.
		fert := AdjustedFertility(in.Fertility, in.Shocks, year)
		maleBirths, femaleBirths, err := ExpectedBirths(working, fert)
		if err != nil {
			return fail(err)
		}
		working.Add(0, demography.SexMale, maleBirths)
		working.Add(0, demography.SexFemale, femaleBirths)
		births := maleBirths + femaleBirths

		// Migration, clamped per cell.
		migration := AdjustedMigration(in.Migration, in.Shocks, year)
		netMigration, warnings, err := ApplyMigration(working, migration, year)
		if err != nil {
			return fail(err)
		}

		newTotal := working.Total()
		summary := YearSummary{
			Births:        births,
			Deaths:        deaths,
			NetMigration:  netMigration,
			NaturalChange: births - deaths,
			GrowthRate:    growthRate(prevTotal, newTotal),
		}

		res.Years = append(res.Years, Snapshot{
			Year:     year,
			Matrix:   working.Clone(),
			Summary:  summary,
			Warnings: warnings,
		})

		slog.Debug("projection year stepped",
			"year", year,
			"population", newTotal,
			"births", births,
			"deaths", deaths,
			"net_migration", netMigration,
		)
	}

	res.State = StateCompleted
	res.ComputedAt = time.Now()
	res.Elapsed = time.Since(start)

	final := res.Years[len(res.Years)-1]
	slog.Info("projection run completed",
		"base_year", in.BaseYear,
		"end_year", final.Year,
		"final_population", humanize.Commaf(final.Matrix.Total()),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// growthRate is the percent change between consecutive year totals. A
// population appearing from nothing reports 100%; an empty one, 0.
func growthRate(prev, cur float64) float64 {
	if prev > 0 {
		return (cur - prev) / prev * 100
	}
	if cur > 0 {
		return 100
	}
	return 0
}
