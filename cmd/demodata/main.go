// Command demodata seeds the scenario store with a synthetic country:
// a noise-textured population pyramid, plausible mortality and fertility
// schedules, regional migration flows, and one demo scenario per shock
// template. Useful for exercising the API without real census data.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/popula/engine/internal/demography"
	"github.com/popula/engine/internal/persistence"
	"github.com/popula/engine/internal/projection"
	"github.com/popula/engine/internal/scenario"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dbPath := flag.String("db", "data/popula.db", "path to the scenario database")
	seed := flag.Int64("seed", 42, "noise seed for the synthetic pyramid")
	baseYear := flag.Int("base-year", 2025, "projection base year")
	endYear := flag.Int("end-year", 2075, "projection end year")
	flag.Parse()

	os.MkdirAll(filepath.Dir(*dbPath), 0755)
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pop := syntheticPopulation(*seed)
	mort := syntheticMortality()
	fert := syntheticFertility()
	mig := syntheticMigration(*seed)

	slog.Info("synthetic country generated",
		"population", humanize.Commaf(pop.Total()),
		"migration_entries", len(mig),
	)

	demos := []struct {
		name, desc string
		shocks     []projection.Shock
	}{
		{"baseline", "No-shock reference projection.", nil},
		{"pandemic", "Three-year pandemic starting five years in.", []projection.Shock{
			scenario.PandemicShock("demo pandemic", *baseYear+5, *baseYear+7, 1.4, 0),
		}},
		{"war", "Decade of conflict hitting fighting-age men.", []projection.Shock{
			scenario.WarShock("demo war", *baseYear+10, *baseYear+19, 2.0, 18, 40),
		}},
		{"boom-and-surge", "Baby boom overlapping a migration surge.", []projection.Shock{
			scenario.BabyBoom("demo boom", *baseYear+2, *baseYear+11, 1.25),
			scenario.MigrationSurge("demo surge", *baseYear+2, *baseYear+11, 2.5),
		}},
	}

	for _, d := range demos {
		sc := scenario.New(d.name, d.desc, *baseYear, *endYear)
		sc.Shocks = d.shocks
		if errs := sc.Validate(); len(errs) > 0 {
			slog.Error("demo scenario invalid", "name", d.name, "errors", errs)
			os.Exit(1)
		}
		if err := db.SaveScenario(sc); err != nil {
			slog.Error("save scenario failed", "name", d.name, "error", err)
			os.Exit(1)
		}
		baseline := &persistence.Baseline{
			ScenarioID: sc.ID,
			Population: pop,
			Mortality:  mort,
			Fertility:  fert,
			Migration:  demography.AggregateNational(mig),
		}
		if err := db.SaveBaseline(baseline); err != nil {
			slog.Error("save baseline failed", "name", d.name, "error", err)
			os.Exit(1)
		}
		slog.Info("demo scenario seeded", "name", d.name, "id", sc.ID, "shocks", len(d.shocks))
	}

	fmt.Printf("\nSeeded %d demo scenarios into %s\n", len(demos), *dbPath)
}

// syntheticPopulation builds a pyramid that tapers with age, with
// noise layered on top so cohort sizes are uneven the way real census
// counts are (boom and bust generations, not a smooth curve).
func syntheticPopulation(seed int64) *demography.CohortMatrix {
	noise := opensimplex.NewNormalized(seed)
	m := demography.NewEmptyMatrix(demography.MaxAge)

	for age := 0; age <= demography.MaxAge; age++ {
		base := 600_000.0 * math.Exp(-float64(age)/55.0)
		texture := 0.7 + 0.6*octaveNoise(noise, float64(age)/12.0, 1, 3)
		total := base * texture
		// Slight male excess at birth erodes with age.
		maleShare := 0.512 - 0.0012*float64(age)
		if maleShare < 0.35 {
			maleShare = 0.35
		}
		m.Set(age, demography.SexMale, math.Round(total*maleShare))
		m.Set(age, demography.SexFemale, math.Round(total*(1-maleShare)))
	}
	return m
}

// syntheticMortality approximates a modern low-mortality schedule:
// an infant spike, a flat childhood floor, and Gompertz growth in
// adulthood capped below 1.
func syntheticMortality() *demography.MortalityTable {
	t := &demography.MortalityTable{}
	for age := 0; age <= demography.MaxAge; age++ {
		var qx float64
		switch {
		case age == 0:
			qx = 0.004
		case age < 10:
			qx = 0.0002
		default:
			qx = 0.0002 * math.Exp(0.095*float64(age-10))
		}
		if qx > 0.95 {
			qx = 0.95
		}
		t.Rates = append(t.Rates, demography.MortalityRate{
			Age:      age,
			QxMale:   math.Min(qx*1.4, 0.98),
			QxFemale: qx,
		})
	}
	return t
}

// syntheticFertility is a bell over ages 15-49 peaking near 29,
// scaled to roughly replacement-level total fertility.
func syntheticFertility() *demography.FertilityTable {
	t := &demography.FertilityTable{SexRatioAtBirth: 105}
	for age := 15; age <= 49; age++ {
		d := float64(age) - 29.0
		rate := 0.11 * math.Exp(-d*d/72.0)
		t.Rates = append(t.Rates, demography.FertilityRate{Age: age, Rate: rate})
	}
	return t
}

// syntheticMigration spreads a modest net inflow across young-adult
// ages in three named regions. Regional tags exist so aggregation has
// something real to collapse.
func syntheticMigration(seed int64) []demography.MigrationEntry {
	noise := opensimplex.NewNormalized(seed + 1)
	regions := []string{"north", "capital", "coast"}

	var entries []demography.MigrationEntry
	for ri, region := range regions {
		for age := 18; age <= 40; age++ {
			d := float64(age) - 27.0
			base := 900.0 * math.Exp(-d*d/50.0)
			jitter := 0.5 + octaveNoise(noise, float64(age)/8.0, float64(ri), 2)
			net := math.Round(base * jitter)
			entries = append(entries,
				demography.MigrationEntry{Age: age, Sex: demography.SexMale, NetCount: net, Region: region},
				demography.MigrationEntry{Age: age, Sex: demography.SexFemale, NetCount: math.Round(net * 0.9), Region: region},
			)
		}
	}
	return entries
}

// octaveNoise layers multiple noise frequencies along one axis.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	frequency := 1.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y) * amplitude
		maxVal += amplitude
		amplitude *= 0.5
		frequency *= 2
	}
	return total / maxVal
}
