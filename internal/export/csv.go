// Package export serializes projection output and derived series as flat
// CSV rows. All rounding happens here, at the presentation boundary — the
// engine's internal arithmetic is always full precision.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/popula/engine/internal/lifetable"
	"github.com/popula/engine/internal/metrics"
	"github.com/popula/engine/internal/projection"
)

// count renders a population count with two decimals.
func count(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ratio renders a metrics.Ratio, sentinels included ("inf", "n/a").
func ratio(r metrics.Ratio) string {
	return r.String()
}

// WriteSummaries writes per-year flow summaries.
func WriteSummaries(w io.Writer, res *projection.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "population", "births", "deaths", "net_migration", "natural_change", "growth_rate"}); err != nil {
		return err
	}
	for i := range res.Years {
		snap := &res.Years[i]
		s := snap.Summary
		rec := []string{
			strconv.Itoa(snap.Year),
			count(snap.Matrix.Total()),
			count(s.Births),
			count(s.Deaths),
			count(s.NetMigration),
			count(s.NaturalChange),
			strconv.FormatFloat(s.GrowthRate, 'f', 4, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCohorts writes the full age-by-sex matrix of one snapshot.
func WriteCohorts(w io.Writer, snap *projection.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "age", "male", "female"}); err != nil {
		return err
	}
	for _, r := range snap.Matrix.Rows {
		rec := []string{
			strconv.Itoa(snap.Year),
			strconv.Itoa(r.Age),
			count(r.Male),
			count(r.Female),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSexRatios writes the sex-ratio series.
func WriteSexRatios(w io.Writer, rows []metrics.SexRatioRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "band", "sex_ratio"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.Itoa(r.Year), string(r.Band), ratio(r.Ratio)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDependencyRatios writes the dependency-ratio series.
func WriteDependencyRatios(w io.Writer, rows []metrics.DependencyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "youth", "old_age", "total"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{strconv.Itoa(r.Year), ratio(r.Youth), ratio(r.OldAge), ratio(r.Total)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMedianAges writes the median-age series.
func WriteMedianAges(w io.Writer, rows []metrics.MedianAgeRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "male", "female", "total"}); err != nil {
		return err
	}
	age := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, r := range rows {
		rec := []string{strconv.Itoa(r.Year), age(r.Male), age(r.Female), age(r.Total)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCohortTracking writes one birth cohort's survival series.
func WriteCohortTracking(w io.Writer, rows []metrics.CohortTrackingRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "age", "male", "female", "total", "survival", "cumulative"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Age),
			count(r.Male),
			count(r.Female),
			count(r.Total),
			ratio(r.Survival),
			ratio(r.Cumulative),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLifeExpectancies writes the per-year life expectancy summary.
func WriteLifeExpectancies(w io.Writer, rows []metrics.LifeExpectancyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "male_e0", "female_e0", "male_e65", "female_e65"}); err != nil {
		return err
	}
	ex := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, r := range rows {
		rec := []string{strconv.Itoa(r.Year), ex(r.MaleE0), ex(r.FemaleE0), ex(r.MaleE65), ex(r.FemaleE65)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLifeTable writes a full single-sex life table.
func WriteLifeTable(w io.Writer, rows []lifetable.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"age", "qx", "lx", "dx", "person_years", "tx", "ex"}); err != nil {
		return err
	}
	f := func(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Age),
			f(r.Qx, 5),
			f(r.Lx, 0),
			f(r.Dx, 0),
			f(r.PersonYears, 1),
			f(r.Tx, 1),
			f(r.Ex, 2),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
