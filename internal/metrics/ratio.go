// Package metrics computes derived demographic indicators from a completed
// projection result: sex ratios, dependency ratios, median ages, cohort
// survival tracking, and life expectancy summaries.
//
// Every calculator is a pure function over the immutable result; none of
// them mutates it, and they may run concurrently with no ordering
// constraint. Zero denominators always resolve to explicit sentinels —
// no NaN or Inf literal ever leaves this package.
package metrics

import "fmt"

// RatioState distinguishes a normal ratio from the two degenerate cases.
type RatioState uint8

const (
	// RatioDefined: a finite numerator/denominator quotient.
	RatioDefined RatioState = iota
	// RatioZeroPopulation: 0/0 — nobody in either group.
	RatioZeroPopulation
	// RatioInfinite: positive numerator over a zero denominator. Surfaced
	// as a sentinel, never as a float Inf.
	RatioInfinite
)

// String returns the state label used in exports.
func (s RatioState) String() string {
	switch s {
	case RatioZeroPopulation:
		return "zero-population"
	case RatioInfinite:
		return "infinite"
	default:
		return "defined"
	}
}

// Ratio is a quotient with its degenerate cases made explicit. Value is
// meaningful only when State is RatioDefined.
type Ratio struct {
	Value float64    `json:"value"`
	State RatioState `json:"state"`
}

// NewRatio forms num/den with scale applied (100 for the per-hundred
// conventions used throughout demography).
func NewRatio(num, den, scale float64) Ratio {
	if den == 0 {
		if num == 0 {
			return Ratio{State: RatioZeroPopulation}
		}
		return Ratio{State: RatioInfinite}
	}
	return Ratio{Value: num / den * scale, State: RatioDefined}
}

// Defined reports whether Value carries a normal ratio.
func (r Ratio) Defined() bool {
	return r.State == RatioDefined
}

// String renders the ratio for logs and flat exports.
func (r Ratio) String() string {
	switch r.State {
	case RatioZeroPopulation:
		return "n/a"
	case RatioInfinite:
		return "inf"
	default:
		return fmt.Sprintf("%.2f", r.Value)
	}
}
