package demography

import "sort"

// MortalityRate is the probability of dying between exact age x and x+1
// (qx), carried separately per sex.
type MortalityRate struct {
	Age      int     `json:"age"`
	QxMale   float64 `json:"qx_male"`
	QxFemale float64 `json:"qx_female"`
}

// Qx returns the probability for one sex.
func (r MortalityRate) Qx(sex Sex) float64 {
	if sex == SexFemale {
		return r.QxFemale
	}
	return r.QxMale
}

// MortalityTable is an ordered schedule of death probabilities by age.
type MortalityTable struct {
	Rates []MortalityRate `json:"rates"`
}

// Validate checks the table invariants: ages sorted and contiguous from 0,
// every qx inside [0,1]. Returns *InvalidRateError on the first violation.
func (t *MortalityTable) Validate() error {
	if len(t.Rates) == 0 {
		return &InvalidRateError{Reason: "empty mortality table"}
	}
	for i, r := range t.Rates {
		if r.Age != i {
			return &InvalidRateError{Age: r.Age, Reason: "ages must be sorted and contiguous from 0"}
		}
		if r.QxMale < 0 || r.QxMale > 1 {
			return &InvalidRateError{Age: r.Age, Value: r.QxMale, Reason: "male qx outside [0,1]"}
		}
		if r.QxFemale < 0 || r.QxFemale > 1 {
			return &InvalidRateError{Age: r.Age, Value: r.QxFemale, Reason: "female qx outside [0,1]"}
		}
	}
	return nil
}

// Qx returns the death probability for (age, sex) and whether the table
// carries that age.
func (t *MortalityTable) Qx(age int, sex Sex) (float64, bool) {
	if age < 0 || age >= len(t.Rates) {
		return 0, false
	}
	return t.Rates[age].Qx(sex), true
}

// QxSlice extracts the per-age qx column for one sex.
func (t *MortalityTable) QxSlice(sex Sex) []float64 {
	out := make([]float64, len(t.Rates))
	for i, r := range t.Rates {
		out[i] = r.Qx(sex)
	}
	return out
}

// Clone returns a deep copy, used when shocks adjust a year's rates without
// touching the caller's base table.
func (t *MortalityTable) Clone() *MortalityTable {
	rates := make([]MortalityRate, len(t.Rates))
	copy(rates, t.Rates)
	return &MortalityTable{Rates: rates}
}

// FertilityRate is the expected births per woman per year at the mother's
// age, typically nonzero only for ages 15-49.
type FertilityRate struct {
	Age  int     `json:"age"`
	Rate float64 `json:"rate"`
}

// FertilityTable is a schedule of age-specific fertility rates plus the sex
// ratio at birth (males per 100 females, ~105 in most populations).
type FertilityTable struct {
	Rates           []FertilityRate `json:"rates"`
	SexRatioAtBirth float64         `json:"sex_ratio_at_birth"`
}

// Validate checks fertility invariants: non-negative rates and a positive
// sex ratio at birth.
func (t *FertilityTable) Validate() error {
	if t.SexRatioAtBirth <= 0 {
		return &InvalidRateError{Value: t.SexRatioAtBirth, Reason: "sex ratio at birth must be positive"}
	}
	for _, r := range t.Rates {
		if r.Rate < 0 {
			return &InvalidRateError{Age: r.Age, Value: r.Rate, Reason: "negative fertility rate"}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t *FertilityTable) Clone() *FertilityTable {
	rates := make([]FertilityRate, len(t.Rates))
	copy(rates, t.Rates)
	return &FertilityTable{Rates: rates, SexRatioAtBirth: t.SexRatioAtBirth}
}

// MigrationEntry is a net migrant count for one age-sex cohort. Negative
// counts mean net outflow. Region tags sub-regional flows before national
// aggregation; the engine itself is region-agnostic.
type MigrationEntry struct {
	Age      int     `json:"age"`
	Sex      Sex     `json:"sex"`
	NetCount float64 `json:"net_count"`
	Region   string  `json:"region,omitempty"`
}

// AggregateNational collapses per-region migration entries into a single
// national net per (age, sex), dropping the region tag. Output is sorted by
// age then sex so repeated aggregation is deterministic.
func AggregateNational(entries []MigrationEntry) []MigrationEntry {
	type key struct {
		age int
		sex Sex
	}
	sums := make(map[key]float64)
	for _, e := range entries {
		sums[key{e.Age, e.Sex}] += e.NetCount
	}
	out := make([]MigrationEntry, 0, len(sums))
	for k, net := range sums {
		out = append(out, MigrationEntry{Age: k.age, Sex: k.sex, NetCount: net})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Age != out[j].Age {
			return out[i].Age < out[j].Age
		}
		return out[i].Sex < out[j].Sex
	})
	return out
}
