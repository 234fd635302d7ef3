// Package demography provides the cohort data model and rate tables for the
// cohort-component projection engine.
package demography

// MaxAge is the highest single-year age tracked by the model. The MaxAge
// bucket is an open-ended terminal interval ("110+") that absorbs every
// cohort aging into it; it never empties through aging alone.
const MaxAge = 110

// Sex represents biological sex for demographic accounting.
type Sex uint8

const (
	SexMale   Sex = 0
	SexFemale Sex = 1
)

// String returns the lowercase name used in logs and exports.
func (s Sex) String() string {
	if s == SexFemale {
		return "female"
	}
	return "male"
}

// AgeRange is an inclusive range of single-year ages.
type AgeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// AllAges covers the full model range.
func AllAges() AgeRange {
	return AgeRange{Min: 0, Max: MaxAge}
}

// Contains reports whether age falls inside the range.
func (r AgeRange) Contains(age int) bool {
	return age >= r.Min && age <= r.Max
}
