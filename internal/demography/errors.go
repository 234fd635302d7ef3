package demography

import "fmt"

// InvalidRateError reports a malformed rate table: a probability outside
// [0,1], or ages that are not sorted and contiguous. It is fatal and is
// raised before any projection year is stepped.
type InvalidRateError struct {
	Age    int
	Value  float64
	Reason string
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid rate at age %d (value %g): %s", e.Age, e.Value, e.Reason)
}

// MissingCohortError reports a fertility age with no corresponding cohort
// row in the matrix.
type MissingCohortError struct {
	Age int
}

func (e *MissingCohortError) Error() string {
	return fmt.Sprintf("no cohort row for fertility age %d", e.Age)
}

// UnknownAgeError reports a migration entry referencing an age the cohort
// matrix does not carry. Unmatched ages are rejected, never silently dropped.
type UnknownAgeError struct {
	Age int
}

func (e *UnknownAgeError) Error() string {
	return fmt.Sprintf("migration entry references unknown age %d", e.Age)
}
