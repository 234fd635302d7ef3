package demography

import "fmt"

// CohortRow holds the male and female population counts for one single-year
// age in one calendar year.
type CohortRow struct {
	Age    int     `json:"age"`
	Male   float64 `json:"male"`
	Female float64 `json:"female"`
}

// Count returns the count for one sex.
func (r CohortRow) Count(sex Sex) float64 {
	if sex == SexFemale {
		return r.Female
	}
	return r.Male
}

// Total returns male + female.
func (r CohortRow) Total() float64 {
	return r.Male + r.Female
}

// CohortMatrix is the population broken into single-year age-by-sex cohorts
// for one calendar year. Rows are sorted by age, unique and contiguous from
// age 0; counts are never negative. The projection driver mutates only its
// private working copy — recorded snapshots are treated as read-only.
type CohortMatrix struct {
	Rows []CohortRow `json:"rows"`
}

// NewCohortMatrix validates rows and builds a matrix. Rows must start at age
// 0, be contiguous and unique, stay within [0, MaxAge], and carry no
// negative counts.
func NewCohortMatrix(rows []CohortRow) (*CohortMatrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cohort matrix: no rows")
	}
	for i, r := range rows {
		if r.Age != i {
			return nil, fmt.Errorf("cohort matrix: ages must be contiguous from 0, got age %d at index %d", r.Age, i)
		}
		if r.Age > MaxAge {
			return nil, fmt.Errorf("cohort matrix: age %d exceeds max age %d", r.Age, MaxAge)
		}
		if r.Male < 0 || r.Female < 0 {
			return nil, fmt.Errorf("cohort matrix: negative count at age %d", r.Age)
		}
	}
	m := &CohortMatrix{Rows: make([]CohortRow, len(rows))}
	copy(m.Rows, rows)
	return m, nil
}

// NewEmptyMatrix builds a zero-count matrix spanning ages 0..maxAge.
func NewEmptyMatrix(maxAge int) *CohortMatrix {
	rows := make([]CohortRow, maxAge+1)
	for i := range rows {
		rows[i].Age = i
	}
	return &CohortMatrix{Rows: rows}
}

// Clone returns a deep copy. The driver clones before each snapshot so
// recorded years are never aliased to the working matrix.
func (m *CohortMatrix) Clone() *CohortMatrix {
	rows := make([]CohortRow, len(m.Rows))
	copy(rows, m.Rows)
	return &CohortMatrix{Rows: rows}
}

// Extend grows the matrix with zero-count rows up to maxAge. A matrix that
// already spans maxAge is returned unchanged.
func (m *CohortMatrix) Extend(maxAge int) {
	for age := len(m.Rows); age <= maxAge; age++ {
		m.Rows = append(m.Rows, CohortRow{Age: age})
	}
}

// TopAge returns the highest age the matrix carries.
func (m *CohortMatrix) TopAge() int {
	return len(m.Rows) - 1
}

// Row returns the row for an age, or ok=false when the matrix does not
// carry that age.
func (m *CohortMatrix) Row(age int) (CohortRow, bool) {
	if age < 0 || age >= len(m.Rows) {
		return CohortRow{}, false
	}
	return m.Rows[age], true
}

// Get returns the count for (age, sex), zero when the age is absent.
func (m *CohortMatrix) Get(age int, sex Sex) float64 {
	r, ok := m.Row(age)
	if !ok {
		return 0
	}
	return r.Count(sex)
}

// Set overwrites the count for (age, sex). Ages outside the matrix are
// ignored; callers validate ages before mutation.
func (m *CohortMatrix) Set(age int, sex Sex, count float64) {
	if age < 0 || age >= len(m.Rows) {
		return
	}
	if sex == SexFemale {
		m.Rows[age].Female = count
	} else {
		m.Rows[age].Male = count
	}
}

// Add adds delta to the count for (age, sex).
func (m *CohortMatrix) Add(age int, sex Sex, delta float64) {
	m.Set(age, sex, m.Get(age, sex)+delta)
}

// Total returns the whole-population count.
func (m *CohortMatrix) Total() float64 {
	sum := 0.0
	for _, r := range m.Rows {
		sum += r.Male + r.Female
	}
	return sum
}

// TotalSex returns the population count for one sex.
func (m *CohortMatrix) TotalSex(sex Sex) float64 {
	sum := 0.0
	for _, r := range m.Rows {
		sum += r.Count(sex)
	}
	return sum
}

// SumRange returns the both-sex count over an inclusive age range. Ages
// beyond the matrix contribute zero.
func (m *CohortMatrix) SumRange(lo, hi int) float64 {
	return m.SumRangeSex(lo, hi, SexMale) + m.SumRangeSex(lo, hi, SexFemale)
}

// SumRangeSex returns the single-sex count over an inclusive age range.
func (m *CohortMatrix) SumRangeSex(lo, hi int, sex Sex) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > m.TopAge() {
		hi = m.TopAge()
	}
	sum := 0.0
	for age := lo; age <= hi; age++ {
		sum += m.Rows[age].Count(sex)
	}
	return sum
}
