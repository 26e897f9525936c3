package dataset

import (
	"sort"
	"strings"
)

// DistrictRow is one district-year row of the wide district dataset.
// Values are aligned with the table's production columns.
type DistrictRow struct {
	District string
	Year     int
	Values   []float64
}

// DistrictTable holds per-district yearly production columns.
type DistrictTable struct {
	columns   []string
	districts *Vocabulary
	rows      map[string][]DistrictRow
	all       []DistrictRow
}

func NewDistrictTable(columns []string, rows []DistrictRow) *DistrictTable {
	t := &DistrictTable{
		columns:   columns,
		districts: NewVocabulary(),
		rows:      make(map[string][]DistrictRow),
		all:       rows,
	}
	for _, r := range rows {
		t.districts.Add(r.District)
		key := strings.ToUpper(strings.TrimSpace(r.District))
		t.rows[key] = append(t.rows[key], r)
	}
	return t
}

// Columns returns the production column names.
func (t *DistrictTable) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Rows returns every row in load order.
func (t *DistrictTable) Rows() []DistrictRow {
	out := make([]DistrictRow, len(t.all))
	copy(out, t.all)
	return out
}

func (t *DistrictTable) Resolve(name string) (string, bool) {
	return t.districts.Resolve(name)
}

func (t *DistrictTable) Districts() []string {
	return t.districts.Values()
}

// YearlyTotals sums every production column per year for all rows whose
// district matches name case-insensitively. Years are ascending.
func (t *DistrictTable) YearlyTotals(name string) ([]int, [][]float64) {
	rows := t.rows[strings.ToUpper(strings.TrimSpace(name))]
	if len(rows) == 0 {
		return nil, nil
	}

	totals := make(map[int][]float64)
	for _, r := range rows {
		sum, ok := totals[r.Year]
		if !ok {
			sum = make([]float64, len(t.columns))
			totals[r.Year] = sum
		}
		for i := range sum {
			if i < len(r.Values) {
				sum[i] += r.Values[i]
			}
		}
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	matrix := make([][]float64, len(years))
	for i, y := range years {
		matrix[i] = totals[y]
	}
	return years, matrix
}
