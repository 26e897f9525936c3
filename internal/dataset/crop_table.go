package dataset

import (
	"math"
	"sort"
)

// CropRecord is one row of the seasonal production dataset. Missing
// production is NaN.
type CropRecord struct {
	State      string
	District   string
	Season     string
	Crop       string
	Year       int
	HasYear    bool
	Area       float64
	Production float64
}

// CropMean is a crop's mean production within one district and season.
type CropMean struct {
	Crop string
	Mean float64
	Rows int
}

// Pair is a district/season combination present in the data.
type Pair struct {
	District string
	Season   string
}

// CropTable is the immutable seasonal production table.
type CropTable struct {
	records   []CropRecord
	hasYear   bool
	districts *Vocabulary
	seasons   *Vocabulary
	index     map[Pair][]int
}

// NewCropTable indexes records. hasYear reports whether the source had a
// year column; without one no production series can be built.
func NewCropTable(records []CropRecord, hasYear bool) *CropTable {
	t := &CropTable{
		records:   records,
		hasYear:   hasYear,
		districts: NewVocabulary(),
		seasons:   NewVocabulary(),
		index:     make(map[Pair][]int),
	}
	for i, r := range records {
		t.districts.Add(r.District)
		t.seasons.Add(r.Season)
		key := Pair{District: r.District, Season: r.Season}
		t.index[key] = append(t.index[key], i)
	}
	return t
}

// Records returns a copy of every record in load order.
func (t *CropTable) Records() []CropRecord {
	out := make([]CropRecord, len(t.records))
	copy(out, t.records)
	return out
}

func (t *CropTable) Len() int      { return len(t.records) }
func (t *CropTable) HasYear() bool { return t.hasYear }

func (t *CropTable) ResolveDistrict(name string) (string, bool) {
	return t.districts.Resolve(name)
}

func (t *CropTable) ResolveSeason(name string) (string, bool) {
	return t.seasons.Resolve(name)
}

func (t *CropTable) Districts() []string { return t.districts.Values() }
func (t *CropTable) Seasons() []string   { return t.seasons.Values() }

// Slice returns the records for an exact district and season.
func (t *CropTable) Slice(district, season string) []CropRecord {
	idx := t.index[Pair{District: district, Season: season}]
	out := make([]CropRecord, len(idx))
	for i, j := range idx {
		out[i] = t.records[j]
	}
	return out
}

// Pairs lists every district/season combination, sorted.
func (t *CropTable) Pairs() []Pair {
	out := make([]Pair, 0, len(t.index))
	for p := range t.index {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].District != out[j].District {
			return out[i].District < out[j].District
		}
		return out[i].Season < out[j].Season
	})
	return out
}

// Averages groups records by crop and returns the mean production of each,
// highest first. Missing values are skipped; a crop with no values at all
// has a NaN mean and sorts last. Ties keep crop name order.
func Averages(records []CropRecord) []CropMean {
	type acc struct {
		sum  float64
		n    int
		rows int
	}
	groups := make(map[string]*acc)
	for _, r := range records {
		a, ok := groups[r.Crop]
		if !ok {
			a = &acc{}
			groups[r.Crop] = a
		}
		a.rows++
		if isFinite(r.Production) {
			a.sum += r.Production
			a.n++
		}
	}

	out := make([]CropMean, 0, len(groups))
	for crop, a := range groups {
		mean := math.NaN()
		if a.n > 0 {
			mean = a.sum / float64(a.n)
		}
		out = append(out, CropMean{Crop: crop, Mean: mean, Rows: a.rows})
	}

	sort.Slice(out, func(i, j int) bool {
		mi, mj := out[i].Mean, out[j].Mean
		ni, nj := math.IsNaN(mi), math.IsNaN(mj)
		switch {
		case ni != nj:
			return nj
		case !ni && mi != mj:
			return mi > mj
		default:
			return out[i].Crop < out[j].Crop
		}
	})
	return out
}

// Series returns one crop's finite production values ordered by year.
// It returns nil when the table has no year column.
func (t *CropTable) Series(district, season, crop string) []float64 {
	if !t.hasYear {
		return nil
	}

	var rows []CropRecord
	for _, r := range t.Slice(district, season) {
		if r.Crop == crop && r.HasYear && isFinite(r.Production) {
			rows = append(rows, r)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })

	series := make([]float64, len(rows))
	for i, r := range rows {
		series[i] = r.Production
	}
	return series
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
