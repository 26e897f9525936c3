package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	colState      = "state_name"
	colDistrict   = "district_name"
	colSeason     = "season"
	colCrop       = "crop"
	colArea       = "area"
	colProduction = "production"

	colDistName = "dist name"
	colYear     = "year"
)

type header struct {
	names []string
	index map[string]int
}

func newHeader(row []string) header {
	h := header{names: make([]string, len(row)), index: make(map[string]int, len(row))}
	for i, name := range row {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		h.names[i] = name
		key := strings.ToLower(name)
		if _, ok := h.index[key]; !ok {
			h.index[key] = i
		}
	}
	return h
}

func (h header) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := h.index[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (h header) col(name string) int {
	if i, ok := h.index[name]; ok {
		return i
	}
	return -1
}

// firstContaining returns the first column whose name contains sub.
func (h header) firstContaining(sub string) int {
	for i, n := range h.names {
		if strings.Contains(strings.ToLower(n), sub) {
			return i
		}
	}
	return -1
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseFloat returns NaN for empty or non-numeric cells.
func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseYear(s string) (int, bool) {
	v := parseFloat(s)
	if !isFinite(v) || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

// ReadCropCSV parses the seasonal dataset (State_Name, District_Name,
// Crop_Year, Season, Crop, Area, Production). The year column is the first
// header containing "year".
func ReadCropCSV(r io.Reader) (*CropTable, error) {
	cr := newReader(r)

	first, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("crop dataset is empty")
		}
		return nil, fmt.Errorf("failed to read crop dataset header: %w", err)
	}

	h := newHeader(first)
	if err := h.require(colDistrict, colSeason, colCrop, colProduction); err != nil {
		return nil, fmt.Errorf("crop dataset: %w", err)
	}

	var (
		iState      = h.col(colState)
		iDistrict   = h.col(colDistrict)
		iSeason     = h.col(colSeason)
		iCrop       = h.col(colCrop)
		iArea       = h.col(colArea)
		iProduction = h.col(colProduction)
		iYear       = h.firstContaining("year")
	)

	var records []CropRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("crop dataset line %d: %w", line, err)
		}

		rec := CropRecord{
			State:      cell(row, iState),
			District:   cell(row, iDistrict),
			Season:     cell(row, iSeason),
			Crop:       cell(row, iCrop),
			Area:       parseFloat(cell(row, iArea)),
			Production: parseFloat(cell(row, iProduction)),
		}
		if rec.District == "" || rec.Season == "" || rec.Crop == "" {
			continue
		}
		if iYear >= 0 {
			rec.Year, rec.HasYear = parseYear(cell(row, iYear))
		}
		records = append(records, rec)
	}

	return NewCropTable(records, iYear >= 0), nil
}

// ReadDistrictCSV parses the district-level dataset. Every column whose
// name contains PRODUCTION is kept; unparseable cells count as zero.
// Rows without a numeric year are skipped.
func ReadDistrictCSV(r io.Reader) (*DistrictTable, error) {
	cr := newReader(r)

	first, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("district dataset is empty")
		}
		return nil, fmt.Errorf("failed to read district dataset header: %w", err)
	}

	h := newHeader(first)
	if err := h.require(colDistName, colYear); err != nil {
		return nil, fmt.Errorf("district dataset: %w", err)
	}

	var (
		columns []string
		indexes []int
	)
	for i, name := range h.names {
		if strings.Contains(strings.ToUpper(name), "PRODUCTION") {
			columns = append(columns, name)
			indexes = append(indexes, i)
		}
	}
	if len(columns) == 0 {
		return nil, errors.New("district dataset has no production columns")
	}

	iDistrict, iYear := h.col(colDistName), h.col(colYear)

	var rows []DistrictRow
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("district dataset line %d: %w", line, err)
		}

		district := cell(row, iDistrict)
		year, ok := parseYear(cell(row, iYear))
		if district == "" || !ok {
			continue
		}

		values := make([]float64, len(indexes))
		for j, i := range indexes {
			if v := parseFloat(cell(row, i)); isFinite(v) {
				values[j] = v
			}
		}
		rows = append(rows, DistrictRow{District: district, Year: year, Values: values})
	}

	return NewDistrictTable(columns, rows), nil
}

func LoadCropCSV(path string) (*CropTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open crop dataset: %w", err)
	}
	defer f.Close()
	return ReadCropCSV(f)
}

func LoadDistrictCSV(path string) (*DistrictTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open district dataset: %w", err)
	}
	defer f.Close()
	return ReadDistrictCSV(f)
}
