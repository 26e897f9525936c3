package queries

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/lib/pq"

	"github.com/OldStager01/crop-advisor/internal/dataset"
	"github.com/OldStager01/crop-advisor/pkg/database"
)

// ProductionRepository stores the historical production tables.
type ProductionRepository struct {
	db *database.DB
}

func NewProductionRepository(db *database.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

func (r *ProductionRepository) LoadCropTable(ctx context.Context) (*dataset.CropTable, error) {
	query := `
		SELECT state_name, district_name, crop_year, season, crop, area, production
		FROM crop_production
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		records []dataset.CropRecord
		hasYear bool
	)
	for rows.Next() {
		var (
			rec        dataset.CropRecord
			year       sql.NullInt64
			area, prod sql.NullFloat64
		)
		if err := rows.Scan(&rec.State, &rec.District, &year, &rec.Season, &rec.Crop, &area, &prod); err != nil {
			return nil, err
		}
		if year.Valid {
			rec.Year, rec.HasYear = int(year.Int64), true
			hasYear = true
		}
		rec.Area = nullToNaN(area)
		rec.Production = nullToNaN(prod)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dataset.NewCropTable(records, hasYear), nil
}

func (r *ProductionRepository) LoadDistrictTable(ctx context.Context) (*dataset.DistrictTable, error) {
	var columns []string
	colRows, err := r.db.QueryContext(ctx, `SELECT name FROM district_production_columns ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer colRows.Close()
	for colRows.Next() {
		var name string
		if err := colRows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	if err := colRows.Err(); err != nil {
		return nil, err
	}

	query := `
		SELECT source_row, district_name, year, column_position, value
		FROM district_production
		ORDER BY source_row, column_position`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out     []dataset.DistrictRow
		current = -1
	)
	for rows.Next() {
		var (
			sourceRow, year, position int
			district                  string
			value                     float64
		)
		if err := rows.Scan(&sourceRow, &district, &year, &position, &value); err != nil {
			return nil, err
		}
		if position < 0 || position >= len(columns) {
			return nil, fmt.Errorf("district_production row %d references unknown column %d", sourceRow, position)
		}
		if sourceRow != current {
			out = append(out, dataset.DistrictRow{
				District: district,
				Year:     year,
				Values:   make([]float64, len(columns)),
			})
			current = sourceRow
		}
		out[len(out)-1].Values[position] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dataset.NewDistrictTable(columns, out), nil
}

// SeedCrops replaces crop_production with the given table.
func (r *ProductionRepository) SeedCrops(ctx context.Context, table *dataset.CropTable) (int, error) {
	records := table.Records()

	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE crop_production`); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("crop_production",
			"state_name", "district_name", "crop_year", "season", "crop", "area", "production"))
		if err != nil {
			return err
		}

		for _, rec := range records {
			var year sql.NullInt64
			if rec.HasYear {
				year = sql.NullInt64{Int64: int64(rec.Year), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				rec.State, rec.District, year, rec.Season, rec.Crop,
				nanToNull(rec.Area), nanToNull(rec.Production),
			); err != nil {
				stmt.Close()
				return err
			}
		}

		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return err
		}
		return stmt.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed crop_production: %w", err)
	}
	return len(records), nil
}

// SeedDistricts replaces the district production tables with the given table.
func (r *ProductionRepository) SeedDistricts(ctx context.Context, table *dataset.DistrictTable) (int, error) {
	columns := table.Columns()
	rows := table.Rows()

	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `TRUNCATE district_production, district_production_columns`); err != nil {
			return err
		}

		for i, name := range columns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO district_production_columns (position, name) VALUES ($1, $2)`, i, name); err != nil {
				return err
			}
		}

		stmt, err := tx.PrepareContext(ctx, pq.CopyIn("district_production",
			"source_row", "district_name", "year", "column_position", "value"))
		if err != nil {
			return err
		}

		for i, row := range rows {
			for pos, v := range row.Values {
				if _, err := stmt.ExecContext(ctx, i, row.District, row.Year, pos, v); err != nil {
					stmt.Close()
					return err
				}
			}
		}

		if _, err := stmt.ExecContext(ctx); err != nil {
			stmt.Close()
			return err
		}
		return stmt.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed district_production: %w", err)
	}
	return len(rows), nil
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nanToNull(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
