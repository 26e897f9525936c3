package queries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/OldStager01/crop-advisor/pkg/models"
)

var ErrRunNotFound = errors.New("refresh run not found")

type RefreshRunRepository struct {
	db *sql.DB
}

func NewRefreshRunRepository(db *sql.DB) *RefreshRunRepository {
	return &RefreshRunRepository{db: db}
}

// Save inserts the run or updates it if it already exists.
func (r *RefreshRunRepository) Save(ctx context.Context, run *models.RefreshRun) error {
	query := `
		INSERT INTO forecast_refresh_runs
			(id, status, started_at, finished_at, targets, succeeded, skipped, failed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			targets = EXCLUDED.targets,
			succeeded = EXCLUDED.succeeded,
			skipped = EXCLUDED.skipped,
			failed = EXCLUDED.failed,
			error = EXCLUDED.error`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Status, run.StartedAt, run.FinishedAt,
		run.Targets, run.Succeeded, run.Skipped, run.Failed, run.Error,
	)
	return err
}

func (r *RefreshRunRepository) Latest(ctx context.Context) (*models.RefreshRun, error) {
	query := `
		SELECT id, status, started_at, finished_at, targets, succeeded, skipped, failed, COALESCE(error, '')
		FROM forecast_refresh_runs
		ORDER BY started_at DESC
		LIMIT 1`

	var run models.RefreshRun
	err := r.db.QueryRowContext(ctx, query).Scan(
		&run.ID, &run.Status, &run.StartedAt, &run.FinishedAt,
		&run.Targets, &run.Succeeded, &run.Skipped, &run.Failed, &run.Error,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
