package models

import "time"

type ForecastKind string

const (
	ForecastKindSeasonal ForecastKind = "seasonal"
	ForecastKindDemand   ForecastKind = "demand"
)

// StoredForecast is an entry of the forecast lookup table.
// Seasonal entries carry a single value; demand entries carry one value per
// production column, in the same order as Columns.
type StoredForecast struct {
	Kind        ForecastKind `json:"kind"`
	Key         string       `json:"key"`
	Columns     []string     `json:"columns,omitempty"`
	Values      []float64    `json:"values"`
	GeneratedAt time.Time    `json:"generated_at"`
	RunID       string       `json:"run_id,omitempty"`
}

type RefreshStatus string

const (
	RefreshRunning   RefreshStatus = "running"
	RefreshCompleted RefreshStatus = "completed"
	RefreshFailed    RefreshStatus = "failed"
)

// RefreshRun summarises one pass of the forecast refresh job.
type RefreshRun struct {
	ID         string        `json:"id"`
	Status     RefreshStatus `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Targets    int           `json:"targets"`
	Succeeded  int           `json:"succeeded"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Error      string        `json:"error,omitempty"`
}

func NewRefreshRun() *RefreshRun {
	return &RefreshRun{
		ID:        NewUUID(),
		Status:    RefreshRunning,
		StartedAt: time.Now(),
	}
}

func (r *RefreshRun) Finish(err error) {
	now := time.Now()
	r.FinishedAt = &now
	if err != nil {
		r.Status = RefreshFailed
		r.Error = err.Error()
		return
	}
	r.Status = RefreshCompleted
}

func (r *RefreshRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
