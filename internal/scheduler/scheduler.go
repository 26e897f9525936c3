package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OldStager01/crop-advisor/internal/events"
	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/internal/recommend"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

var (
	ErrRunInProgress = errors.New("a forecast refresh is already running")
	ErrStopped       = errors.New("scheduler is stopped")
)

// Refresher is the part of the recommendation service the job drives.
type Refresher interface {
	RefreshTargets() []recommend.Target
	Refresh(ctx context.Context, t recommend.Target) (*models.StoredForecast, error)
}

type Config struct {
	Interval   time.Duration
	RunOnStart bool
	Workers    int
	Timeout    time.Duration
}

// Status is a snapshot of the job. Active is nil when nothing is running.
type Status struct {
	Running bool               `json:"running"`
	Active  *models.RefreshRun `json:"active,omitempty"`
	Last    *models.RefreshRun `json:"last,omitempty"`
}

// Scheduler periodically recomputes every forecast the service can serve
// and writes them to the lookup table.
type Scheduler struct {
	cfg       Config
	refresher Refresher
	publisher *events.Publisher
	metrics   *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	active  *models.RefreshRun
	last    *models.RefreshRun
}

func New(cfg Config, refresher Refresher, publisher *events.Publisher, m *metrics.Metrics) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if m == nil {
		m = metrics.Get()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cfg:       cfg,
		refresher: refresher,
		publisher: publisher,
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the ticker loop. With a zero interval only Trigger starts
// runs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return ErrStopped
	}
	if s.started {
		return nil
	}
	s.started = true

	s.wg.Add(1)
	go s.loop()

	logger.WithField("interval", s.cfg.Interval.String()).
		WithField("workers", s.cfg.Workers).
		Info("Forecast scheduler started")
	return nil
}

// Stop cancels any running refresh and waits for it to return.
func (s *Scheduler) Stop() {
	logger.Info("Forecast scheduler stopping")
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	logger.Info("Forecast scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	if s.cfg.RunOnStart {
		s.triggerFromLoop()
	}
	if s.cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.triggerFromLoop()
		}
	}
}

func (s *Scheduler) triggerFromLoop() {
	if _, err := s.Trigger(); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			logger.Warn("Skipping scheduled forecast refresh: previous run still in progress")
			return
		}
		logger.Errorf("Failed to start scheduled forecast refresh: %v", err)
	}
}

// Trigger starts a refresh in the background and returns its run ID.
func (s *Scheduler) Trigger() (string, error) {
	run, err := s.begin()
	if err != nil {
		return "", err
	}

	go func() {
		defer s.wg.Done()
		s.execute(s.ctx, run)
	}()

	return run.ID, nil
}

// RunOnce performs a refresh synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.RefreshRun, error) {
	run, err := s.begin()
	if err != nil {
		return nil, err
	}

	s.execute(ctx, run)
	s.wg.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	result := *run
	if result.Status == models.RefreshFailed {
		return &result, errors.New(result.Error)
	}
	return &result, nil
}

// begin claims the active slot and counts the run in wg. Stop cancels
// under the same lock, so no run is added once Wait may have started.
// The caller must call wg.Done when the run returns.
func (s *Scheduler) begin() (*models.RefreshRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return nil, ErrStopped
	}
	if s.active != nil {
		return nil, ErrRunInProgress
	}

	s.active = models.NewRefreshRun()
	s.wg.Add(1)
	return s.active, nil
}

// Restore seeds the last run summary, typically from the audit table after
// a restart. It does nothing once a run has completed in this process.
func (s *Scheduler) Restore(run *models.RefreshRun) {
	if run == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		last := *run
		s.last = &last
	}
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Running: s.active != nil}
	if s.active != nil {
		active := *s.active
		st.Active = &active
	}
	if s.last != nil {
		last := *s.last
		st.Last = &last
	}
	return st
}
