package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/internal/recommend"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

type outcome int

const (
	outcomeStored outcome = iota
	outcomeSkipped
	outcomeFailed
)

// execute refreshes every target with a bounded pool of workers. A failed
// target is counted and reported; only cancellation fails the run.
func (s *Scheduler) execute(parent context.Context, run *models.RefreshRun) {
	ctx := parent
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.cfg.Timeout)
		defer cancel()
	}
	ctx = recommend.WithRunID(ctx, run.ID)
	log := logger.WithRun(run.ID)

	targets := s.refresher.RefreshTargets()

	s.mu.Lock()
	run.Targets = len(targets)
	started := *run
	s.mu.Unlock()

	s.publisher.RefreshStarted(&started)
	log.Infof("Forecast refresh started: %d targets", len(targets))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)

	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		t := t
		g.Go(func() error {
			s.record(run, s.refreshTarget(ctx, run.ID, t))
			return nil
		})
	}
	_ = g.Wait()

	var runErr error
	if err := ctx.Err(); err != nil {
		runErr = fmt.Errorf("refresh interrupted: %w", err)
	}

	s.mu.Lock()
	run.Finish(runErr)
	finished := *run
	s.last = run
	s.active = nil
	s.mu.Unlock()

	s.metrics.IncRefreshRun(string(finished.Status))
	if runErr != nil {
		log.Errorf("Forecast refresh failed after %s: %v", finished.Duration().Round(time.Millisecond), runErr)
		s.publisher.RefreshFailed(&finished, runErr)
		return
	}

	s.metrics.SetLastRefreshSuccess(*finished.FinishedAt)
	log.Infof("Forecast refresh completed in %s: %d stored, %d skipped, %d failed",
		finished.Duration().Round(time.Millisecond), finished.Succeeded, finished.Skipped, finished.Failed)
	s.publisher.RefreshCompleted(&finished)
}

func (s *Scheduler) refreshTarget(ctx context.Context, runID string, t recommend.Target) outcome {
	if ctx.Err() != nil {
		return outcomeSkipped
	}

	f, err := s.refresher.Refresh(ctx, t)
	switch {
	case err == nil:
		s.publisher.ForecastStored(runID, f, t.District)
		return outcomeStored
	case errors.Is(err, recommend.ErrInsufficientHistory):
		return outcomeSkipped
	default:
		logger.WithRun(runID).
			WithField("key", t.Key()).
			Warnf("Forecast refresh failed: %v", err)
		s.publisher.ForecastFailed(runID, t.Key(), t.District, err)
		return outcomeFailed
	}
}

func (s *Scheduler) record(run *models.RefreshRun, o outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch o {
	case outcomeStored:
		run.Succeeded++
	case outcomeSkipped:
		run.Skipped++
	case outcomeFailed:
		run.Failed++
	}
}
