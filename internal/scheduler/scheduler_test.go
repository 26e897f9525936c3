package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/crop-advisor/internal/events"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/internal/recommend"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

type fakeRefresher struct {
	targets []recommend.Target
	errs    map[string]error
	block   chan struct{}
	calls   int32
}

func (f *fakeRefresher) RefreshTargets() []recommend.Target {
	return f.targets
}

func (f *fakeRefresher) Refresh(ctx context.Context, t recommend.Target) (*models.StoredForecast, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		<-f.block
	}
	if err := f.errs[t.Key()]; err != nil {
		return nil, err
	}
	return &models.StoredForecast{Kind: t.Kind, Key: t.Key(), Values: []float64{1}}, nil
}

func targets() []recommend.Target {
	return []recommend.Target{
		{Kind: models.ForecastKindSeasonal, District: "ERODE", Season: "Kharif", Crop: "Rice"},
		{Kind: models.ForecastKindSeasonal, District: "SALEM", Season: "Rabi", Crop: "Wheat"},
		{Kind: models.ForecastKindDemand, District: "Durg"},
	}
}

func newTestScheduler(cfg Config, r Refresher) (*Scheduler, *events.EventBus) {
	bus := events.NewEventBus(100)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return New(cfg, r, events.NewPublisher(bus), m), bus
}

func receive(t *testing.T, ch <-chan *models.Event) *models.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRunOnce_CountsOutcomes(t *testing.T) {
	r := &fakeRefresher{
		targets: targets(),
		errs: map[string]error{
			"seasonal:SALEM:Rabi:Wheat": fmt.Errorf("%w: 2 yearly values", recommend.ErrInsufficientHistory),
			"demand:Durg":               errors.New("non-finite output"),
		},
	}
	s, bus := newTestScheduler(Config{Workers: 2}, r)
	completed := bus.Subscribe(models.EventTypeRefreshCompleted)
	failed := bus.Subscribe(models.EventTypeForecastFailed)

	run, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RefreshCompleted, run.Status)
	assert.Equal(t, 3, run.Targets)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 1, run.Failed)
	assert.NotNil(t, run.FinishedAt)

	e := receive(t, completed)
	assert.Equal(t, run.ID, e.RunID)
	assert.Equal(t, models.SeverityWarning, e.Severity)

	e = receive(t, failed)
	assert.Equal(t, "Durg", e.District)

	st := s.Status()
	assert.False(t, st.Running)
	require.NotNil(t, st.Last)
	assert.Equal(t, run.ID, st.Last.ID)
}

func TestRunOnce_CancelledContextFailsRun(t *testing.T) {
	r := &fakeRefresher{targets: targets()}
	s, bus := newTestScheduler(Config{Workers: 1}, r)
	failed := bus.Subscribe(models.EventTypeRefreshFailed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := s.RunOnce(ctx)
	require.Error(t, err)
	assert.Equal(t, models.RefreshFailed, run.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&r.calls))

	e := receive(t, failed)
	assert.Equal(t, models.SeverityCritical, e.Severity)
}

func TestTrigger_RejectsConcurrentRun(t *testing.T) {
	r := &fakeRefresher{targets: targets(), block: make(chan struct{})}
	s, _ := newTestScheduler(Config{Workers: 1}, r)
	defer s.Stop()

	id, err := s.Trigger()
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = s.Trigger()
	assert.ErrorIs(t, err, ErrRunInProgress)

	st := s.Status()
	assert.True(t, st.Running)
	require.NotNil(t, st.Active)
	assert.Equal(t, id, st.Active.ID)

	close(r.block)
	assert.Eventually(t, func() bool {
		last := s.Status().Last
		return last != nil && last.ID == id && last.Status == models.RefreshCompleted
	}, 2*time.Second, 10*time.Millisecond)

	_, err = s.Trigger()
	assert.NoError(t, err)
}

func TestStart_RunOnStart(t *testing.T) {
	r := &fakeRefresher{targets: targets()}
	s, _ := newTestScheduler(Config{RunOnStart: true, Workers: 2}, r)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool {
		return s.Status().Last != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&r.calls))

	s.Stop()
}

func TestStart_TickerRunsRepeatedly(t *testing.T) {
	r := &fakeRefresher{targets: targets()[:1]}
	s, _ := newTestScheduler(Config{Interval: 20 * time.Millisecond, Workers: 1}, r)

	require.NoError(t, s.Start())
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&r.calls) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()
}

func TestStop_RejectsNewRuns(t *testing.T) {
	s, _ := newTestScheduler(Config{}, &fakeRefresher{})
	s.Stop()

	_, err := s.Trigger()
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, s.Start(), ErrStopped)
}

func TestStop_WaitsForRunsTriggeredConcurrently(t *testing.T) {
	for i := 0; i < 20; i++ {
		r := &fakeRefresher{targets: targets()}
		s, _ := newTestScheduler(Config{Workers: 2}, r)

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					if _, err := s.Trigger(); errors.Is(err, ErrStopped) {
						return
					}
				}
			}()
		}

		time.Sleep(time.Millisecond)
		s.Stop()

		assert.False(t, s.Status().Running, "a run outlived Stop")
		wg.Wait()

		_, err := s.RunOnce(context.Background())
		assert.ErrorIs(t, err, ErrStopped)
	}
}

func TestRestore_SeedsLastUntilARunCompletes(t *testing.T) {
	s, _ := newTestScheduler(Config{Workers: 1}, &fakeRefresher{targets: targets()[:1]})

	s.Restore(nil)
	assert.Nil(t, s.Status().Last)

	previous := &models.RefreshRun{ID: "run-0", Status: models.RefreshCompleted, Targets: 4, Succeeded: 4}
	s.Restore(previous)
	require.NotNil(t, s.Status().Last)
	assert.Equal(t, "run-0", s.Status().Last.ID)

	run, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, run.ID, s.Status().Last.ID)

	s.Restore(previous)
	assert.Equal(t, run.ID, s.Status().Last.ID)
}
