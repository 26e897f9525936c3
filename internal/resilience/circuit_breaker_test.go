package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func failN(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return errBackend })
	}
}

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		config        CircuitBreakerConfig
		setup         func(cb *CircuitBreaker)
		expectedState State
	}{
		{
			name:          "successful execution stays closed",
			config:        CircuitBreakerConfig{MaxFailures: 3, Timeout: 5 * time.Second},
			setup:         func(cb *CircuitBreaker) { _ = cb.Execute(context.Background(), func(context.Context) error { return nil }) },
			expectedState: StateClosed,
		},
		{
			name:          "opens after max failures",
			config:        CircuitBreakerConfig{MaxFailures: 3, Timeout: 5 * time.Second},
			setup:         func(cb *CircuitBreaker) { failN(cb, 3) },
			expectedState: StateOpen,
		},
		{
			name:   "half-open after timeout",
			config: CircuitBreakerConfig{MaxFailures: 2, Timeout: 20 * time.Millisecond},
			setup: func(cb *CircuitBreaker) {
				failN(cb, 2)
				time.Sleep(40 * time.Millisecond)
				_ = cb.Execute(context.Background(), func(context.Context) error { return nil })
			},
			expectedState: StateHalfOpen,
		},
		{
			name:   "closes after half-open successes",
			config: CircuitBreakerConfig{MaxFailures: 2, Timeout: 20 * time.Millisecond, HalfOpenMax: 2},
			setup: func(cb *CircuitBreaker) {
				failN(cb, 2)
				time.Sleep(40 * time.Millisecond)
				for i := 0; i < 2; i++ {
					_ = cb.Execute(context.Background(), func(context.Context) error { return nil })
				}
			},
			expectedState: StateClosed,
		},
		{
			name:   "half-open failure reopens",
			config: CircuitBreakerConfig{MaxFailures: 2, Timeout: 20 * time.Millisecond},
			setup: func(cb *CircuitBreaker) {
				failN(cb, 2)
				time.Sleep(40 * time.Millisecond)
				failN(cb, 1)
			},
			expectedState: StateOpen,
		},
		{
			name: "ignored errors do not count",
			config: CircuitBreakerConfig{
				MaxFailures: 1,
				Timeout:     time.Hour,
				IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, errBackend) },
			},
			setup:         func(cb *CircuitBreaker) { failN(cb, 5) },
			expectedState: StateClosed,
		},
		{
			name:   "cancelled calls do not count",
			config: CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Hour},
			setup: func(cb *CircuitBreaker) {
				ctx, cancel := context.WithCancel(context.Background())
				_ = cb.Execute(ctx, func(context.Context) error {
					cancel()
					return context.Canceled
				})
			},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(tt.config)
			tt.setup(cb)
			assert.Equal(t, tt.expectedState, cb.Snapshot().State)
		})
	}
}

func TestCircuitBreaker_OpenRejects(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "store", MaxFailures: 1, Timeout: time.Hour})
	failN(cb, 1)

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, "store", cb.Name())
}

func TestCircuitBreaker_PassesThroughIgnoredError(t *testing.T) {
	miss := errors.New("miss")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, miss) },
	})

	err := cb.Execute(context.Background(), func(context.Context) error { return miss })

	assert.ErrorIs(t, err, miss)
	snap := cb.Snapshot()
	assert.Equal(t, StateClosed, snap.State)
	assert.Zero(t, snap.Failures)
	assert.True(t, snap.LastFailure.IsZero())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	changes := make(chan State, 1)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   1,
		Timeout:       time.Hour,
		OnStateChange: func(_ string, _, to State) { changes <- to },
	})

	failN(cb, 1)

	select {
	case to := <-changes:
		assert.Equal(t, StateOpen, to)
	case <-time.After(time.Second):
		t.Fatal("state change callback not invoked")
	}
}

func TestCircuitBreaker_DoneContextSkipsCall(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenLimitsTrialCalls(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute, HalfOpenMax: 1})
	now := time.Now()
	cb.now = func() time.Time { return now }

	failN(cb, 1)
	require.Equal(t, StateOpen, cb.Snapshot().State)
	now = now.Add(2 * time.Minute)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = cb.Execute(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)

	close(release)
	wg.Wait()
	assert.Equal(t, StateClosed, cb.Snapshot().State)
}

// hold starts a call and blocks it inside fn. The returned func makes fn
// return err and waits for Execute to finish.
func hold(t *testing.T, cb *CircuitBreaker) func(err error) {
	t.Helper()
	started := make(chan struct{})
	result := make(chan error)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cb.Execute(context.Background(), func(context.Context) error {
			close(started)
			return <-result
		})
	}()
	<-started
	return func(err error) {
		result <- err
		<-done
	}
}

func TestCircuitBreaker_StaleOutcomeIgnored(t *testing.T) {
	tests := []struct {
		name   string
		result error
	}{
		{"late success does not close", nil},
		{"late failure does not reopen", errBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute, HalfOpenMax: 1})
			now := time.Now()
			cb.now = func() time.Time { return now }

			finishClosed := hold(t, cb)

			failN(cb, 1)
			require.Equal(t, StateOpen, cb.Snapshot().State)
			now = now.Add(2 * time.Minute)

			finishTrial := hold(t, cb)
			require.Equal(t, StateHalfOpen, cb.Snapshot().State)

			finishClosed(tt.result)
			assert.Equal(t, StateHalfOpen, cb.Snapshot().State)

			err := cb.Execute(context.Background(), func(context.Context) error { return nil })
			assert.ErrorIs(t, err, ErrCircuitOpen, "trial slot must still be held")

			finishTrial(nil)
			assert.Equal(t, StateClosed, cb.Snapshot().State)
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
