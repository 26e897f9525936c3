package events

import (
	"context"
	"time"

	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

// RunStore persists refresh run summaries.
type RunStore interface {
	Save(ctx context.Context, run *models.RefreshRun) error
}

const persistTimeout = 5 * time.Second

// EventLogger writes every bus event to the log and keeps the refresh run
// audit table current.
type EventLogger struct {
	runs      RunStore
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewEventLogger logs every event from eventChan. runs may be nil when no
// database is configured.
func NewEventLogger(runs RunStore, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		runs:      runs,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (l *EventLogger) Start() {
	go l.run()
}

// Stop handles events already buffered, so the final status of a run
// that just finished still reaches the audit table, then returns.
func (l *EventLogger) Stop() {
	l.cancel()
	<-l.done
}

func (l *EventLogger) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			l.drain()
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) drain() {
	for {
		select {
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		default:
			return
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"district":   event.District,
		"run_id":     event.RunID,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Debug(event.Message)
	}

	switch event.Type {
	case models.EventTypeRefreshStarted, models.EventTypeRefreshCompleted, models.EventTypeRefreshFailed:
		l.persistRun(event)
	}
}

func (l *EventLogger) persistRun(event *models.Event) {
	if l.runs == nil {
		return
	}
	run, ok := event.Data.(models.RefreshRun)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := l.runs.Save(ctx, &run); err != nil {
		logger.WithRun(run.ID).Errorf("Failed to persist refresh run: %v", err)
	}
}
