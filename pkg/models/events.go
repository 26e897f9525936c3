package models

import "time"

type EventType string

const (
	EventTypeRefreshStarted   EventType = "forecast_refresh_started"
	EventTypeRefreshCompleted EventType = "forecast_refresh_completed"
	EventTypeRefreshFailed    EventType = "forecast_refresh_failed"
	EventTypeForecastStored   EventType = "forecast_stored"
	EventTypeForecastFailed   EventType = "forecast_entry_failed"
	EventTypeStoreUnavailable EventType = "forecast_store_unavailable"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	District  string        `json:"district,omitempty"`
	RunID     string        `json:"run_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithDistrict(district string) *Event {
	e.District = district
	return e
}

func (e *Event) WithRun(runID string) *Event {
	e.RunID = runID
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}
