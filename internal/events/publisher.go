package events

import (
	"fmt"

	"github.com/OldStager01/crop-advisor/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p == nil || p.bus == nil {
		return
	}
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) RefreshStarted(run *models.RefreshRun) {
	msg := fmt.Sprintf("Forecast refresh started: %d targets", run.Targets)
	event := models.NewEvent(models.EventTypeRefreshStarted, msg).
		WithRun(run.ID).
		WithData(*run)
	p.publish(event)
}

func (p *Publisher) RefreshCompleted(run *models.RefreshRun) {
	msg := fmt.Sprintf("Forecast refresh completed: %d stored, %d skipped, %d failed",
		run.Succeeded, run.Skipped, run.Failed)
	event := models.NewEvent(models.EventTypeRefreshCompleted, msg).
		WithRun(run.ID).
		WithData(*run)

	if run.Failed > 0 {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) RefreshFailed(run *models.RefreshRun, err error) {
	event := models.NewEvent(models.EventTypeRefreshFailed, "Forecast refresh failed: "+err.Error()).
		WithSeverity(models.SeverityCritical).
		WithRun(run.ID).
		WithData(*run)
	p.publish(event)
}

func (p *Publisher) ForecastStored(runID string, f *models.StoredForecast, district string) {
	event := models.NewEvent(models.EventTypeForecastStored, "Forecast stored: "+f.Key).
		WithRun(runID).
		WithDistrict(district).
		WithData(map[string]interface{}{
			"key":    f.Key,
			"kind":   f.Kind,
			"values": len(f.Values),
		})
	p.publish(event)
}

func (p *Publisher) ForecastFailed(runID, key, district string, err error) {
	event := models.NewEvent(models.EventTypeForecastFailed, "Forecast failed: "+key).
		WithSeverity(models.SeverityWarning).
		WithRun(runID).
		WithDistrict(district).
		WithData(map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	p.publish(event)
}

func (p *Publisher) StoreUnavailable(err error) {
	event := models.NewEvent(models.EventTypeStoreUnavailable, "Forecast store unavailable").
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
