package websocket

import (
	"context"

	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

// EventBridge forwards event bus traffic to WebSocket clients.
type EventBridge struct {
	hub        *Hub
	eventsChan <-chan *models.Event
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewEventBridge(hub *Hub, eventsChan <-chan *models.Event) *EventBridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventBridge{
		hub:        hub,
		eventsChan: eventsChan,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

func (b *EventBridge) Start() {
	go b.run()
	logger.Info("WebSocket event bridge started")
}

func (b *EventBridge) Stop() {
	b.cancel()
	<-b.done
	logger.Info("WebSocket event bridge stopped")
}

func (b *EventBridge) run() {
	defer close(b.done)
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.eventsChan:
			if !ok {
				logger.Info("Event channel closed, stopping bridge")
				return
			}
			if msg := toMessage(event); msg != nil {
				b.hub.Broadcast(event.District, msg.JSON())
			}
		}
	}
}

func toMessage(event *models.Event) *OutgoingMessage {
	msgType := mapEventType(event.Type)
	if msgType == "" {
		return nil
	}

	return &OutgoingMessage{
		Type:      msgType,
		District:  event.District,
		RunID:     event.RunID,
		Severity:  string(event.Severity),
		Message:   event.Message,
		Timestamp: event.Timestamp,
		Data:      event.Data,
	}
}

func mapEventType(eventType models.EventType) MessageType {
	switch eventType {
	case models.EventTypeRefreshStarted:
		return MessageTypeRefreshStarted
	case models.EventTypeRefreshCompleted:
		return MessageTypeRefreshCompleted
	case models.EventTypeRefreshFailed:
		return MessageTypeRefreshFailed
	case models.EventTypeForecastStored:
		return MessageTypeForecastStored
	case models.EventTypeForecastFailed:
		return MessageTypeForecastFailed
	case models.EventTypeStoreUnavailable:
		return MessageTypeAlert
	default:
		return ""
	}
}
