package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	MessageTypeRefreshStarted   MessageType = "refresh_started"
	MessageTypeRefreshCompleted MessageType = "refresh_completed"
	MessageTypeRefreshFailed    MessageType = "refresh_failed"
	MessageTypeForecastStored   MessageType = "forecast_stored"
	MessageTypeForecastFailed   MessageType = "forecast_failed"
	MessageTypeAlert            MessageType = "alert"
	MessageTypeSubscription     MessageType = "subscription_update"
)

type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	District  string      `json:"district,omitempty"`
	RunID     string      `json:"run_id,omitempty"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

func NewMessage(msgType MessageType, district string, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      msgType,
		District:  district,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func (m *OutgoingMessage) JSON() []byte {
	data, _ := json.Marshal(m)
	return data
}

type SubscriptionData struct {
	Action string `json:"action"`
}
