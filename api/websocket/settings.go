package websocket

import (
	"time"

	"github.com/OldStager01/crop-advisor/pkg/config"
)

type Settings struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	BroadcastBuffer int
	ClientBuffer    int
}

func DefaultSettings() Settings {
	return Settings{
		WriteWait:       10 * time.Second,
		PongWait:        60 * time.Second,
		PingPeriod:      54 * time.Second,
		MaxMessageSize:  512,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		BroadcastBuffer: defaultBroadcastBuffer,
		ClientBuffer:    256,
	}
}

// NewSettings overlays the non-zero values of cfg on DefaultSettings.
func NewSettings(cfg *config.WebSocketConfig) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.WriteTimeout > 0 {
		s.WriteWait = cfg.WriteTimeout
	}
	if cfg.PongTimeout > 0 {
		s.PongWait = cfg.PongTimeout
		s.PingPeriod = cfg.PongTimeout * 9 / 10
	}
	if cfg.PingInterval > 0 && cfg.PingInterval < s.PongWait {
		s.PingPeriod = cfg.PingInterval
	}
	if cfg.MaxMessageSize > 0 {
		s.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.ReadBufferSize > 0 {
		s.ReadBufferSize = cfg.ReadBufferSize
	}
	if cfg.WriteBufferSize > 0 {
		s.WriteBufferSize = cfg.WriteBufferSize
	}
	if cfg.BroadcastBuffer > 0 {
		s.BroadcastBuffer = cfg.BroadcastBuffer
	}
	if cfg.ClientBuffer > 0 {
		s.ClientBuffer = cfg.ClientBuffer
	}
	return s
}
