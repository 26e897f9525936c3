package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/OldStager01/crop-advisor/internal/logger"
)

type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex
	district string
}

// IncomingMessage is what clients send to change their district filter.
type IncomingMessage struct {
	Type     string `json:"type"`
	District string `json:"district,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn, district string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.settings.ClientBuffer),
		district: strings.TrimSpace(district),
	}
}

func (c *Client) District() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.district
}

func (c *Client) setDistrict(district string) {
	c.mu.Lock()
	c.district = strings.TrimSpace(district)
	c.mu.Unlock()
}

// wants reports whether a message about district should reach the client.
func (c *Client) wants(district string) bool {
	filter := c.District()
	return filter == "" || district == "" || strings.EqualFold(filter, district)
}

func (c *Client) ReadPump() {
	settings := c.hub.settings
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(settings.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(settings.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(settings.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	settings := c.hub.settings
	ticker := time.NewTicker(settings.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(settings.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(settings.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		if msg.District != "" {
			c.setDistrict(msg.District)
			logger.WithDistrict(msg.District).Info("WebSocket client subscribed")
			c.sendConfirmation("subscribed", msg.District)
		}
	case "unsubscribe":
		old := c.District()
		c.setDistrict("")
		c.sendConfirmation("unsubscribed", old)
	}
}

func (c *Client) sendConfirmation(action, district string) {
	msg := NewMessage(MessageTypeSubscription, district, SubscriptionData{Action: action})
	if !c.hub.send(c, msg.JSON()) {
		logger.Warn("Client gone or send channel full, dropping confirmation")
	}
}

// ServeWebSocket upgrades the request and attaches the client to hub. The
// optional district query parameter sets the initial filter.
func ServeWebSocket(hub *Hub, checkOrigin func(r *http.Request) bool) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  hub.settings.ReadBufferSize,
		WriteBufferSize: hub.settings.WriteBufferSize,
		CheckOrigin:     checkOrigin,
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, c.Query("district"))
		if !hub.Register(client) {
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
