package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alpiant/pos-kasir/internal/job"
	"github.com/alpiant/pos-kasir/internal/printer"
)

// WebSocket message types. Job events reuse the job package names.
const (
	EventCommand        = "command"
	EventResponse       = "response"
	EventError          = "error"
	EventPrinterAdded   = "printer_added"
	EventPrinterRemoved = "printer_removed"
)

const (
	clientBuffer = 64
	writeWait    = 10 * time.Second
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan WSMessage, clientBuffer),
		server: s,
	}
	s.addClient(client)

	s.logger.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go client.writePump()
	go client.readPump()
}

// relay forwards job events to every client until the subscription ends.
func (s *Server) relay(events <-chan job.Event) {
	defer close(s.done)
	for ev := range events {
		s.broadcast(WSMessage{
			Event: ev.Type,
			Data:  map[string]interface{}{"job": ev.Job},
		})
	}

	s.clientsMu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.clientsMu.Unlock()
}

func (s *Server) addClient(c *wsClient) {
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
}

func (s *Server) removeClient(c *wsClient) {
	s.clientsMu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.clientsMu.Unlock()
}

// BroadcastPrinterAdded notifies clients that a destination appeared.
func (s *Server) BroadcastPrinterAdded(d printer.Destination) {
	s.broadcast(WSMessage{
		Event: EventPrinterAdded,
		Data:  map[string]interface{}{"printer": d},
	})
}

// BroadcastPrinterRemoved notifies clients that a destination is gone.
func (s *Server) BroadcastPrinterRemoved(d printer.Destination) {
	s.broadcast(WSMessage{
		Event: EventPrinterRemoved,
		Data:  map[string]interface{}{"printer": d},
	})
}

// broadcast never blocks; a client with a full buffer misses the message.
func (s *Server) broadcast(msg WSMessage) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warn("websocket client too slow, dropping event", zap.String("event", msg.Event))
		}
	}
}

// deliver sends msg to one client if it is still connected.
func (s *Server) deliver(c *wsClient, msg WSMessage) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			c.server.logger.Warn("websocket write error", zap.Error(err))
			c.server.removeClient(c)
			return
		}
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (c *wsClient) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.conn.Close()
		c.server.logger.Info("websocket client disconnected")
	}()

	for {
		var msg WSMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket error", zap.Error(err))
			}
			return
		}

		c.handleMessage(&msg)
	}
}

func (c *wsClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventCommand:
		cmd, _ := msg.Data["command"].(string)
		if cmd == "" {
			c.sendError("command is required")
			return
		}
		result := c.server.executor.Execute(context.Background(), cmd)
		c.server.deliver(c, WSMessage{
			Event: EventResponse,
			Data: map[string]interface{}{
				"success": result.Success,
				"message": result.Message,
				"error":   result.Error,
				"kind":    result.Kind,
				"data":    result.Data,
			},
		})
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

func (c *wsClient) sendError(message string) {
	c.server.deliver(c, WSMessage{
		Event: EventError,
		Data: map[string]interface{}{
			"error": message,
		},
	})
}
