package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrSendQueueFull is returned when a connection's outbound queue is full.
// The event is dropped for that connection only.
var ErrSendQueueFull = errors.New("send queue full")

// Envelope is the wire frame for every server-to-client event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// wsClient adapts a websocket connection to the hub's Sender contract. All
// writes go through a buffered queue drained by a single writer goroutine,
// which also owns ping frames; Send never blocks on the network.
type wsClient struct {
	conn         *websocket.Conn
	send         chan []byte
	closeOnce    sync.Once
	done         chan struct{}
	writeTimeout time.Duration
	pingInterval time.Duration
	logger       *zap.Logger
}

func newWSClient(conn *websocket.Conn, queueSize int, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *wsClient {
	c := &wsClient{
		conn:         conn,
		send:         make(chan []byte, queueSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		logger:       logger,
	}
	go c.writeLoop()
	return c
}

func (c *wsClient) Send(event string, payload interface{}) error {
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errors.New("connection closed")
	default:
		return ErrSendQueueFull
	}
}

func (c *wsClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write failed", zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
