package ws

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Send buffer size per client.
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.]{0,9}$`)

// Client represents a WebSocket subscriber connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	connID     string
	symbols    map[string]bool
	compressed bool // client asked for zstd payload frames
	logger     *zap.Logger
}

// clientMessage is the upstream command format.
type clientMessage struct {
	Action string `json:"action"` // subscribe, unsubscribe, ping
	Symbol string `json:"symbol,omitempty"`
	AckID  uint64 `json:"ack_id,omitempty"`
}

// serverMessage is the downstream control format. Snapshot payloads bypass
// this and are sent as raw frames.
type serverMessage struct {
	Type    string `json:"type"` // connected, ack, pong, error
	ConnID  string `json:"conn_id,omitempty"`
	AckID   uint64 `json:"ack_id,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HandleGammaWS upgrades the connection and starts the read/write pumps.
// Clients subscribe per symbol; ?compress=zstd switches snapshot frames to
// compressed binary.
func (h *Hub) HandleGammaWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		connID:     uuid.New().String(),
		symbols:    make(map[string]bool),
		compressed: r.URL.Query().Get("compress") == "zstd",
		logger:     h.logger,
	}

	h.register <- client

	connected, _ := json.Marshal(serverMessage{Type: "connected", ConnID: client.connID})
	client.send <- connected

	go client.writePump()
	go client.readPump()
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, send close message
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			msgType := websocket.TextMessage
			if c.compressed && isZstdFrame(message) {
				msgType = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(msgType, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming subscriber command.
func (c *Client) handleMessage(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("failed to parse client message",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		c.reply(serverMessage{Type: "error", Error: "invalid message"})
		return
	}

	switch msg.Action {
	case "subscribe":
		if !IsValidSymbol(msg.Symbol) {
			c.logger.Debug("invalid symbol",
				zap.String("connID", c.connID),
				zap.String("symbol", msg.Symbol),
			)
			c.reply(serverMessage{Type: "ack", AckID: msg.AckID, Success: false, Error: "invalid symbol"})
			return
		}
		c.hub.Subscribe(c, msg.Symbol)
		c.reply(serverMessage{Type: "ack", AckID: msg.AckID, Success: true})

	case "unsubscribe":
		c.hub.Unsubscribe(c, msg.Symbol)
		c.reply(serverMessage{Type: "ack", AckID: msg.AckID, Success: true})

	case "ping":
		c.reply(serverMessage{Type: "pong"})

	default:
		c.reply(serverMessage{Type: "error", Error: "unknown action"})
	}
}

func (c *Client) reply(msg serverMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// IsValidSymbol reports whether a subscription target looks like a ticker
// symbol (uppercase, up to 10 characters, e.g. SPY or BRK.B).
func IsValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}
