package vehicle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/caarlos0/pilotdash"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var ErrUnknownEvent = errors.New("unknown event")

// EventHandler handles an event sent by a client. When the client asked for
// an acknowledgement, the result (or the error message) is sent back.
type EventHandler func(ctx context.Context, c *Conn, data json.RawMessage) (any, error)

// Conn is a client connected to the hub.
type Conn struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps track of connected clients, dispatches their events and
// broadcasts to all of them.
type Hub struct {
	upgrader websocket.Upgrader

	mu           sync.RWMutex
	clients      map[*Conn]struct{}
	handlers     map[string]EventHandler
	onDisconnect []func(c *Conn)
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients:  map[*Conn]struct{}{},
		handlers: map[string]EventHandler{},
	}
}

func (h *Hub) Handle(event string, fn EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[event] = fn
}

// OnDisconnect registers fn to be called after a client leaves.
func (h *Hub) OnDisconnect(fn func(c *Conn)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDisconnect = append(h.onDisconnect, fn)
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("could not upgrade connection", "err", err)
		return
	}
	c := &Conn{
		ID:   uuid.NewString(),
		hub:  h,
		conn: ws,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Info("client connected", "id", c.ID, "remote", ws.RemoteAddr())

	go c.writePump()
	go c.readPump()
}

// Broadcast sends event to every connected client. Clients that can't keep
// up are dropped.
func (h *Hub) Broadcast(event string, data any) {
	frame, err := pilotdash.NewFrame(event, data, 0)
	if err != nil {
		log.Error("could not encode broadcast", "event", event, "err", err)
		return
	}
	msg, err := json.Marshal(frame)
	if err != nil {
		log.Error("could not encode broadcast", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	var slow []*Conn
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warn("client send buffer full, removing", "id", c.ID)
		h.remove(c)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Conn, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.remove(c)
	}
}

func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	callbacks := h.onDisconnect
	h.mu.Unlock()

	log.Info("client disconnected", "id", c.ID)
	for _, fn := range callbacks {
		fn(c)
	}
}

func (h *Hub) handler(event string) (EventHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.handlers[event]
	return fn, ok
}

// reply sends a message to this client only.
func (c *Conn) reply(frame pilotdash.Frame) {
	msg, err := json.Marshal(frame)
	if err != nil {
		log.Error("could not encode reply", "id", c.ID, "err", err)
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Warn("client send buffer full, dropping reply", "id", c.ID)
	}
}

func (c *Conn) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("client read failed", "id", c.ID, "err", err)
			}
			return
		}
		var frame pilotdash.Frame
		if err := json.Unmarshal(msg, &frame); err != nil {
			log.Warn("ignoring invalid frame", "id", c.ID, "err", err)
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Conn) dispatch(frame pilotdash.Frame) {
	if frame.IsAck() {
		return
	}
	var result any
	fn, ok := c.hub.handler(frame.Event)
	if !ok {
		log.Debug("unknown event", "id", c.ID, "event", frame.Event)
		result = map[string]string{"error": ErrUnknownEvent.Error()}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		res, err := fn(ctx, c, frame.Data)
		cancel()
		if err != nil {
			log.Error("event failed", "id", c.ID, "event", frame.Event, "err", err)
			result = map[string]string{"error": err.Error()}
		} else {
			result = res
		}
	}

	if frame.ID == 0 {
		return
	}
	ack, err := pilotdash.NewAck(frame.ID, result)
	if err != nil {
		log.Error("could not encode ack", "id", c.ID, "event", frame.Event, "err", err)
		return
	}
	c.reply(ack)
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Error("client write failed", "id", c.ID, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
