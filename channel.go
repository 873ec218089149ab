package pilotdash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var ErrChannelClosed = errors.New("channel closed")

// Channel is a publish/subscribe connection to the vehicle. Callbacks run
// inside the scope's Apply, so they may mutate view state directly but must
// not call Scope.Read or Scope.Apply themselves.
//
// There is no reconnect: once the connection drops, Done is closed and Emit
// fails.
type Channel struct {
	conn  *websocket.Conn
	scope *Scope

	wmu sync.Mutex

	mu       sync.Mutex
	handlers map[string][]func(json.RawMessage)
	acks     map[uint64]func(json.RawMessage)
	closed   bool
	err      error

	ids  atomic.Uint64
	done chan struct{}
}

// Dial connects to a channel endpoint, e.g. ws://vehicle:8080/socket.
func Dial(ctx context.Context, url string, scope *Scope) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not connect to channel: %w", err)
	}
	c := &Channel{
		conn:     conn,
		scope:    scope,
		handlers: map[string][]func(json.RawMessage){},
		acks:     map[uint64]func(json.RawMessage){},
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// On subscribes callback to every message named event.
func (c *Channel) On(event string, callback func(data json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], callback)
}

// Emit sends data under event. If ack is not nil, it is called with the
// peer's reply once the peer acknowledges the message.
func (c *Channel) Emit(event string, data any, ack func(reply json.RawMessage)) error {
	var id uint64
	if ack != nil {
		id = c.ids.Add(1)
	}
	frame, err := NewFrame(event, data, id)
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", event, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if ack != nil {
		c.acks[id] = ack
	}
	c.mu.Unlock()

	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.mu.Lock()
		delete(c.acks, id)
		c.mu.Unlock()
		return fmt.Errorf("could not emit %s: %w", event, err)
	}
	return nil
}

// Done is closed when the connection is gone.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, if it did.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Channel) Close() error {
	c.wmu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)
	c.wmu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Channel) readLoop() {
	defer close(c.done)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.closed = true
			c.err = err
			c.acks = map[uint64]func(json.RawMessage){}
			c.mu.Unlock()
			_ = c.conn.Close()
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("channel read failed", "err", err)
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(msg, &frame); err != nil {
			log.Warn("ignoring invalid frame", "err", err)
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Channel) dispatch(frame Frame) {
	if frame.IsAck() {
		c.mu.Lock()
		ack, ok := c.acks[frame.Ack]
		delete(c.acks, frame.Ack)
		c.mu.Unlock()
		if !ok {
			log.Debug("ack for unknown message", "id", frame.Ack)
			return
		}
		c.scope.Apply(func() { ack(frame.Data) })
		return
	}

	c.mu.Lock()
	handlers := c.handlers[frame.Event]
	c.mu.Unlock()
	if len(handlers) == 0 {
		log.Debug("no subscribers", "event", frame.Event)
		return
	}
	for _, h := range handlers {
		c.scope.Apply(func() { h(frame.Data) })
	}
}
