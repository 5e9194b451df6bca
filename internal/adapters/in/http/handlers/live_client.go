// internal/adapters/in/http/handlers/live_client.go
package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"optivista/internal/application/auth"
	"optivista/internal/application/errorbus"
	"optivista/internal/application/live"
	"optivista/internal/domain/catalog"
)

type clientMessage struct {
	Type     string `json:"type"`
	Token    string `json:"token,omitempty"`
	Stream   string `json:"stream,omitempty"`
	Category string `json:"category,omitempty"`
}

type serverMessage struct {
	Type    string                    `json:"type"`
	Stream  string                    `json:"stream,omitempty"`
	Result  any                       `json:"result,omitempty"`
	Error   *errorbus.PermissionError `json:"error,omitempty"`
	Message string                    `json:"message,omitempty"`
}

// liveClient is one WebSocket connection and the subscriptions it drives.
//
// Subscription callbacks run on store goroutines and may fire while a
// transition is in progress, so everything they do is a non-blocking
// enqueue onto send.
type liveClient struct {
	h    *LiveHandler
	conn *websocket.Conn
	log  *zap.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu serializes stream transitions.
	mu      sync.Mutex
	streams []*liveStream
	authSeq atomic.Uint64
}

func newLiveClient(h *LiveHandler, conn *websocket.Conn) *liveClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &liveClient{
		h:      h,
		conn:   conn,
		log:    h.log,
		send:   make(chan []byte, liveSendBuffer),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// run owns the connection until the peer goes away.
func (c *liveClient) run(names []string, cat catalog.Category, token string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.writePump()
	}()

	initial := live.SignedOut()
	if token != "" {
		initial = live.Resolving()
	}

	c.mu.Lock()
	streams := make([]*liveStream, 0, len(names))
	for _, name := range names {
		streams = append(streams, c.openStream(name, cat, initial))
	}
	c.streams = streams
	c.mu.Unlock()

	off := c.h.deps.Bus.On(errorbus.TopicPermissionError, c.forwardPermissionError)

	if token != "" {
		c.authenticate(token)
	}

	c.readPump()

	off()
	c.close()
	c.cancel()
	c.mu.Lock()
	for _, s := range c.streams {
		s.close()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *liveClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *liveClient) enqueue(msg serverMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("live message marshal failed", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case <-c.done:
	case c.send <- b:
	default:
		c.log.Warn("live send buffer full, dropping client")
		c.close()
	}
}

func (c *liveClient) sendResult(stream string, result any) {
	c.enqueue(serverMessage{Type: "result", Stream: stream, Result: result})
}

func (c *liveClient) sendError(stream, message string) {
	c.enqueue(serverMessage{Type: "error", Stream: stream, Message: message})
}

// forwardPermissionError relays a bus error to the stream whose own feed
// raised it. Errors from other connections and from writes never reach this
// client.
func (c *liveClient) forwardPermissionError(e *errorbus.PermissionError) {
	// streams is fixed once run has opened them.
	for _, s := range c.streams {
		if s.forwards(e) {
			c.enqueue(serverMessage{Type: "permission-error", Stream: s.name, Error: e.Redacted()})
			return
		}
	}
}

func (c *liveClient) writePump() {
	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(liveWriteWait))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("live write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				c.log.Debug("live ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *liveClient) readPump() {
	c.conn.SetReadLimit(liveReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("live read failed", zap.Error(err))
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("", "invalid message")
			continue
		}
		c.handle(msg)
	}
}

func (c *liveClient) handle(msg clientMessage) {
	switch msg.Type {
	case "auth":
		c.authenticate(msg.Token)
	case "refetch":
		c.mu.Lock()
		for _, s := range c.streams {
			if msg.Stream == "" || msg.Stream == s.name {
				s.refetch()
			}
		}
		c.mu.Unlock()
	case "filter":
		cat, err := parseCategory(msg.Category)
		if err != nil {
			c.sendError(StreamImages, err.Error())
			return
		}
		c.mu.Lock()
		for _, s := range c.streams {
			if s.filter != nil {
				s.filter(cat)
			}
		}
		c.mu.Unlock()
	default:
		c.sendError("", "unknown message type "+msg.Type)
	}
}

// authenticate switches every stream to the identity behind token. An empty
// token signs out. Verification runs off the read loop; a result that
// arrives after a newer auth message is dropped.
func (c *liveClient) authenticate(token string) {
	seq := c.authSeq.Add(1)

	if token == "" {
		c.applyAuth(seq, nil)
		return
	}

	c.mu.Lock()
	for _, s := range c.streams {
		s.setAuth(nil, true)
	}
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if c.h.verifier == nil {
			c.sendError("", "authentication is not available")
			c.applyAuth(seq, nil)
			return
		}
		id, err := c.h.verifier.Verify(c.ctx, token)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Debug("live token rejected", zap.Error(err))
			c.sendError("", "invalid token")
			id = nil
		}
		c.applyAuth(seq, id)
	}()
}

func (c *liveClient) applyAuth(seq uint64, id *auth.Identity) {
	admin := false
	if id != nil && c.needsAdmin() {
		admin = c.checkAdmin(id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authSeq.Load() != seq || c.ctx.Err() != nil {
		return
	}
	for _, s := range c.streams {
		if s.admin {
			s.granted.Store(id != nil && admin)
			if id != nil && !admin {
				c.sendError(s.name, "forbidden: admin only")
				s.setAuth(nil, false)
				continue
			}
		}
		s.setAuth(id, false)
	}
}

func (c *liveClient) needsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.streams {
		if s.admin {
			return true
		}
	}
	return false
}

func (c *liveClient) checkAdmin(id *auth.Identity) bool {
	if c.h.admins == nil {
		return false
	}
	ok, err := c.h.admins.IsAdmin(c.ctx, id.UID)
	if err != nil {
		c.log.Warn("admin lookup failed", zap.String("uid", id.UID), zap.Error(err))
		return false
	}
	return ok
}
