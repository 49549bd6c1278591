// Package wsbridge hosts composition sessions for non-browser embedders
// over WebSocket. Each connection owns one session on an in-memory input;
// the embedder injects keys and mirrors the input from the state replies.
package wsbridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"kimeweb/internal/composer"
	"kimeweb/internal/config"
	"kimeweb/internal/ime"
	"kimeweb/internal/keycode"
	"kimeweb/internal/logging"
	"kimeweb/internal/metrics"
	"kimeweb/internal/surface"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256

	// maxMessageSize bounds one client frame, value messages included.
	maxMessageSize = 64 * 1024
)

// ConfigSource returns the configuration for a new connection.
type ConfigSource func() *config.Config

// Server accepts WebSocket connections and runs one session per connection.
type Server struct {
	configs  ConfigSource
	log      *logging.Logger
	upgrader websocket.Upgrader
	registry *metrics.Registry
	stats    *metrics.Bridge

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id      string
	conn    *websocket.Conn
	send    chan Reply
	input   *surface.Input
	session *ime.Session
	log     *logging.Logger
	server  *Server
	closed  sync.Once
}

// NewServer creates a bridge. originAllowed validates the Origin header of
// browser upgrade requests; requests without Origin are accepted.
func NewServer(configs ConfigSource, log *logging.Logger, originAllowed func(string) bool) *Server {
	if log == nil {
		log = logging.Default()
	}
	registry := metrics.NewRegistry("kime")
	return &Server{
		configs:  configs,
		log:      log.WithComponent("wsbridge"),
		clients:  make(map[string]*client),
		registry: registry,
		stats:    metrics.NewBridge(registry),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return originAllowed != nil && originAllowed(origin)
			},
		},
	}
}

// Registry returns the registry holding the bridge metrics.
func (s *Server) Registry() *metrics.Registry {
	return s.registry
}

// Metrics returns the bridge metrics.
func (s *Server) Metrics() *metrics.Bridge {
	return s.stats
}

// ClientCount returns the number of live connections.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "error", err)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan Reply, sendBuffer),
		input:  surface.NewInput(""),
		server: s,
	}
	c.log = s.log.WithConn(c.id)

	c.enqueue(Reply{Type: TypeReady, SessionID: c.id})
	c.input.AddEventListener(ime.CategoryChangeEvent, func(ev surface.Event) {
		if ce, ok := ev.(surface.CustomEvent); ok {
			c.enqueue(Reply{Type: TypeCategory, SessionID: c.id, Category: ce.Detail})
		}
	})

	// Sessions never share config maps with the source or each other.
	session, err := ime.InstallConfig(s.configs().Clone(), c.input, ime.WithLogger(c.log.Logger))
	if err != nil {
		c.log.Warn("install failed", "error", err)
		s.stats.InstallFailures.Inc()
		c.enqueue(Reply{Type: TypeError, Error: err.Error()})
		close(c.send)
		c.writePump()
		return
	}
	c.session = session

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.stats.SessionsOpened.Inc()
	s.stats.SessionsActive.Inc()
	c.log.Info("connection opened", "remote", r.RemoteAddr)

	go c.writePump()
	go c.readPump()
}

// Close drops every connection.
func (s *Server) Close() {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	s.stats.SessionsActive.Dec()
}

// enqueue never blocks; a client that does not drain its replies loses
// them.
func (c *client) enqueue(r Reply) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	select {
	case c.send <- r:
	default:
		c.log.Warn("send buffer full, dropping reply", "type", r.Type)
	}
}

func (c *client) readPump() {
	defer c.shutdown()
	defer logging.Recover(c.log.Logger, "wsbridge read", "conn", c.id)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read failed", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.server.stats.BadMessages.Inc()
			c.enqueue(Reply{Type: TypeError, Error: fmt.Sprintf("invalid message: %v", err)})
			continue
		}
		c.handle(req)
	}
}

func (c *client) handle(req Request) {
	var consumed bool
	switch req.Type {
	case TypeKey:
		start := time.Now()
		consumed = c.session.InjectKey(req.Code, keycode.Mask(req.Mask))
		c.server.stats.KeyLatency.Since(start)
		c.server.stats.KeysInjected.Inc()
		if consumed {
			c.server.stats.KeysConsumed.Inc()
		}
	case TypeStop:
		if err := c.session.StopComposite(); err != nil {
			c.fail(err)
			return
		}
	case TypeSelect:
		if err := c.input.SetSelectionRange(req.Start, req.End); err != nil {
			c.fail(err)
			return
		}
	case TypeValue:
		// The embedder edited the text itself; any composition is stale.
		c.session.StopComposite()
		c.input.SetValue(req.Value)
	case TypeCategory:
		cat, ok := composer.ParseCategory(req.Category)
		if !ok {
			c.fail(fmt.Errorf("unknown category %q", req.Category))
			return
		}
		if err := c.session.SetCategory(cat); err != nil {
			c.fail(err)
			return
		}
	case TypeState:
	default:
		c.server.stats.BadMessages.Inc()
		c.fail(fmt.Errorf("unknown message type %q", req.Type))
		return
	}
	c.enqueue(c.state(consumed))
}

func (c *client) state(consumed bool) Reply {
	start, end, _ := c.input.SelectionRange()
	category, _ := c.session.Category()
	return Reply{
		Type:      TypeState,
		SessionID: c.id,
		Value:     c.input.Value(),
		Start:     start,
		End:       end,
		Preedit:   c.session.Preedit(),
		Consumed:  consumed,
		Category:  category.String(),
	}
}

func (c *client) fail(err error) {
	c.enqueue(Reply{Type: TypeError, SessionID: c.id, Error: err.Error()})
}

func (c *client) shutdown() {
	c.closed.Do(func() {
		c.server.remove(c)
		c.session.Close()
		close(c.send)
		c.log.Info("connection closed")
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case reply, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(reply); err != nil {
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
