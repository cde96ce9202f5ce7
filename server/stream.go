package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/aksjeradar/aksjeradar"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
	"github.com/gorilla/websocket"
)

// The quote stream: clients connect over websocket, send one subscribe
// message naming the symbols they care about, and receive a JSON quote every
// time a refresh produces one.

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is cookie-authenticated but the stream itself is public data;
	// cross-origin dashboards may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscribeMessage struct {
	Symbols []string `json:"symbols"` // empty subscribes to everything
}

type streamClient struct {
	conn    *websocket.Conn
	send    chan aksjeradar.Quote
	symbols map[string]struct{} // nil means all
}

func (c *streamClient) wants(symbol string) bool {
	if c.symbols == nil {
		return true
	}
	_, ok := c.symbols[symbol]
	return ok
}

// streamHub tracks connected clients and fans quotes out to them.
type streamHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

func newStreamHub() *streamHub {
	return &streamHub{clients: make(map[*streamClient]struct{})}
}

func (h *streamHub) add(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *streamHub) remove(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast queues a quote for every interested client. A client that cannot
// keep up is dropped rather than blocking the refresh loop.
func (h *streamHub) broadcast(q aksjeradar.Quote) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !c.wants(q.Symbol) {
			continue
		}
		select {
		case c.send <- q:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (s *Server) streamRoutes(srv *fuego.Server) {
	fuego.GetStd(srv, "/stream/quotes", s.handleStream,
		option.Description("Websocket stream of quote updates"),
	)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	client := &streamClient{conn: conn, send: make(chan aksjeradar.Quote, 16)}

	// The first message narrows the subscription; absence of one (or an
	// empty list) means all symbols.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var sub subscribeMessage
	if err := conn.ReadJSON(&sub); err == nil && len(sub.Symbols) > 0 {
		client.symbols = make(map[string]struct{}, len(sub.Symbols))
		for _, raw := range sub.Symbols {
			if symbol, err := aksjeradar.ParseSymbol(raw); err == nil {
				client.symbols[symbol] = struct{}{}
			}
		}
	}
	conn.SetReadDeadline(time.Time{})

	s.stream.add(client)
	go client.readLoop(s.stream)
	client.writeLoop(s.stream)
}

// readLoop drains control frames and detects the peer going away.
func (c *streamClient) readLoop(hub *streamHub) {
	defer hub.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop forwards queued quotes and pings idle connections.
func (c *streamClient) writeLoop(hub *streamHub) {
	ping := time.NewTicker(30 * time.Second)
	defer func() {
		ping.Stop()
		hub.remove(c)
		c.conn.Close()
	}()
	for {
		select {
		case q, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			payload, err := json.Marshal(q)
			if err != nil {
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
