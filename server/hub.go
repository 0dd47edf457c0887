package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"

	"github.com/nathoo/monovoice/engine/parser"
)

// Msg is the websocket envelope in both directions.
type Msg struct {
	T string         `json:"t"`           // type
	M map[string]any `json:"m,omitempty"` // payload
}

// Inbound message types.
const (
	msgCommand   = "command"    // m.text
	msgForm      = "form"       // m.player, m.action, m.amount, m.position, m.target, m.property
	msgAddPlayer = "add_player" // m.name, m.token
	msgLedger    = "ledger"     // request a snapshot
	msgPong      = "pong"
)

// Outbound message types.
const (
	msgHello  = "hello"
	msgResult = "result"
	msgEvent  = "event"
	msgError  = "error"
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks websocket clients and fans messages out to them.
type Hub struct {
	srv       *Server
	origins   []string
	mu        sync.RWMutex
	clients   map[*client]struct{}
	broadcast chan []byte
}

func newHub(srv *Server, origins []string) *Hub {
	return &Hub{
		srv:       srv,
		origins:   origins,
		clients:   map[*client]struct{}{},
		broadcast: make(chan []byte, 256),
	}
}

// Run fans out broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues msg for every client. It never blocks; messages are
// dropped when the queue is full.
func (h *Hub) Broadcast(msg Msg) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.srv.log.WithError(err).Error("encode broadcast")
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.srv.log.Warn("broadcast queue full, dropping message")
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and serves one client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: h.origins}
	for _, o := range h.origins {
		if o == "*" {
			opts.InsecureSkipVerify = true
		}
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.srv.log.WithError(err).Warn("websocket accept failed")
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, 64)}
	log := h.srv.log.WithField("client", c.id)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Info("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// writer
	done := make(chan struct{})
	go func() {
		defer close(done)
		ping := time.NewTicker(15 * time.Second)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-c.send:
				if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
					cancel()
					return
				}
			case <-ping.C:
				if err := conn.Ping(ctx); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	h.sendTo(c, Msg{T: msgHello, M: map[string]any{
		"id":     c.id,
		"ledger": h.srv.ledgerView(),
	}})

	// reader
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var m Msg
		if err := json.Unmarshal(data, &m); err != nil {
			h.sendTo(c, errorMsg("malformed message"))
			continue
		}
		h.handle(ctx, c, log, m)
	}

	cancel()
	<-done
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	log.Info("client disconnected")
}

func (h *Hub) handle(ctx context.Context, c *client, log logrus.FieldLogger, m Msg) {
	switch m.T {
	case msgCommand:
		text, _ := m.M["text"].(string)
		log.WithField("text", text).Debug("websocket command")
		h.sendTo(c, resultMsg(h.srv.execute(ctx, text)))

	case msgForm:
		f := parser.Form{
			Player:   str(m.M["player"]),
			Action:   str(m.M["action"]),
			Amount:   str(m.M["amount"]),
			Position: str(m.M["position"]),
			Target:   str(m.M["target"]),
			Property: str(m.M["property"]),
		}
		h.sendTo(c, resultMsg(h.srv.submit(ctx, f)))

	case msgAddPlayer:
		name, _ := m.M["name"].(string)
		token, _ := m.M["token"].(string)
		p, err := h.srv.addPlayer(ctx, name, token)
		if err != nil {
			h.sendTo(c, errorMsg(err.Error()))
			return
		}
		h.sendTo(c, Msg{T: msgAddPlayer, M: map[string]any{"player": p}})

	case msgLedger:
		h.sendTo(c, Msg{T: msgLedger, M: map[string]any{"ledger": h.srv.ledgerView()}})

	case msgPong:
		// ignore

	default:
		h.sendTo(c, errorMsg("unknown message type "+m.T))
	}
}

func (h *Hub) sendTo(c *client, msg Msg) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func resultMsg(r commandResult) Msg {
	return Msg{T: msgResult, M: map[string]any{
		"intent":  r.Intent,
		"ok":      r.OK,
		"message": r.Message,
		"warning": r.Warning,
	}}
}

func errorMsg(text string) Msg {
	return Msg{T: msgError, M: map[string]any{"message": text}}
}

// str accepts strings and JSON numbers from loosely typed clients.
func str(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		b, _ := json.Marshal(x)
		return string(b)
	}
	return ""
}
