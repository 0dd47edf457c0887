// Package server exposes a session over HTTP and websockets so a browser or
// speech front end can submit transcripts and forms and watch the ledger.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/nathoo/monovoice/engine/events"
	"github.com/nathoo/monovoice/engine/parser"
	"github.com/nathoo/monovoice/session"
	"github.com/nathoo/monovoice/types"
)

// Options configures a Server.
type Options struct {
	Origins []string // allowed CORS and websocket origins; "*" allows any
	Log     logrus.FieldLogger
}

// Server routes HTTP and websocket traffic to a session.
type Server struct {
	sess *session.Session
	hub  *Hub
	log  logrus.FieldLogger
}

// New creates a server and subscribes its hub to the session's events.
func New(sess *session.Session, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	origins := opts.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{sess: sess, log: log.WithField("component", "server")}
	s.hub = newHub(s, origins)

	sess.On(events.Wildcard, func(e types.Event) {
		s.hub.Broadcast(Msg{T: msgEvent, M: map[string]any{"type": e.Type, "data": e.Data}})
	})
	return s
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/command", s.handleCommand)
	mux.HandleFunc("POST /api/form", s.handleForm)
	mux.HandleFunc("POST /api/players", s.handleAddPlayer)
	mux.HandleFunc("GET /api/ledger", s.handleLedger)
	mux.HandleFunc("GET /ws", s.hub.ServeWS)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.hub.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.WithField("addr", addr).Info("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// commandResult is the JSON shape of a command outcome.
type commandResult struct {
	Intent  types.Intent `json:"intent"`
	OK      bool         `json:"ok"`
	Message string       `json:"message"`
	Warning string       `json:"warning,omitempty"` // autosave failure
}

// LedgerView is the JSON shape of the ledger.
type LedgerView struct {
	Players      []types.Player      `json:"players"`
	Properties   []types.Property    `json:"properties"`
	Transactions []types.Transaction `json:"transactions"`
}

func (s *Server) ledgerView() LedgerView {
	l := s.sess.Ledger()
	return LedgerView{Players: l.Players, Properties: l.Properties, Transactions: l.Transactions}
}

func (s *Server) execute(ctx context.Context, text string) commandResult {
	r, err := s.sess.Execute(ctx, text)
	return s.finish(r, err)
}

func (s *Server) submit(ctx context.Context, f parser.Form) commandResult {
	r, err := s.sess.Submit(ctx, f)
	return s.finish(r, err)
}

func (s *Server) finish(r types.Result, err error) commandResult {
	out := commandResult{Intent: r.Intent, OK: r.OK, Message: r.Message}
	if err != nil {
		out.Warning = "Game state could not be saved: " + err.Error()
	}
	if r.OK {
		s.hub.Broadcast(Msg{T: msgLedger, M: map[string]any{"ledger": s.ledgerView()}})
	}
	return out
}

func (s *Server) addPlayer(ctx context.Context, name, token string) (types.Player, error) {
	p, err := s.sess.AddPlayer(ctx, name, token)
	if err != nil && p.ID == "" {
		return types.Player{}, err
	}
	if err != nil {
		s.log.WithError(err).Warn("player added but not saved")
	}
	s.hub.Broadcast(Msg{T: msgLedger, M: map[string]any{"ledger": s.ledgerView()}})
	return p, nil
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.execute(r.Context(), req.Text))
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	var f parser.Form
	if !decode(w, r, &f) {
		return
	}
	writeJSON(w, http.StatusOK, s.submit(r.Context(), f))
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Token string `json:"token"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := s.addPlayer(r.Context(), req.Name, req.Token)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledgerView())
}

const maxBody = 64 << 10

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
