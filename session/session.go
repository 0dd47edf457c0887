// Package session binds an engine to a snapshot store. It is the single
// writer in front of the engine: every front end (CLI, TUI, server) goes
// through a Session, which serialises calls and persists the ledger after
// each mutation.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/monovoice/engine"
	"github.com/nathoo/monovoice/engine/events"
	"github.com/nathoo/monovoice/engine/ledger"
	"github.com/nathoo/monovoice/engine/parser"
	"github.com/nathoo/monovoice/engine/save"
	"github.com/nathoo/monovoice/storage"
	"github.com/nathoo/monovoice/types"
)

// Session owns an engine and persists its ledger under Key.
type Session struct {
	mu     sync.Mutex
	engine *engine.Engine
	store  storage.Store
	key    string
	log    logrus.FieldLogger
}

// New creates a session. An empty key uses storage.DefaultKey; a nil logger
// discards log output.
func New(eng *engine.Engine, store storage.Store, key string, log logrus.FieldLogger) *Session {
	if key == "" {
		key = storage.DefaultKey
	}
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	s := &Session{
		engine: eng,
		store:  store,
		key:    key,
		log:    log.WithField("session", key),
	}
	if eng.Events != nil {
		eng.Events.On(events.Wildcard, func(e types.Event) {
			s.log.WithFields(logrus.Fields(e.Data)).Debug(e.Type)
		})
	}
	return s
}

// Key returns the snapshot key the session autosaves under.
func (s *Session) Key() string { return s.key }

// Board returns the board catalog.
func (s *Session) Board() *types.BoardDef { return s.engine.Board }

// Open restores the autosaved ledger. A missing snapshot leaves the fresh
// ledger in place.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, err := s.restore(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Info("no saved game, starting fresh")
		return nil
	}
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"players":      len(restored.Players),
		"transactions": len(restored.Transactions),
	}).Info("restored saved game")
	return nil
}

// Execute runs one command sentence. The returned error reports a failed
// autosave only; the command result stands either way.
func (s *Session) Execute(ctx context.Context, text string) (types.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.engine.Step(text)
	s.log.WithFields(logrus.Fields{
		"intent": result.Intent,
		"ok":     result.OK,
	}).Debugf("command %q", text)

	if !result.OK {
		return result, nil
	}
	return result, s.persist(ctx, s.key)
}

// Submit renders a structured form as a sentence and executes it.
func (s *Session) Submit(ctx context.Context, f parser.Form) (types.Result, error) {
	text, err := parser.FromForm(f)
	if err != nil {
		return types.Result{Intent: types.IntentUnknown, Message: err.Error()}, nil
	}
	return s.Execute(ctx, text)
}

// AddPlayer adds a player and persists the ledger.
func (s *Session) AddPlayer(ctx context.Context, name, token string) (types.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.engine.AddPlayer(name, token)
	if err != nil {
		return types.Player{}, err
	}
	s.log.WithFields(logrus.Fields{"player": p.ID, "token": p.Token}).Infof("added player %s", p.Name)
	return p, s.persist(ctx, s.key)
}

// Reset discards the current game and autosaves the empty ledger.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Ledger = ledger.New(s.engine.Board)
	s.log.Info("game reset")
	return s.persist(ctx, s.key)
}

// Ledger returns a copy of the current ledger.
func (s *Session) Ledger() *types.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ledger.Clone(s.engine.Ledger)
}

// View runs fn with the live ledger while holding the session lock. fn must
// not retain the ledger or call back into the session.
func (s *Session) View(fn func(l *types.Ledger)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.engine.Ledger)
}

// On subscribes to engine events. Handlers run with the session lock held.
func (s *Session) On(eventType string, h events.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Events.On(eventType, h)
}

// SaveAs writes the current ledger under an extra name.
func (s *Session) SaveAs(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, name)
}

// LoadFrom replaces the ledger with the snapshot saved under name and
// autosaves it as the current game.
func (s *Session) LoadFrom(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.restore(ctx, name); err != nil {
		return err
	}
	return s.persist(ctx, s.key)
}

// restore loads a snapshot into the engine. The caller holds the lock.
func (s *Session) restore(ctx context.Context, key string) (*types.Ledger, error) {
	data, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	sd, err := save.Load(data)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %q: %w", key, err)
	}
	next := ledger.New(nil)
	save.ApplySave(next, sd)
	if err := ledger.Validate(next); err != nil {
		return nil, fmt.Errorf("snapshot %q is inconsistent: %w", key, err)
	}
	s.engine.Ledger = next
	return next, nil
}

// persist saves the ledger under key. The caller holds the lock.
func (s *Session) persist(ctx context.Context, key string) error {
	var title string
	if s.engine.Board != nil {
		title = s.engine.Board.Title
	}
	data, err := save.Save(s.engine.Ledger, title, s.engine.Now())
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.store.Save(ctx, key, data); err != nil {
		s.log.WithError(err).WithField("key", key).Error("autosave failed")
		return fmt.Errorf("saving snapshot %q: %w", key, err)
	}
	return nil
}
