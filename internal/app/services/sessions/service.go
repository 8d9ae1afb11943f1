// Package sessions holds server-side dashboard edit sessions. A session
// wraps an editor over a working copy of the user's layout; the stored
// layout only changes when the session is saved.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storeadmin/blocklayer/internal/app/domain/block"
	"github.com/storeadmin/blocklayer/internal/app/editor"
	"github.com/storeadmin/blocklayer/internal/app/registry"
	"github.com/storeadmin/blocklayer/internal/app/services/layouts"
	"github.com/storeadmin/blocklayer/pkg/logger"
)

// DefaultTTL is how long an idle session survives before Start or Apply may
// reap it.
const DefaultTTL = 30 * time.Minute

// ErrNotFound marks a session id with no live session behind it, whether it
// never existed, expired, or was already closed.
var ErrNotFound = errors.New("session not found")

// Action operation names accepted by Apply.
const (
	OpAdd            = "add"
	OpMoveUp         = "move_up"
	OpMoveDown       = "move_down"
	OpDelete         = "delete"
	OpSelect         = "select"
	OpDeselect       = "deselect"
	OpUpdateSettings = "update_settings"
	OpUpdateData     = "update_data"
	OpApplyRaw       = "apply_raw"
)

// Action is one edit applied to a session.
type Action struct {
	Op         string          `json:"op"`
	Column     string          `json:"column,omitempty"`
	AfterIndex *int            `json:"afterIndex,omitempty"`
	BlockID    string          `json:"blockId,omitempty"`
	BlockType  string          `json:"blockType,omitempty"`
	Settings   map[string]any  `json:"settings,omitempty"`
	Data       map[string]any  `json:"data,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// State is the session view returned to the caller after Start and every
// Apply.
type State struct {
	SessionID  string                `json:"sessionId"`
	UserID     string                `json:"userId"`
	Layout     block.DashboardLayout `json:"layout"`
	SelectedID string                `json:"selectedId,omitempty"`
	Dirty      bool                  `json:"dirty"`
}

type session struct {
	id       string
	userID   string
	editor   *editor.Editor
	current  block.DashboardLayout
	dirty    bool
	lastUsed time.Time
}

// Service manages dashboard edit sessions.
type Service struct {
	mu       sync.Mutex
	layouts  *layouts.Service
	registry *registry.Registry
	ttl      time.Duration
	sessions map[string]*session
	log      *logger.Logger
}

// New constructs the session service over the layout service and the
// dashboard registry.
func New(layoutSvc *layouts.Service, reg *registry.Registry, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sessions")
	}
	return &Service{
		layouts:  layoutSvc,
		registry: reg,
		ttl:      DefaultTTL,
		sessions: make(map[string]*session),
		log:      log,
	}
}

// Start opens a new edit session over the user's current layout.
func (s *Service) Start(ctx context.Context, userID string) (State, error) {
	layout, err := s.layouts.Get(ctx, userID)
	if err != nil {
		return State{}, err
	}

	sess := &session{
		id:       uuid.NewString(),
		userID:   userID,
		current:  layout,
		lastUsed: time.Now(),
	}
	sess.editor = editor.NewDashboard(layout, func(updated block.DashboardLayout) {
		sess.current = updated
		sess.dirty = true
	})

	s.mu.Lock()
	s.reapLocked()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.WithField("session_id", sess.id).WithField("user_id", userID).Info("edit session started")
	return s.stateOf(sess), nil
}

// Apply runs one editor action against a session and returns the updated
// state.
func (s *Service) Apply(ctx context.Context, sessionID string, action Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return State{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	sess.lastUsed = time.Now()

	if err := s.applyLocked(sess, action); err != nil {
		return State{}, err
	}
	return s.stateOf(sess), nil
}

func (s *Service) applyLocked(sess *session, action Action) error {
	ed := sess.editor
	switch action.Op {
	case OpAdd:
		def, ok := s.registry.Definition(action.BlockType)
		if !ok {
			return fmt.Errorf("unknown block type %q", action.BlockType)
		}
		column := action.Column
		if column == "" {
			column = editor.ColumnLeft
		}
		afterIndex := -1
		if action.AfterIndex != nil {
			afterIndex = *action.AfterIndex
		}
		_, err := ed.AddBlock(column, afterIndex, def)
		return err
	case OpMoveUp:
		ed.MoveUp(action.BlockID)
		return nil
	case OpMoveDown:
		ed.MoveDown(action.BlockID)
		return nil
	case OpDelete:
		ed.Delete(action.BlockID)
		return nil
	case OpSelect:
		if !ed.Select(action.BlockID) {
			return fmt.Errorf("block %s not found", action.BlockID)
		}
		return nil
	case OpDeselect:
		ed.Deselect()
		return nil
	case OpUpdateSettings:
		return ed.UpdateSettings(action.BlockID, action.Settings)
	case OpUpdateData:
		return ed.UpdateData(action.BlockID, action.Data)
	case OpApplyRaw:
		return ed.ApplyRaw(action.BlockID, action.Raw)
	default:
		return fmt.Errorf("unknown action %q", action.Op)
	}
}

// Save persists the session's working layout and closes the session. On a
// store failure the session stays open with its edits intact, so the caller
// can retry or discard.
func (s *Service) Save(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if ok {
		sess.lastUsed = time.Now()
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err := s.layouts.Save(ctx, sess.userID, sess.current); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.log.WithField("session_id", sessionID).WithField("user_id", sess.userID).Info("edit session saved")
	return nil
}

// Discard drops a session without saving. Unknown ids are a no-op.
func (s *Service) Discard(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Get returns the current state of a session.
func (s *Service) Get(sessionID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return State{}, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return s.stateOf(sess), nil
}

func (s *Service) stateOf(sess *session) State {
	return State{
		SessionID:  sess.id,
		UserID:     sess.userID,
		Layout:     sess.current.Clone(),
		SelectedID: sess.editor.SelectedID(),
		Dirty:      sess.dirty,
	}
}

// Reap drops sessions idle past the TTL and returns how many remain.
func (s *Service) Reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reapLocked()
	return len(s.sessions)
}

// reapLocked drops sessions idle past the TTL.
func (s *Service) reapLocked() {
	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			s.log.WithField("session_id", id).Debug("expired edit session reaped")
		}
	}
}
