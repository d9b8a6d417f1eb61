// Package session persists editing sessions so that separate invocations can
// work on the same page.
//
// A [Session] captures everything a [layout.Store] needs to resume: the page
// and the selected instance. Two backends implement [Store]:
//   - [MemoryStore]: in-process storage for the HTTP adapter and tests
//   - [FileStore]: one JSON file per session for the CLI
//
// # Usage
//
//	store, err := session.NewFileStore("") // ~/.config/pagecraft/sessions/
//	sess, err := store.Get(ctx, session.CurrentID)
//	if sess == nil {
//	    // no page yet: run "pagecraft new"
//	}
//	ls, err := sess.Open(reg, logger)
//	ls.AddByType("hero", -1)
//	sess.Capture(ls)
//	store.Set(ctx, sess)
package session

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/registry"
)

// CurrentID is the session the CLI works on.
const CurrentID = "current"

// DefaultTTL is the lifetime of sessions created by the HTTP adapter.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned by adapters when a session id is unknown.
var ErrNotFound = errors.New(errors.ErrCodeSessionNotFound, "session not found")

// Session is a persisted editing session.
type Session struct {
	ID        string       `json:"id"`
	Page      *layout.Page `json:"page"`
	Selected  string       `json:"selected,omitempty"`
	Preview   bool         `json:"preview,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	ExpiresAt time.Time    `json:"expires_at,omitzero"`
}

// New creates a session for page with a random id. A zero ttl never expires.
func New(page *layout.Page, ttl time.Duration) *Session {
	return NewWithID(uuid.NewString(), page, ttl)
}

// NewWithID is like New with a fixed id.
func NewWithID(id string, page *layout.Page, ttl time.Duration) *Session {
	now := time.Now().UTC()
	s := &Session{ID: id, Page: page, CreatedAt: now, UpdatedAt: now}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	return s
}

// IsExpired reports whether the session has outlived its TTL.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Open returns a layout store editing a copy of the session's page, with the
// saved selection and preview state restored.
func (s *Session) Open(reg *registry.Registry, logger *log.Logger) (*layout.Store, error) {
	ls := layout.NewStore(reg, logger)
	if s.Page == nil {
		return ls, nil
	}
	if err := ls.Open(s.Page); err != nil {
		return nil, err
	}
	ls.Select(s.Selected)
	if s.Preview {
		if _, err := ls.TogglePreview(); err != nil {
			return nil, err
		}
	}
	return ls, nil
}

// Capture copies the page, selection and preview state of ls into the
// session.
func (s *Session) Capture(ls *layout.Store) error {
	page, err := ls.Snapshot()
	if err != nil {
		return err
	}
	s.Page = page
	s.Selected, _ = ls.Selected()
	s.Preview = ls.State() == layout.StatePreviewing
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID. It returns nil, nil if the session
	// doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any previous version.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	Close() error
}
