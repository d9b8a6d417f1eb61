package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pagecraft/pkg/bundle"
	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/i18n/merge"
	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/preview"
	"github.com/matzehuels/pagecraft/pkg/registry"
	"github.com/matzehuels/pagecraft/pkg/session"
	"github.com/matzehuels/pagecraft/pkg/value"
)

// =============================================================================
// Components
// =============================================================================

type propertyView struct {
	Kind        registry.PropertyKind `json:"kind"`
	Description string                `json:"description,omitempty"`
	Options     []string              `json:"options,omitempty"`
}

type schemaView struct {
	Type        string                  `json:"type"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Category    string                  `json:"category"`
	Tags        []string                `json:"tags,omitempty"`
	Position    registry.Position       `json:"position"`
	Component   string                  `json:"component"`
	Integration string                  `json:"integration,omitempty"`
	Defaults    value.Map               `json:"defaults"`
	Properties  map[string]propertyView `json:"properties"`
}

func newSchemaView(s registry.Schema) schemaView {
	props := make(map[string]propertyView, len(s.Properties))
	for k, p := range s.Properties {
		props[k] = propertyView{Kind: p.Kind, Description: p.Description, Options: p.Options}
	}
	return schemaView{
		Type:        s.Type,
		Name:        s.Name,
		Description: s.Description,
		Category:    s.Category,
		Tags:        s.Tags,
		Position:    s.Position,
		Component:   s.ComponentName(),
		Integration: s.Integration,
		Defaults:    s.Defaults,
		Properties:  props,
	}
}

func (s *Server) listComponents(w http.ResponseWriter, r *http.Request) {
	reg := s.registry()
	schemas := reg.Search(r.URL.Query().Get("q"))
	if cat := r.URL.Query().Get("category"); cat != "" {
		kept := schemas[:0]
		for _, sc := range schemas {
			if sc.Category == cat {
				kept = append(kept, sc)
			}
		}
		schemas = kept
	}
	views := make([]schemaView, len(schemas))
	for i, sc := range schemas {
		views[i] = newSchemaView(sc)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": reg.Categories(),
		"components": views,
	})
}

func (s *Server) getComponent(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	sc, ok := s.registry().Get(typ)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "unknown component type %q", typ))
		return
	}
	writeJSON(w, http.StatusOK, newSchemaView(sc))
}

// =============================================================================
// Sessions
// =============================================================================

type sessionView struct {
	ID        string       `json:"id"`
	State     string       `json:"state"`
	Selected  string       `json:"selected,omitempty"`
	Page      *layout.Page `json:"page"`
	ExpiresAt time.Time    `json:"expires_at,omitzero"`
}

func newSessionView(sess *session.Session) sessionView {
	state := layout.StateEditing
	switch {
	case sess.Page == nil:
		state = layout.StateNoLayout
	case sess.Preview:
		state = layout.StatePreviewing
	}
	return sessionView{
		ID:        sess.ID,
		State:     state.String(),
		Selected:  sess.Selected,
		Page:      sess.Page,
		ExpiresAt: sess.ExpiresAt,
	}
}

// mutation is the response to an edit.
type mutation struct {
	ID      string      `json:"id,omitempty"`
	Changed bool        `json:"changed"`
	Session sessionView `json:"session"`
}

type createRequest struct {
	Title  string       `json:"title"`
	Locale string       `json:"locale"`
	Tags   []string     `json:"tags"`
	Page   *layout.Page `json:"page"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ls := layout.NewStore(s.registry(), s.logger)
	if req.Page != nil {
		if err := ls.Open(req.Page); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		ls.Create(layout.Meta{Title: req.Title, Locale: req.Locale, Tags: req.Tags})
	}

	sess := session.New(nil, s.cfg.Server.SessionTTL)
	if err := sess.Capture(ls); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("session created", "id", sess.ID, "components", ls.Len())
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

// load returns the session named by the id URL parameter.
func (s *Server) load(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	defer s.lock(id)()
	sess, err := s.load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	err := s.sessions.Delete(r.Context(), id)
	unlock()
	s.locks.Delete(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// edit applies fn to the session's layout and persists the result.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(ls *layout.Store) (mutation, error)) {
	id := chi.URLParam(r, "id")
	defer s.lock(id)()

	sess, err := s.load(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ls, err := sess.Open(s.registry(), s.logger)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := fn(ls)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.Capture(ls); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	m.Session = newSessionView(sess)
	writeJSON(w, http.StatusOK, m)
}

type addRequest struct {
	Type  string `json:"type"`
	Index *int   `json:"index"`
}

func (s *Server) addComponent(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		id, err := ls.AddByType(req.Type, index)
		return mutation{ID: id, Changed: err == nil}, err
	})
}

func (s *Server) removeComponent(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		before := ls.Len()
		err := ls.Remove(cid)
		return mutation{ID: cid, Changed: ls.Len() != before}, err
	})
}

type moveRequest struct {
	Position int `json:"position"`
}

func (s *Server) moveComponent(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	cid := chi.URLParam(r, "cid")
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		moved, err := ls.Move(cid, req.Position)
		return mutation{ID: cid, Changed: moved}, err
	})
}

func (s *Server) duplicateComponent(w http.ResponseWriter, r *http.Request) {
	cid := chi.URLParam(r, "cid")
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		id, err := ls.Duplicate(cid)
		return mutation{ID: id, Changed: id != ""}, err
	})
}

func (s *Server) updateComponent(w http.ResponseWriter, r *http.Request) {
	var props value.Map
	if err := decode(w, r, &props); err != nil {
		s.writeError(w, r, err)
		return
	}
	cid := chi.URLParam(r, "cid")
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		page, err := ls.Snapshot()
		if err != nil {
			return mutation{}, err
		}
		_, found := page.Find(cid)
		return mutation{ID: cid, Changed: found && len(props) > 0}, ls.Update(cid, props)
	})
}

type selectRequest struct {
	ID string `json:"id"`
}

func (s *Server) selectComponent(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		before, _ := ls.Selected()
		ls.Select(req.ID)
		after, _ := ls.Selected()
		return mutation{ID: after, Changed: before != after}, nil
	})
}

func (s *Server) clearSelection(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		_, had := ls.Selected()
		ls.ClearSelection()
		return mutation{Changed: had}, nil
	})
}

func (s *Server) clearLayout(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		before := ls.Len()
		return mutation{Changed: before > 0}, ls.Clear()
	})
}

func (s *Server) togglePreview(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(ls *layout.Store) (mutation, error) {
		_, err := ls.TogglePreview()
		return mutation{Changed: err == nil}, err
	})
}

// renderPreview returns the terminal rendering of the page as plain text.
func (s *Server) renderPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	sess, err := s.load(r.Context(), id)
	unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sess.Page == nil {
		s.writeError(w, r, layout.ErrNoLayout)
		return
	}
	rd := preview.NewRenderer(s.registry())
	if width, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && width > 0 {
		rd.Width = width
	}
	selected := sess.Selected
	if sess.Preview {
		selected = ""
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, rd.RenderPage(sess.Page, selected))
}

// =============================================================================
// Export
// =============================================================================

type exportRequest struct {
	Project string   `json:"project"`
	Locales []string `json:"locales"`
	Mode    string   `json:"mode"`
	Format  string   `json:"format"`
	Refresh bool     `json:"refresh"`
}

func (s *Server) snapshot(ctx context.Context, id string) (*layout.Page, error) {
	defer s.lock(id)()
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Page == nil {
		return nil, layout.ErrNoLayout
	}
	return sess.Page, nil
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.cfg.ExportOptions(page)
	opts.Logger = s.logger
	opts.Refresh = req.Refresh
	if req.Project != "" {
		opts.Project = req.Project
	}
	if len(req.Locales) > 0 {
		opts.Locales = req.Locales
	}
	if req.Mode != "" {
		opts.Mode = merge.Mode(req.Mode)
	}
	if req.Format != "" {
		opts.Format = bundle.Format(req.Format)
	}

	s.exportMu.Lock()
	res, err := s.runner.Execute(r.Context(), opts)
	s.exportMu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Archive.Root+".zip"))
	h.Set("X-Layout-Hash", res.LayoutHash)
	if len(res.Stale) > 0 {
		h.Set("X-Stale-Keys", strings.Join(res.Stale, ","))
	}
	if len(res.Missing) > 0 {
		h.Set("X-Missing-Components", strings.Join(res.Missing, ","))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(res.Archive.Data)
}

func (s *Server) outline(w http.ResponseWriter, r *http.Request) {
	page, err := s.snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.exportMu.Lock()
	svg, _, err := s.runner.Outline(r.Context(), page)
	s.exportMu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}
