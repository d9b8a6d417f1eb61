package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/pagecraft/internal/metrics"
	"github.com/matzehuels/pagecraft/pkg/config"
	"github.com/matzehuels/pagecraft/pkg/pipeline"
	"github.com/matzehuels/pagecraft/pkg/storage"
	"github.com/matzehuels/pagecraft/pkg/value"
)

type fixture struct {
	srv     *Server
	handler http.Handler
	store   *storage.MemoryStore
}

func newFixture(t *testing.T, mc *metrics.Collector, g prometheus.Gatherer) *fixture {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Locales = []string{"en", "fr"}

	store := storage.NewMemoryStore()
	srv, err := New(Options{
		Config:   cfg,
		Runner:   pipeline.NewRunner(store, nil, nil, nil),
		Metrics:  mc,
		Gatherer: g,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{srv: srv, handler: srv.Router(), store: store}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// edit issues a mutation and fails the test unless it succeeds.
func (f *fixture) edit(t *testing.T, method, path string, body any) mutation {
	t.Helper()
	rec := f.do(t, method, path, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s %s = %d: %s", method, path, rec.Code, rec.Body.String())
	}
	return decodeBody[mutation](t, rec)
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/sessions", map[string]any{"title": "Acme Launch", "locale": "en"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[sessionView](t, rec).ID
}

func types(v sessionView) []string {
	var out []string
	for _, in := range v.Page.Components {
		out = append(out, in.Type)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	return decodeBody[map[string]errorBody](t, rec)["error"]
}

func TestHealthAndVersion(t *testing.T) {
	f := newFixture(t, nil, nil)
	if rec := f.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	rec := f.do(t, http.MethodGet, "/version", nil)
	if got := decodeBody[map[string]string](t, rec)["version"]; got == "" {
		t.Errorf("version body = %s", rec.Body.String())
	}
}

func TestComponents(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec := f.do(t, http.MethodGet, "/components?category=commerce", nil)
	list := decodeBody[struct {
		Categories []string     `json:"categories"`
		Components []schemaView `json:"components"`
	}](t, rec)
	if len(list.Components) != 1 || list.Components[0].Type != "pricing" {
		t.Errorf("commerce components = %+v", list.Components)
	}
	if len(list.Categories) == 0 {
		t.Error("categories missing")
	}

	rec = f.do(t, http.MethodGet, "/components/hero", nil)
	hero := decodeBody[schemaView](t, rec)
	if hero.Component != "Hero" || hero.Properties["title"].Kind != "text" {
		t.Errorf("hero = %+v", hero)
	}

	rec = f.do(t, http.MethodGet, "/components/carousel", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec).Code != "NOT_FOUND" {
		t.Errorf("unknown component = %d %s", rec.Code, rec.Body.String())
	}
}

func TestSessionEditing(t *testing.T) {
	f := newFixture(t, nil, nil)
	id := f.create(t)
	base := "/sessions/" + id

	header := f.edit(t, http.MethodPost, base+"/components", map[string]any{"type": "header"}).ID
	hero := f.edit(t, http.MethodPost, base+"/components", map[string]any{"type": "hero"}).ID
	f.edit(t, http.MethodPost, base+"/components", map[string]any{"type": "footer"})
	m := f.edit(t, http.MethodPost, base+"/components", map[string]any{"type": "pricing"})
	pricing := m.ID
	if diff := cmp.Diff([]string{"header", "hero", "pricing", "footer"}, types(m.Session)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if m.Session.Selected != pricing {
		t.Errorf("selected = %q, want new instance", m.Session.Selected)
	}

	m = f.edit(t, http.MethodPost, base+"/components/"+pricing+"/move", map[string]any{"position": 1})
	if !m.Changed {
		t.Error("flexible move reported no change")
	}
	if diff := cmp.Diff([]string{"header", "pricing", "hero", "footer"}, types(m.Session)); diff != "" {
		t.Errorf("order after move mismatch (-want +got):\n%s", diff)
	}

	m = f.edit(t, http.MethodPost, base+"/components/"+header+"/move", map[string]any{"position": 2})
	if m.Changed || types(m.Session)[0] != "header" {
		t.Errorf("fixed move changed the page: %v", types(m.Session))
	}

	m = f.edit(t, http.MethodPost, base+"/components/"+hero+"/duplicate", nil)
	dup := m.ID
	if !m.Changed || types(m.Session)[3] != "hero" || m.Session.Page.Components[3].ID != dup {
		t.Errorf("duplicate = %+v", types(m.Session))
	}

	m = f.edit(t, http.MethodPatch, base+"/components/"+hero, map[string]any{"title": "Launch Faster"})
	if got := m.Session.Page.Components[2].Props["title"]; !got.Equal(value.String("Launch Faster")) {
		t.Errorf("updated title = %v", got)
	}

	m = f.edit(t, http.MethodDelete, base+"/components/"+dup, nil)
	if !m.Changed || len(m.Session.Page.Components) != 4 {
		t.Errorf("remove left %d components", len(m.Session.Page.Components))
	}
	if m = f.edit(t, http.MethodDelete, base+"/components/missing", nil); m.Changed {
		t.Error("removing an unknown id reported a change")
	}

	if m = f.edit(t, http.MethodPut, base+"/selection", map[string]any{"id": header}); m.Session.Selected != header {
		t.Errorf("selected = %q", m.Session.Selected)
	}
	if m = f.edit(t, http.MethodDelete, base+"/selection", nil); m.Session.Selected != "" {
		t.Errorf("selection not cleared: %q", m.Session.Selected)
	}

	if m = f.edit(t, http.MethodPost, base+"/preview", nil); m.Session.State != "previewing" {
		t.Errorf("state = %q", m.Session.State)
	}
	rec := f.do(t, http.MethodGet, base+"/preview?width=40", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Launch Faster") {
		t.Errorf("preview = %d %q", rec.Code, rec.Body.String())
	}

	if m = f.edit(t, http.MethodPost, base+"/clear", nil); len(m.Session.Page.Components) != 0 || m.Session.State != "editing" {
		t.Errorf("clear = %+v", m.Session)
	}

	rec = f.do(t, http.MethodGet, base, nil)
	if got := decodeBody[sessionView](t, rec); got.Page.Meta.Title != "Acme Launch" {
		t.Errorf("title = %q", got.Page.Meta.Title)
	}

	if rec = f.do(t, http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d", rec.Code)
	}
	if rec = f.do(t, http.MethodGet, base, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestSessionErrors(t *testing.T) {
	f := newFixture(t, nil, nil)
	id := f.create(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown session", http.MethodGet, "/sessions/nope", nil, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"unknown type", http.MethodPost, "/sessions/" + id + "/components", map[string]any{"type": "carousel"}, http.StatusBadRequest, "UNKNOWN_COMPONENT"},
		{"bad body", http.MethodPost, "/sessions/" + id + "/components/x/move", "not an object", http.StatusBadRequest, "VALIDATION"},
		{"bad locale", http.MethodPost, "/sessions/" + id + "/export", map[string]any{"locales": []string{"not a locale"}}, http.StatusBadRequest, "INVALID_LOCALE"},
		{"bad mode", http.MethodPost, "/sessions/" + id + "/export", map[string]any{"mode": "overwrite"}, http.StatusBadRequest, "INVALID_MERGE_MODE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if got := errorCode(t, rec).Code; got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestImportedPage(t *testing.T) {
	f := newFixture(t, nil, nil)
	page := map[string]any{
		"id":   "page-1",
		"meta": map[string]any{"title": "Imported"},
		"components": []map[string]any{
			{"id": "f1", "type": "footer", "section": "bottom", "props": map[string]any{}},
			{"id": "h1", "type": "hero", "props": map[string]any{"title": "Hi"}},
		},
	}
	rec := f.do(t, http.MethodPost, "/sessions", map[string]any{"page": page})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	if diff := cmp.Diff([]string{"hero", "footer"}, types(decodeBody[sessionView](t, rec))); diff != "" {
		t.Errorf("imported order mismatch (-want +got):\n%s", diff)
	}
}

func TestImportedPageRejected(t *testing.T) {
	f := newFixture(t, nil, nil)
	tests := []struct {
		name       string
		components []any
	}{
		{"null component", []any{nil}},
		{"dotted id", []any{map[string]any{"id": "a.b", "type": "hero"}}},
		{"traversal id", []any{map[string]any{"id": "../x", "type": "hero"}}},
		{"dotted property", []any{map[string]any{"id": "h1", "type": "hero", "props": map[string]any{"cta.label": "Go"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := map[string]any{"meta": map[string]any{"title": "Imported"}, "components": tt.components}
			rec := f.do(t, http.MethodPost, "/sessions", map[string]any{"page": page})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
			if got := errorCode(t, rec).Code; got != "INVALID_DOCUMENT" {
				t.Errorf("code = %q, want INVALID_DOCUMENT", got)
			}
		})
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil, nil)
	id := f.create(t)
	hero := f.edit(t, http.MethodPost, "/sessions/"+id+"/components", map[string]any{"type": "hero"}).ID

	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "acme-launch-") || !strings.HasSuffix(cd, `.zip"`) {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip archive")
	}
	if rec.Header().Get("X-Layout-Hash") == "" {
		t.Error("layout hash header missing")
	}

	fr, err := f.store.Read(context.Background(), "fr", "hero_"+hero)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fr["title"]; !ok {
		t.Errorf("fr namespace = %v", fr)
	}
}

func TestExportPersistenceFailure(t *testing.T) {
	f := newFixture(t, nil, nil)
	id := f.create(t)
	f.edit(t, http.MethodPost, "/sessions/"+id+"/components", map[string]any{"type": "hero"})
	f.store.FailWrites = os.ErrPermission

	rec := f.do(t, http.MethodPost, "/sessions/"+id+"/export", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if e := errorCode(t, rec); e.Code != "PERSISTENCE" || !e.Retryable {
		t.Errorf("error = %+v", e)
	}
}

func TestOutline(t *testing.T) {
	f := newFixture(t, nil, nil)
	id := f.create(t)
	f.edit(t, http.MethodPost, "/sessions/"+id+"/components", map[string]any{"type": "hero"})

	rec := f.do(t, http.MethodGet, "/sessions/"+id+"/outline.svg", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("outline = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, metrics.NewWithRegistry(reg), reg)

	f.do(t, http.MethodGet, "/healthz", nil)
	rec := f.do(t, http.MethodGet, "/metrics", nil)
	if !strings.Contains(rec.Body.String(), `pagecraft_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", rec.Body.String())
	}
}

func TestCatalogReloadReachesExports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "components.toml")
	catalog := func(typ string) {
		t.Helper()
		doc := "[[component]]\ntype = \"" + typ + "\"\nname = \"Stats\"\ncategory = \"content\"\n" +
			"[component.defaults]\nlabel = \"Customers\"\n[component.properties.label]\nkind = \"text\"\n"
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	catalog("stats")
	holder, err := config.NewCatalogHolder(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer holder.Stop()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(storage.NewMemoryStore(), nil, nil, nil)
	srv, err := New(Options{Config: cfg, Runner: runner, Catalog: holder})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := runner.Registry.Get("stats"); !ok {
		t.Fatal("runner does not use the loaded catalog")
	}

	catalog("metrics-strip")
	if err := holder.Reload(); err != nil {
		t.Fatal(err)
	}
	srv.exportMu.Lock()
	reg := runner.Registry
	srv.exportMu.Unlock()
	if reg != holder.Get() {
		t.Error("reload did not reach the export runner")
	}
	if _, ok := reg.Get("metrics-strip"); !ok {
		t.Error("reloaded component missing from the export catalog")
	}
}
