package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pagecraft/pkg/errors"
	"github.com/matzehuels/pagecraft/pkg/session"
)

const testConfig = `project = "Acme"
locales = ["en", "fr"]

[storage]
location = "translations"

[cache]
location = "none"
`

type testEnv struct {
	dir      string
	config   string
	sessions string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	env := testEnv{
		dir:      dir,
		config:   filepath.Join(dir, "pagecraft.toml"),
		sessions: filepath.Join(dir, "sessions"),
	}
	if err := os.WriteFile(env.config, []byte(testConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

func (e testEnv) run(args ...string) error {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.config, "--session-dir", e.sessions}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func (e testEnv) mustRun(t *testing.T, args ...string) {
	t.Helper()
	if err := e.run(args...); err != nil {
		t.Fatalf("pagecraft %v: %v", args, err)
	}
}

func (e testEnv) session(t *testing.T) *session.Session {
	t.Helper()
	store, err := session.NewFileStore(e.sessions)
	if err != nil {
		t.Fatal(err)
	}
	sess, err := store.Get(context.Background(), session.CurrentID)
	if err != nil || sess == nil {
		t.Fatalf("current session: %v, %v", sess, err)
	}
	return sess
}

func TestEditingCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "new", "Acme Launch", "--tag", "landing")
	for _, typ := range []string{"header", "hero", "pricing", "footer"} {
		env.mustRun(t, "add", typ)
	}
	env.mustRun(t, "update", "hero", "title=Launch Faster")
	env.mustRun(t, "move", "pricing", "1")
	env.mustRun(t, "select", "--clear")
	env.mustRun(t, "preview", "--toggle")

	sess := env.session(t)
	var types []string
	for _, in := range sess.Page.Components {
		types = append(types, in.Type)
	}
	if diff := cmp.Diff([]string{"header", "pricing", "hero", "footer"}, types); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if got, _ := sess.Page.Components[2].Props["title"].AsString(); got != "Launch Faster" {
		t.Errorf("hero title = %q", got)
	}
	if sess.Selected != "" || !sess.Preview {
		t.Errorf("Selected = %q, Preview = %v, want cleared and previewing", sess.Selected, sess.Preview)
	}
	if diff := cmp.Diff([]string{"landing"}, sess.Page.Meta.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	env.mustRun(t, "duplicate", "2")
	env.mustRun(t, "rm", "#3")
	env.mustRun(t, "move", "header", "2")
	if got := len(env.session(t).Page.Components); got != 4 {
		t.Errorf("components = %d after duplicate and remove, want 4", got)
	}
	if got := env.session(t).Page.Components[0].Type; got != "header" {
		t.Errorf("header moved to %q's slot", got)
	}
}

func TestCommandErrors(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("add", "hero"); !errors.Is(err, errors.ErrCodeNoLayout) {
		t.Errorf("add without page: %v, want NO_LAYOUT", err)
	}

	env.mustRun(t, "new", "Acme Launch")
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"page exists", []string{"new", "Other"}, errors.ErrCodeValidation},
		{"unknown type", []string{"add", "carousel"}, errors.ErrCodeUnknownComponent},
		{"missing component", []string{"remove", "hero"}, errors.ErrCodeNotFound},
		{"bad position", []string{"move", "hero", "top"}, errors.ErrCodeValidation},
		{"update missing component", []string{"update", "0", "title=x"}, errors.ErrCodeNotFound},
		{"select nothing", []string{"select"}, errors.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := env.run(tt.args...); !errors.Is(err, tt.code) {
				t.Errorf("pagecraft %v: %v, want %s", tt.args, err, tt.code)
			}
		})
	}
}

func TestUpdateNestedProperty(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "new", "Acme Launch")
	env.mustRun(t, "add", "hero")
	env.mustRun(t, "update", "hero", "cta.label=Go now")

	cta := func() map[string]any {
		in := env.session(t).Page.Components[0]
		m, _ := in.Props["cta"].AsMap()
		return m.Any()
	}
	want := map[string]any{"label": "Go now", "href": "/signup"}
	if diff := cmp.Diff(want, cta()); diff != "" {
		t.Errorf("cta mismatch (-want +got):\n%s", diff)
	}
	if _, ok := env.session(t).Page.Components[0].Props["cta.label"]; ok {
		t.Error("dotted assignment stored a literal dotted key")
	}

	for _, args := range [][]string{
		{"update", "hero"},
		{"update", "hero", "--json", `{"cta.label": "x"}`},
		{"update", "hero", "--json", `{"": "x"}`},
	} {
		if err := env.run(args...); !errors.Is(err, errors.ErrCodeValidation) {
			t.Errorf("pagecraft %v: %v, want VALIDATION", args, err)
		}
	}
	if diff := cmp.Diff(want, cta()); diff != "" {
		t.Errorf("rejected updates changed cta (-want +got):\n%s", diff)
	}
}

func TestSaveOpen(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "new", "Acme Launch")
	env.mustRun(t, "add", "hero")
	doc := filepath.Join(env.dir, "page.json")
	env.mustRun(t, "save", doc)

	env.mustRun(t, "new", "Scratch", "--force")
	if got := env.session(t).Page.Meta.Title; got != "Scratch" {
		t.Fatalf("title = %q after new --force", got)
	}

	env.mustRun(t, "open", doc)
	sess := env.session(t)
	if sess.Page.Meta.Title != "Acme Launch" || len(sess.Page.Components) != 1 {
		t.Errorf("reopened %q with %d components", sess.Page.Meta.Title, len(sess.Page.Components))
	}
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "new", "Acme Launch")
	env.mustRun(t, "add", "hero")
	env.mustRun(t, "add", "footer")

	out := filepath.Join(env.dir, "dist")
	env.mustRun(t, "export", "-o", out, "--mode", "replace")

	zips, err := filepath.Glob(filepath.Join(out, "*.zip"))
	if err != nil || len(zips) != 1 {
		t.Fatalf("archives = %v, %v, want one", zips, err)
	}
	data, err := os.ReadFile(zips[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 4 || string(data[:2]) != "PK" {
		t.Error("archive is not a zip file")
	}

	if err := env.run("export", "--mode", "overwrite", "-o", out); !errors.Is(err, errors.ErrCodeInvalidMode) {
		t.Errorf("bad mode: %v, want INVALID_MERGE_MODE", err)
	}
}
