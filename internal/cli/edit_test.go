package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pagecraft/pkg/layout"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m EditorModel, keys ...tea.KeyMsg) EditorModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(EditorModel)
	}
	return m
}

func newEditorPage(t *testing.T) (*layout.Store, map[string]string) {
	t.Helper()
	ls := layout.NewStore(nil, nil)
	ls.Create(layout.Meta{Title: "Acme Launch", Locale: "en"})
	ids := map[string]string{}
	for _, typ := range []string{"header", "hero", "pricing", "footer"} {
		id, err := ls.AddByType(typ, -1)
		if err != nil {
			t.Fatalf("AddByType(%s): %v", typ, err)
		}
		ids[typ] = id
	}
	return ls, ids
}

func pageTypes(t *testing.T, ls *layout.Store) []string {
	t.Helper()
	page, err := ls.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	var types []string
	for _, in := range page.Components {
		types = append(types, in.Type)
	}
	return types
}

func TestEditorCursorSelects(t *testing.T) {
	ls, ids := newEditorPage(t)
	m := NewEditorModel(ls)
	if m.Cursor != 3 {
		t.Fatalf("initial Cursor = %d, want 3 (last added)", m.Cursor)
	}

	m = press(t, m, runes("k"), tea.KeyMsg{Type: tea.KeyUp})
	if sel, _ := ls.Selected(); sel != ids["hero"] {
		t.Errorf("selected %q, want hero", sel)
	}

	m = press(t, m, runes("k"), runes("k"), runes("k"))
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want clamp at 0", m.Cursor)
	}
	if m.Dirty {
		t.Error("moving the cursor marked the page dirty")
	}
}

func TestEditorDragAndDrop(t *testing.T) {
	ls, ids := newEditorPage(t)
	m := press(t, NewEditorModel(ls), runes("k"), runes("k"), runes("m"))
	if m.Mode != ModeDrag {
		t.Fatalf("Mode = %v, want ModeDrag", m.Mode)
	}
	if d := ls.Drag(); d.Phase != layout.DragDragging || d.ID != ids["hero"] {
		t.Fatalf("Drag() = %+v, want dragging hero", d)
	}

	m = press(t, m, runes("j"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Mode != ModeList {
		t.Errorf("Mode = %v after drop, want ModeList", m.Mode)
	}
	if diff := cmp.Diff([]string{"header", "pricing", "hero", "footer"}, pageTypes(t, ls)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if !m.Dirty || m.Cursor != 2 {
		t.Errorf("Dirty = %v, Cursor = %d, want true, 2", m.Dirty, m.Cursor)
	}
}

func TestEditorDragCancel(t *testing.T) {
	ls, _ := newEditorPage(t)
	m := press(t, NewEditorModel(ls), runes("k"), runes("m"), runes("k"), tea.KeyMsg{Type: tea.KeyEsc})
	if ls.Drag().Phase != layout.DragCancelled {
		t.Errorf("Drag().Phase = %v, want cancelled", ls.Drag().Phase)
	}
	if diff := cmp.Diff([]string{"header", "hero", "pricing", "footer"}, pageTypes(t, ls)); diff != "" {
		t.Errorf("order changed (-want +got):\n%s", diff)
	}
	if m.Cursor != 2 || m.Dirty {
		t.Errorf("Cursor = %d, Dirty = %v, want 2, false", m.Cursor, m.Dirty)
	}
}

func TestEditorDuplicateRemove(t *testing.T) {
	ls, _ := newEditorPage(t)
	m := press(t, NewEditorModel(ls), runes("k"), runes("k"), runes("c"))
	if diff := cmp.Diff([]string{"header", "hero", "hero", "pricing", "footer"}, pageTypes(t, ls)); diff != "" {
		t.Errorf("after duplicate (-want +got):\n%s", diff)
	}
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want the copy at 2", m.Cursor)
	}

	m = press(t, m, runes("d"))
	if ls.Len() != 4 || !m.Dirty {
		t.Errorf("Len = %d, Dirty = %v after remove", ls.Len(), m.Dirty)
	}

	m = press(t, m, runes("X"))
	if ls.Len() != 0 || m.Cursor != 0 {
		t.Errorf("Len = %d, Cursor = %d after clear", ls.Len(), m.Cursor)
	}
	if _, ok := ls.Selected(); ok {
		t.Error("selection kept on an empty page")
	}
}

func TestEditorCatalogAdd(t *testing.T) {
	ls, _ := newEditorPage(t)
	m := press(t, NewEditorModel(ls), runes("a"))
	if m.Mode != ModeCatalog {
		t.Fatalf("Mode = %v, want ModeCatalog", m.Mode)
	}
	if !strings.Contains(m.View(), "Add component") {
		t.Error("catalog view missing heading")
	}

	m = press(t, m, runes("j"), runes("k"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Mode != ModeList || ls.Len() != 5 || !m.Dirty {
		t.Errorf("Mode = %v, Len = %d, Dirty = %v after add", m.Mode, ls.Len(), m.Dirty)
	}
	sel, _ := ls.Selected()
	page, _ := ls.Snapshot()
	if page.Index(sel) != m.Cursor {
		t.Errorf("Cursor = %d, selected index = %d", m.Cursor, page.Index(sel))
	}

	m = press(t, m, runes("a"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.Mode != ModeList || ls.Len() != 5 {
		t.Errorf("esc in catalog: Mode = %v, Len = %d", m.Mode, ls.Len())
	}
}

func TestEditorPreview(t *testing.T) {
	ls, _ := newEditorPage(t)
	m := press(t, NewEditorModel(ls), runes("p"))
	if ls.State() != layout.StatePreviewing {
		t.Fatalf("State = %v, want previewing", ls.State())
	}
	cursor := m.Cursor
	m = press(t, m, runes("k"), runes("d"))
	if m.Cursor != cursor || ls.Len() != 4 {
		t.Error("editing keys changed the page while previewing")
	}
	if !strings.Contains(m.View(), "Acme Launch") {
		t.Error("view lacks page title")
	}

	press(t, m, runes("p"))
	if ls.State() != layout.StateEditing {
		t.Errorf("State = %v, want editing", ls.State())
	}
}

func TestEditorQuit(t *testing.T) {
	ls, _ := newEditorPage(t)
	_, cmd := NewEditorModel(ls).Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
