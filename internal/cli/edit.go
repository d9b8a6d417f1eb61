package cli

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagecraft/pkg/layout"
	"github.com/matzehuels/pagecraft/pkg/preview"
	"github.com/matzehuels/pagecraft/pkg/registry"
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the page interactively",
		Long: `Edit the page in a full-screen terminal editor.

Keys:
  ↑/↓ j/k   select a component        a   add from the catalog
  m         drag the selection        c   duplicate
  d         remove                    X   clear the page
  p         toggle preview            q   save and quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}
			store, sess, err := c.current(ctx)
			if err != nil {
				return err
			}
			// Log output would corrupt the full-screen view.
			ls, err := sess.Open(reg, log.New(io.Discard))
			if err != nil {
				return err
			}

			final, err := tea.NewProgram(NewEditorModel(ls), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("editor: %w", err)
			}
			if m, ok := final.(EditorModel); !ok || !m.Dirty {
				printInfo("No changes")
				return nil
			}
			if err := sess.Capture(ls); err != nil {
				return err
			}
			if err := store.Set(ctx, sess); err != nil {
				return err
			}
			printSuccess("Saved %d components", ls.Len())
			return nil
		},
	}
}

// =============================================================================
// EditorModel - Interactive page editor
// =============================================================================

// EditorMode is the input mode of the editor.
type EditorMode int

const (
	ModeList EditorMode = iota
	ModeCatalog
	ModeDrag
)

var (
	editorHeaderStyle = lipgloss.NewStyle().Foreground(colorGray)
	editorRowStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	editorCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editorFixedStyle  = lipgloss.NewStyle().Foreground(colorDim)
	editorDragStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	editorErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// EditorModel is the bubbletea model for the page editor. It edits the
// layout store in place.
type EditorModel struct {
	Store    *layout.Store
	Renderer *preview.Renderer
	Schemas  []registry.Schema

	Mode      EditorMode
	Cursor    int // component index; drop target while dragging
	CatCursor int
	Dirty     bool
	Status    string
	Err       error
}

// NewEditorModel creates an editor for ls. The store must hold a page.
func NewEditorModel(ls *layout.Store) EditorModel {
	m := EditorModel{
		Store:    ls,
		Renderer: preview.NewRenderer(ls.Registry),
		Schemas:  ls.Registry.All(),
	}
	if id, ok := ls.Selected(); ok {
		if page, err := ls.Snapshot(); err == nil {
			m.Cursor = max(page.Index(id), 0)
		}
	}
	return m
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.Err = nil
		switch m.Mode {
		case ModeCatalog:
			return m.updateCatalog(msg)
		case ModeDrag:
			return m.updateDrag(msg)
		}
		return m.updateList(msg)
	case tea.WindowSizeMsg:
		m.Renderer.Width = max(min(msg.Width/2, preview.DefaultWidth), 24)
	}
	return m, nil
}

func (m EditorModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "p":
		state, err := m.Store.TogglePreview()
		m.setResult(err, "State: "+state.String())
		return m, nil
	}
	if m.Store.State() == layout.StatePreviewing {
		m.Status = "Previewing, press p to edit"
		return m, nil
	}

	id := m.current()
	switch key {
	case "up", "k":
		m.Cursor--
	case "down", "j":
		m.Cursor++
	case "a":
		m.Mode = ModeCatalog
		m.Status = ""
		return m, nil
	case "m":
		if id == "" {
			return m, nil
		}
		m.setResult(m.Store.BeginDrag(id), "Dragging, ↑/↓ choose a slot, enter drops, esc cancels")
		if m.Err == nil {
			m.Mode = ModeDrag
		}
		return m, nil
	case "c":
		dup, err := m.Store.Duplicate(id)
		m.setResult(err, "Duplicated")
		m.Dirty = m.Dirty || dup != ""
		m.Cursor = m.index(dup)
	case "d", "x":
		before := m.Store.Len()
		m.setResult(m.Store.Remove(id), "Removed")
		m.Dirty = m.Dirty || m.Store.Len() != before
	case "X":
		m.setResult(m.Store.Clear(), "Cleared")
		m.Dirty = true
		m.Cursor = 0
	}
	m.syncSelection()
	return m, nil
}

func (m EditorModel) updateDrag(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.Cursor = max(m.Cursor-1, 0)
	case "down", "j":
		m.Cursor = min(m.Cursor+1, m.Store.Len()-1)
	case "enter", " ":
		id := m.Store.Drag().ID
		moved, err := m.Store.DropOn(m.Cursor)
		status := "Dropped"
		if !moved {
			status = "Not moved"
		}
		m.setResult(err, status)
		m.Dirty = m.Dirty || moved
		m.Mode = ModeList
		m.Cursor = m.index(id)
		m.syncSelection()
	case "esc", "q", "ctrl+c":
		id := m.Store.Drag().ID
		m.Store.CancelDrag()
		m.Status = "Drag cancelled"
		m.Mode = ModeList
		m.Cursor = m.index(id)
	}
	return m, nil
}

func (m EditorModel) updateCatalog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.CatCursor = max(m.CatCursor-1, 0)
	case "down", "j":
		m.CatCursor = min(m.CatCursor+1, len(m.Schemas)-1)
	case "enter":
		if len(m.Schemas) == 0 {
			return m, nil
		}
		s := m.Schemas[m.CatCursor]
		id, err := m.Store.Add(s)
		m.setResult(err, "Added "+s.Name)
		if err == nil {
			m.Dirty = true
			m.Cursor = m.index(id)
		}
		m.Mode = ModeList
	case "esc", "q", "ctrl+c":
		m.Mode = ModeList
	}
	return m, nil
}

func (m *EditorModel) setResult(err error, status string) {
	m.Err = err
	if err == nil {
		m.Status = status
	}
}

// current returns the id under the cursor.
func (m EditorModel) current() string {
	page, err := m.Store.Snapshot()
	if err != nil || m.Cursor < 0 || m.Cursor >= len(page.Components) {
		return ""
	}
	return page.Components[m.Cursor].ID
}

func (m EditorModel) index(id string) int {
	page, err := m.Store.Snapshot()
	if err != nil {
		return 0
	}
	return max(page.Index(id), 0)
}

// syncSelection clamps the cursor and selects the component under it.
func (m *EditorModel) syncSelection() {
	n := m.Store.Len()
	m.Cursor = max(min(m.Cursor, n-1), 0)
	if n == 0 {
		m.Store.ClearSelection()
		return
	}
	m.Store.Select(m.current())
}

func (m EditorModel) View() string {
	page, err := m.Store.Snapshot()
	if err != nil {
		return editorErrorStyle.Render(err.Error()) + "\n"
	}

	var b strings.Builder
	title := StyleTitle.Render(page.Meta.Title)
	state := StyleDim.Render(" · " + m.Store.State().String())
	if m.Dirty {
		state += StyleWarning.Render(" · modified")
	}
	b.WriteString(title + state + "\n")
	b.WriteString(StyleDim.Render(m.help()) + "\n\n")

	switch {
	case m.Mode == ModeCatalog:
		b.WriteString(m.catalogView())
	case m.Store.State() == layout.StatePreviewing:
		b.WriteString(m.Renderer.RenderPage(page, ""))
	default:
		selected, _ := m.Store.Selected()
		list := m.listView(page)
		if in, ok := page.Find(selected); ok {
			list = lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", m.Renderer.RenderInstance(in, true))
		}
		b.WriteString(list)
	}

	b.WriteString("\n\n")
	switch {
	case m.Err != nil:
		b.WriteString(editorErrorStyle.Render(iconError + " " + m.Err.Error()))
	case m.Status != "":
		b.WriteString(StyleDim.Render(m.Status))
	}
	return b.String()
}

func (m EditorModel) help() string {
	switch {
	case m.Mode == ModeCatalog:
		return "↑/↓ choose  ⏎ add  esc back"
	case m.Mode == ModeDrag:
		return "↑/↓ slot  ⏎ drop  esc cancel"
	case m.Store.State() == layout.StatePreviewing:
		return "p edit  q quit"
	}
	return "↑/↓ select  a add  m move  c copy  d remove  p preview  q quit"
}

func (m EditorModel) listView(page *layout.Page) string {
	if len(page.Components) == 0 {
		return StyleDim.Render("(empty page, press a to add a component)")
	}
	dragged := m.Store.Drag()
	lines := []string{editorHeaderStyle.Render(fmt.Sprintf("   %-3s %-14s %s", "#", "type", "section"))}
	for i, in := range page.Components {
		marker := "  "
		style := editorRowStyle
		if in.Section != registry.PositionFlexible {
			style = editorFixedStyle
		}
		switch {
		case m.Mode == ModeDrag && i == m.Cursor:
			marker, style = "↕ ", editorDragStyle
		case m.Mode == ModeDrag && in.ID == dragged.ID:
			style = editorDragStyle
		case m.Mode == ModeList && i == m.Cursor:
			marker, style = "▸ ", editorCursorStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s %-3d %-14s %s", marker, in.Position, in.Type, in.Section)))
	}
	return strings.Join(lines, "\n")
}

func (m EditorModel) catalogView() string {
	lines := []string{StyleTitle.Render("Add component")}
	for i, s := range m.Schemas {
		line := fmt.Sprintf("  %-14s %-16s %s", s.Type, s.Name, s.Category)
		if i == m.CatCursor {
			lines = append(lines, editorCursorStyle.Render("▸"+line[1:]))
			continue
		}
		lines = append(lines, editorRowStyle.Render(line))
	}
	return strings.Join(lines, "\n")
}
