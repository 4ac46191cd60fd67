package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/layout"
	"github.com/matzehuels/doublediamond/pkg/pipeline"
)

func newTestEditor(t *testing.T) editorModel {
	t.Helper()
	c, ctx := testCLI(t)
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	return newEditorModel(ctx, runner, config.DefaultInput())
}

func press(m editorModel, msgs ...tea.KeyMsg) editorModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(editorModel)
	}
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func keyMsg(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestEditorStartsWithLayout(t *testing.T) {
	m := newTestEditor(t)
	if m.geometry.CY != layout.Compute(config.Default()).CY {
		t.Errorf("initial CY = %v", m.geometry.CY)
	}
	if m.keys[m.cursor] != config.KeyWidth {
		t.Errorf("cursor on %q, want width", m.keys[m.cursor])
	}
}

func TestEditorTypingRecomputes(t *testing.T) {
	m := newTestEditor(t)

	m = press(m, keyMsg(tea.KeyCtrlU), runes("4"), runes("00"))
	if got := m.input[config.KeyWidth]; got != "400" {
		t.Fatalf("width = %q, want 400", got)
	}
	if m.geometry.Width != 400 {
		t.Errorf("geometry width = %v, want 400", m.geometry.Width)
	}

	m = press(m, keyMsg(tea.KeyBackspace))
	if m.input[config.KeyWidth] != "40" || m.geometry.Width != 40 {
		t.Errorf("after backspace: width %q, geometry %v", m.input[config.KeyWidth], m.geometry.Width)
	}
	if len(m.geometry.Warnings) == 0 {
		t.Error("narrow canvas should report a warning")
	}
}

func TestEditorNavigation(t *testing.T) {
	m := newTestEditor(t)

	m = press(m, keyMsg(tea.KeyUp))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top", m.cursor)
	}

	for range len(m.keys) + 3 {
		m = press(m, keyMsg(tea.KeyDown))
	}
	if m.cursor != len(m.keys)-1 {
		t.Errorf("cursor = %d, want last field", m.cursor)
	}

	m = press(m, keyMsg(tea.KeyShiftTab))
	if m.cursor != len(m.keys)-2 {
		t.Errorf("cursor = %d after shift+tab", m.cursor)
	}
}

func TestEditorEditTextWithSpaces(t *testing.T) {
	m := newTestEditor(t)
	for m.keys[m.cursor] != config.KeyTitleText {
		m = press(m, keyMsg(tea.KeyDown))
	}

	m = press(m, keyMsg(tea.KeyCtrlU), runes("Q3"), keyMsg(tea.KeySpace), runes("Plan"))
	if got := m.input.Resolve().TitleText; got != "Q3 Plan" {
		t.Errorf("title = %q", got)
	}

	m = press(m, keyMsg(tea.KeyCtrlU))
	if m.geometry.HasTitle {
		t.Error("cleared title should suppress the header line")
	}
}

func TestEditorReset(t *testing.T) {
	m := newTestEditor(t)
	m = press(m, keyMsg(tea.KeyCtrlU), runes("1"), keyMsg(tea.KeyCtrlR))

	if m.input[config.KeyWidth] != "800" {
		t.Errorf("width = %q after reset", m.input[config.KeyWidth])
	}
	if m.status != "Reset to defaults" {
		t.Errorf("status = %q", m.status)
	}
}

func TestEditorExport(t *testing.T) {
	m := newTestEditor(t)
	m.outDir = t.TempDir()
	m.formats = []string{"svg", "json"}
	m.now = func() time.Time { return time.UnixMilli(1700000000123) }

	_, cmd := m.Update(keyMsg(tea.KeyCtrlS))
	if cmd == nil {
		t.Fatal("ctrl+s returned no command")
	}
	msg := cmd()
	exp, ok := msg.(exportedMsg)
	if !ok || exp.err != nil {
		t.Fatalf("export msg = %#v", msg)
	}

	want := filepath.Join(m.outDir, "double-diamond-1700000000123.svg")
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Error("export should carry the XML declaration")
	}

	next, _ := m.Update(exp)
	m = next.(editorModel)
	if len(m.exported) != 2 || m.failed {
		t.Errorf("exported = %v, failed = %v", m.exported, m.failed)
	}
}

func TestEditorExportFailure(t *testing.T) {
	m := newTestEditor(t)
	m.formats = []string{"png"}
	m = press(m, keyMsg(tea.KeyCtrlU), runes("0"))

	_, cmd := m.Update(keyMsg(tea.KeyCtrlS))
	next, _ := m.Update(cmd())
	m = next.(editorModel)
	if !m.failed || m.status == "" {
		t.Errorf("status = %q, failed = %v", m.status, m.failed)
	}
}

func TestEditorQuit(t *testing.T) {
	m := newTestEditor(t)
	for _, k := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		_, cmd := m.Update(keyMsg(k))
		if cmd == nil {
			t.Fatalf("%v returned no command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%v did not quit", k)
		}
	}
}

func TestEditorView(t *testing.T) {
	m := newTestEditor(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(editorModel)

	view := m.View()
	for _, want := range []string{"Double Diamond", "width", "800" + editCursor, "phase width"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m = press(m, keyMsg(tea.KeyCtrlU), runes("0"))
	if len(m.geometry.Warnings) == 0 || !strings.Contains(m.View(), m.geometry.Warnings[0].Message) {
		t.Error("view should show layout warnings")
	}
}

func TestEditorScroll(t *testing.T) {
	m := newTestEditor(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(editorModel)
	if m.height != 5 {
		t.Fatalf("height = %d, want minimum 5", m.height)
	}

	for range 7 {
		m = press(m, keyMsg(tea.KeyDown))
	}
	if m.offset != 3 {
		t.Errorf("offset = %d, want 3", m.offset)
	}
	if strings.Count(m.View(), "▸") != 1 {
		t.Error("selected row not visible")
	}
}
