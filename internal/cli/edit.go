package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
	"github.com/matzehuels/doublediamond/pkg/layout"
	"github.com/matzehuels/doublediamond/pkg/pipeline"
)

// Editor styles
var (
	editSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	editNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	editDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	editErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

const editCursor = "█"

type editOpts struct {
	source  configSource
	outDir  string
	formats string
	prefix  string
}

// editCommand opens the terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	opts := editOpts{outDir: ".", prefix: pipeline.DefaultExportPrefix}

	cmd := &cobra.Command{
		Use:   "edit [config-file]",
		Short: "Edit a diagram in the terminal with live layout",
		Long: `Edit the diagram fields in the terminal. The layout is recomputed on every
keystroke.

Keys: ↑/↓ move  type to edit  ctrl+u clear field  ctrl+s export  ctrl+r reset  esc quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.source.file = args[0]
			}
			return c.runEdit(cmd.Context(), &opts)
		},
	}

	opts.source.register(cmd)
	cmd.Flags().StringVarP(&opts.outDir, "output", "o", opts.outDir, "export directory")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "svg", "export format(s) for ctrl+s (comma-separated)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", opts.prefix, "export file name prefix")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, opts *editOpts) error {
	formats, err := pipeline.ParseFormats(opts.formats)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		formats = []string{pipeline.FormatSVG}
	}
	if err := errors.ValidateExportPrefix(opts.prefix); err != nil {
		return err
	}
	in, err := opts.source.load()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return err
	}
	defer runner.Close()

	m := newEditorModel(ctx, runner, in)
	m.outDir = opts.outDir
	m.prefix = opts.prefix
	m.formats = formats

	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if em, ok := final.(editorModel); ok {
		for _, p := range em.exported {
			printFile(p)
		}
	}
	return nil
}

// =============================================================================
// editorModel - Interactive form editing
// =============================================================================

// exportedMsg reports the outcome of a ctrl+s export.
type exportedMsg struct {
	paths []string
	err   error
}

// editorModel is the bubbletea model of the terminal editor. The selected
// field is always in edit mode; every change recomputes the geometry.
type editorModel struct {
	ctx      context.Context
	runner   *pipeline.Runner
	keys     []string
	input    config.Input
	defaults config.Input
	geometry layout.Geometry

	cursor int
	offset int
	height int

	outDir   string
	prefix   string
	formats  []string
	now      func() time.Time
	status   string
	failed   bool
	exported []string
}

// newEditorModel starts editing in. Reset restores the state passed here.
func newEditorModel(ctx context.Context, runner *pipeline.Runner, in config.Input) editorModel {
	m := editorModel{
		ctx:      ctx,
		runner:   runner,
		keys:     config.Keys(),
		input:    in.Clone(),
		defaults: in.Clone(),
		height:   len(config.Keys()),
		outDir:   ".",
		prefix:   pipeline.DefaultExportPrefix,
		formats:  []string{pipeline.FormatSVG},
		now:      time.Now,
	}
	m.recompute()
	return m
}

func (m *editorModel) recompute() {
	m.geometry = layout.Compute(m.input.Resolve())
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case exportedMsg:
		if msg.err != nil {
			m.status, m.failed = errors.UserMessage(msg.err), true
			return m, nil
		}
		m.exported = append(m.exported, msg.paths...)
		m.status, m.failed = "Exported "+strings.Join(msg.paths, ", "), false
	case tea.WindowSizeMsg:
		m.height = msg.Height - 14
		if m.height < 5 {
			m.height = 5
		}
		m.scroll()
	}
	return m, nil
}

func (m editorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := m.keys[m.cursor]

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp, tea.KeyShiftTab:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown, tea.KeyTab, tea.KeyEnter:
		if m.cursor < len(m.keys)-1 {
			m.cursor++
		}
	case tea.KeyCtrlR:
		m.input = m.defaults.Clone()
		m.status, m.failed = "Reset to defaults", false
	case tea.KeyCtrlS:
		return m, m.export()
	case tea.KeyCtrlU:
		m.input[key] = ""
	case tea.KeyBackspace:
		v := []rune(m.input[key])
		if len(v) > 0 {
			m.input[key] = string(v[:len(v)-1])
		}
	case tea.KeySpace:
		m.input[key] += " "
	case tea.KeyRunes:
		m.input[key] += string(msg.Runes)
	default:
		return m, nil
	}

	m.scroll()
	m.recompute()
	return m, nil
}

func (m *editorModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// export renders the current state off the UI goroutine.
func (m editorModel) export() tea.Cmd {
	cfg := m.input.Resolve()
	ctx, runner, formats := m.ctx, m.runner, m.formats
	outDir, prefix, now := m.outDir, m.prefix, m.now()

	return func() tea.Msg {
		res, err := runner.Generate(ctx, cfg, pipeline.Options{Formats: formats, Prolog: true})
		if err != nil {
			return exportedMsg{err: err}
		}
		var paths []string
		for _, format := range formats {
			path := filepath.Join(outDir, pipeline.ExportFilename(prefix, now, format))
			if err := writeFile(path, res.Artifacts[format]); err != nil {
				return exportedMsg{err: err}
			}
			paths = append(paths, path)
		}
		return exportedMsg{paths: paths}
	}
}

func (m editorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Double Diamond"))
	b.WriteString("\n")
	b.WriteString(editDimStyle.Render("↑/↓ move  type to edit  ctrl+u clear  ctrl+s export  ctrl+r reset  esc quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.keys))
	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		key := m.keys[i]
		cursor, value := "  ", m.input[key]
		if i == m.cursor {
			cursor, value = "▸ ", value+editCursor
		}
		rows = append(rows, []string{cursor, key, value})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Field", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}
			if m.offset+row == m.cursor {
				return editSelectedStyle
			}
			if col == 1 {
				return editDimStyle
			}
			return editNormalStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	b.WriteString(m.geometryView())

	if m.status != "" {
		b.WriteString("\n")
		if m.failed {
			b.WriteString(editErrorStyle.Render(iconError + " " + m.status))
		} else {
			b.WriteString(StyleSuccess.Render(iconSuccess + " " + m.status))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// geometryView summarizes the computed layout in place of a picture.
func (m editorModel) geometryView() string {
	g := m.geometry
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s  %s %s  %s %s\n",
		editDimStyle.Render("canvas"), StyleNumber.Render(fmt.Sprintf("%gx%g", g.Width, g.Height)),
		editDimStyle.Render("header"), StyleNumber.Render(fmt.Sprintf("%g", g.HeaderHeight)),
		editDimStyle.Render("cy"), StyleNumber.Render(fmt.Sprintf("%g", g.CY)))

	xs := make([]string, len(g.X))
	for i, x := range g.X {
		xs[i] = fmt.Sprintf("%g", x)
	}
	fmt.Fprintf(&b, "%s %s  %s %s\n",
		editDimStyle.Render("phase width"), StyleNumber.Render(fmt.Sprintf("%g", g.PhaseWidth)),
		editDimStyle.Render("x"), StyleNumber.Render(strings.Join(xs, " ")))

	for _, w := range g.Warnings {
		b.WriteString(StyleWarning.Render(iconWarning+" "+w.Message) + "\n")
	}
	return b.String()
}
