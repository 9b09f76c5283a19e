package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/dbn-playground/errors"
	"github.com/wippyai/dbn-playground/playground"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateLoading modelState = iota
	stateReady
	stateFailed
)

type focusArea int

const (
	focusList focusArea = iota
	focusEditor
)

type bootFunc func(ctx context.Context) (*playground.Session, error)

type tuiModel struct {
	ctx  context.Context
	boot bootFunc

	session    *playground.Session
	dispatcher *playground.Dispatcher
	board      *playground.Board
	st         playground.State
	options    []playground.Option

	cursor    int
	focus     focusArea
	editor    textarea.Model
	spinner   spinner.Model
	secondary bool
	running   bool
	result    playground.BoardSnapshot
	elapsed   time.Duration
	status    string
	saveDir   string

	err   error
	state modelState
}

type loadedMsg struct {
	err     error
	session *playground.Session
}

type runDoneMsg struct {
	err     error
	st      playground.State
	result  playground.BoardSnapshot
	elapsed time.Duration
}

func newTUIModel(ctx context.Context, boot bootFunc, secondary bool) *tuiModel {
	ed := textarea.New()
	ed.Placeholder = "Paper 0"
	ed.ShowLineNumbers = true
	ed.SetWidth(72)
	ed.SetHeight(14)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &tuiModel{
		ctx:       ctx,
		boot:      boot,
		board:     &playground.Board{},
		editor:    ed,
		spinner:   sp,
		secondary: secondary,
		saveDir:   ".",
		state:     stateLoading,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bootstrap)
}

func (m *tuiModel) bootstrap() tea.Msg {
	s, err := m.boot(m.ctx)
	return loadedMsg{session: s, err: err}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateFailed
			return m, nil
		}
		m.session = msg.session
		m.dispatcher = msg.session.Dispatcher(m.board)
		m.options = msg.session.Options()
		m.st = msg.session.Initial()
		m.secondary = m.secondary && msg.session.Binding().HasSecondary()
		for i, o := range m.options {
			if o.Value == m.st.Selected {
				m.cursor = i
			}
		}
		m.editor.SetValue(m.st.Text)
		m.state = stateReady
		return m, nil

	case runDoneMsg:
		m.running = false
		m.result = msg.result
		m.elapsed = msg.elapsed
		switch {
		case msg.err != nil:
			m.status = msg.err.Error()
		case msg.st.Selected == m.st.Selected:
			// A selection made while the run was in flight wins.
			m.st.Text = msg.st.Text
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateLoading && !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	if m.state == stateReady && m.focus == focusEditor {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes global and list keys. Keys it does not handle fall
// through to the editor.
func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit, true
	}
	if m.state != stateReady {
		if key == "q" || key == "esc" {
			return tea.Quit, true
		}
		return nil, true
	}

	switch key {
	case "ctrl+r":
		return m.run(), true
	case "ctrl+g":
		if m.session.Binding().HasSecondary() {
			m.secondary = !m.secondary
		}
		return nil, true
	case "ctrl+s":
		m.save()
		return nil, true
	case "tab":
		m.toggleFocus()
		return nil, true
	}

	if m.focus == focusEditor {
		if key == "esc" {
			m.toggleFocus()
			return nil, true
		}
		return nil, false
	}

	switch key {
	case "q":
		return tea.Quit, true
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.selectCursor()
	}
	return nil, true
}

func (m *tuiModel) toggleFocus() {
	if m.focus == focusList {
		m.focus = focusEditor
		m.editor.Focus()
		return
	}
	m.focus = focusList
	m.editor.Blur()
}

func (m *tuiModel) selectCursor() {
	if len(m.options) == 0 {
		return
	}
	name := m.options[m.cursor].Value
	st, err := m.dispatcher.Dispatch(m.ctx, m.st, playground.SelectionChanged{Name: name})
	if err != nil {
		m.status = err.Error()
		return
	}
	m.st = st
	m.editor.SetValue(st.Text)
	m.status = ""
	m.focus = focusEditor
	m.editor.Focus()
}

// run dispatches a run request. A request made while a run is in flight is
// dropped.
func (m *tuiModel) run() tea.Cmd {
	if m.running || m.session.Runner().Busy() {
		return nil
	}
	m.running = true
	m.status = ""

	ctx, d, st := m.ctx, m.dispatcher, m.st
	req := playground.RunRequested{Source: m.editor.Value(), Secondary: m.secondary}
	board := m.board
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		start := time.Now()
		next, err := d.Dispatch(ctx, st, req)
		return runDoneMsg{st: next, err: err, result: board.Snapshot(), elapsed: time.Since(start)}
	})
}

func (m *tuiModel) save() {
	base := "playground"
	if m.st.Selected != "" {
		base = strings.TrimSuffix(m.st.Selected, filepath.Ext(m.st.Selected))
	}

	var saved []string
	for _, uri := range []string{m.result.Primary, m.result.Secondary} {
		if _, ok := playground.Classify(uri).(playground.Image); !ok {
			continue
		}
		mime, _, err := decodeDataURI(uri)
		if err != nil {
			m.status = err.Error()
			return
		}
		p := filepath.Join(m.saveDir, base+extension(mime))
		if _, err := writeDataURI(p, uri); err != nil {
			m.status = err.Error()
			return
		}
		saved = append(saved, p)
	}
	if len(saved) == 0 {
		m.status = "nothing to save"
		return
	}
	m.status = "saved " + strings.Join(saved, ", ")
}

func extension(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}

func (m *tuiModel) View() string {
	switch m.state {
	case stateFailed:
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	case stateLoading:
		return m.spinner.View() + " Loading engine and examples..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("DBN Playground"))
	if m.st.Selected != "" {
		b.WriteString(" ")
		b.WriteString(nameStyle.Render(m.st.Selected))
	}
	b.WriteString("\n\n")

	for i, o := range m.options {
		label := o.Label
		if ex, ok := m.session.Catalog().Lookup(o.Value); ok && !ex.Fetched() {
			label += dimStyle.Render(" (unavailable)")
		}
		if i == m.cursor && m.focus == focusList {
			b.WriteString(selectedStyle.Render("> " + label))
		} else if o.Value == m.st.Selected {
			b.WriteString("* " + label)
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.editor.View())
	b.WriteString("\n\n")

	switch {
	case m.running:
		b.WriteString(m.spinner.View() + " Running...")
	case m.result.Error != "":
		b.WriteString(errorStyle.Render(m.result.Error))
	case m.result.Primary != "":
		b.WriteString(resultStyle.Render("image: " + describeDataURI(m.result.Primary)))
		if m.result.Secondary != "" {
			b.WriteString("\n")
			if _, ok := playground.Classify(m.result.Secondary).(playground.Image); ok {
				b.WriteString(resultStyle.Render("animation: " + describeDataURI(m.result.Secondary)))
			} else {
				b.WriteString(errorStyle.Render("animation: " + m.result.Secondary))
			}
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s", m.elapsed.Round(time.Millisecond))))
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.status))
	}
	b.WriteString("\n\n")

	help := "tab switch pane • enter select • ctrl+r run • ctrl+s save • q quit"
	if m.session.Binding().HasSecondary() {
		toggle := "off"
		if m.secondary {
			toggle = "on"
		}
		help += " • ctrl+g animation: " + toggle
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the playground in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.InvalidInput(errors.PhaseConfig, "tui needs a terminal on stdout; use serve or run instead")
			}
			// The screen belongs to the UI; logs only go to log.file.
			if err := c.setup(io.Discard); err != nil {
				return err
			}
			defer c.teardown(context.Background())

			m := newTUIModel(cmd.Context(), c.app.Bootstrap, c.cfg.UI.Secondary)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
}
