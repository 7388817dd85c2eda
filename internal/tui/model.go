// Package tui implements the Bubble Tea reporting wizard for reportwiz.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0x6d61/reportwiz/internal/runevent"
	"github.com/0x6d61/reportwiz/internal/workflow"
)

// FocusState tracks which pane has keyboard focus.
type FocusState int

const (
	FocusList     FocusState = iota // left pane: workflow / event list
	FocusViewport                   // right pane: event log
	FocusInput                      // bottom: answer input
)

// InputMode selects how key presses are interpreted.
type InputMode int

const (
	InputNormal      InputMode = iota
	InputText                  // answering ASK / ASK_PASSWORD
	InputSelect                // answering a yes/no question
	InputConfirmQuit           // quit confirmation dialog
)

// leftPaneOuterWidth is the total rendered width of the left pane (borders included).
const leftPaneOuterWidth = 32

// SelectOption is one entry of the select bar.
type SelectOption struct {
	Label string
	Value string
}

// Choice is something the user can run: a workflow or a single event.
type Choice struct {
	Name        string
	Title       string
	Description string
	Workflow    bool
	Events      []string
}

// ChoiceFromWorkflow builds a Choice for wf.
func ChoiceFromWorkflow(wf *workflow.Workflow) Choice {
	return Choice{
		Name:        wf.Name,
		Title:       wf.Title(),
		Description: wf.Description,
		Workflow:    true,
		Events:      wf.Events,
	}
}

// ChoiceFromEvent builds a Choice that runs a single event.
func ChoiceFromEvent(event, title, description string) Choice {
	if title == "" {
		title = event
	}
	return Choice{Name: event, Title: title, Description: description, Events: []string{event}}
}

// RunFunc executes the chosen workflow or event. It is called off the UI goroutine.
type RunFunc func(ctx context.Context, c Choice) (workflow.Result, error)

// runFinishedMsg is delivered when RunFunc returns and no bridge can carry the result.
type runFinishedMsg struct {
	result workflow.Result
	err    error
}

// logLine is one rendered entry of the session log.
type logLine struct {
	at   time.Time
	kind RunEventKind
	text string
}

// Model is the root Bubble Tea model for the reporting wizard.
type Model struct {
	width    int
	height   int
	ready    bool
	focus    FocusState
	list     list.Model
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	dir     string
	choices []Choice
	run     RunFunc
	bridge  *Bridge
	ctx     context.Context
	stop    context.CancelFunc
	auto    int // index of a choice started from Init, -1 for none

	inputMode InputMode
	prevMode  InputMode // restored when the quit dialog is dismissed
	logs      []logLine
	running   bool
	active    *Choice
	current   *runevent.State
	prompt    *Prompt
	alerts    []string
	result    *workflow.Result
	runErr    error

	selectTitle    string
	selectOptions  []SelectOption
	selectIndex    int
	selectCallback func(m *Model, value string)
}

// choiceItem wraps Choice to satisfy the list.Item interface.
type choiceItem struct {
	c Choice
}

func (i choiceItem) Title() string {
	icon := eventIconStyle.Render("●")
	if i.c.Workflow {
		icon = workflowIconStyle.Render("◆")
	}
	return fmt.Sprintf("%s %s", icon, i.c.Title)
}

func (i choiceItem) Description() string {
	if i.c.Description != "" {
		return i.c.Description
	}
	return strings.Join(i.c.Events, " → ")
}

func (i choiceItem) FilterValue() string { return i.c.Name }

// New creates the wizard for problem directory dir.
func New(dir string, choices []Choice, bridge *Bridge, run RunFunc) Model {
	items := make([]list.Item, len(choices))
	for i, c := range choices {
		items[i] = choiceItem{c: c}
	}

	d := list.NewDefaultDelegate()
	d.ShowDescription = true
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(colorPrimary)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(colorSecondary)

	l := list.New(items, d, leftPaneOuterWidth-4, 20)
	l.Title = "REPORT"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(colorTitle).
		Bold(true).
		Padding(0, 1)

	ti := textinput.New()
	ti.Placeholder = "Answer and press Enter..."
	ti.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	ctx, stop := context.WithCancel(context.Background())
	return Model{
		list:    l,
		input:   ti,
		spinner: sp,
		focus:   FocusList,
		dir:     dir,
		choices: choices,
		run:     run,
		bridge:  bridge,
		ctx:     ctx,
		stop:    stop,
		auto:    -1,
	}
}

// StartWith makes the wizard run choices[index] immediately instead of waiting for a selection.
func (m *Model) StartWith(index int) {
	if index >= 0 && index < len(m.choices) {
		m.auto = index
		m.list.Select(index)
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.bridge != nil {
		cmds = append(cmds, RunEventCmd(m.bridge.Events()))
	}
	if m.auto >= 0 {
		cmds = append(cmds, func() tea.Msg { return startMsg{index: m.auto} })
	}
	return tea.Batch(cmds...)
}

// startMsg asks the model to run choices[index].
type startMsg struct {
	index int
}

// Result returns the outcome of the last finished run, if any.
func (m Model) Result() (workflow.Result, bool) {
	if m.result == nil {
		return workflow.Result{}, false
	}
	return *m.result, true
}

// Err returns the error RunFunc returned, if any.
func (m Model) Err() error { return m.runErr }

// startRun launches RunFunc for choices[index] on a command goroutine.
func (m *Model) startRun(index int) tea.Cmd {
	if m.running || index < 0 || index >= len(m.choices) || m.run == nil {
		return nil
	}
	c := m.choices[index]
	m.active = &c
	m.running = true
	m.result = nil
	m.runErr = nil
	m.current = nil
	m.logs = nil
	m.appendLog(RunEventLog, fmt.Sprintf("Running %s on %s", c.Title, m.dir))
	m.focus = FocusViewport

	return tea.Batch(m.spinner.Tick, m.runCmd(c))
}

// runCmd executes RunFunc. With a bridge, completion travels through the bridge
// so it arrives after the run's last log lines.
func (m *Model) runCmd(c Choice) tea.Cmd {
	ctx, run, bridge := m.ctx, m.run, m.bridge
	return func() tea.Msg {
		res, err := run(ctx, c)
		if bridge != nil && bridge.Finished(res, err) {
			return nil
		}
		return runFinishedMsg{result: res, err: err}
	}
}

// cancelRun sends SIGTERM to the running event's process group.
func (m *Model) cancelRun() {
	if !m.running || m.current == nil {
		return
	}
	if err := m.current.Cancel(); err != nil {
		m.appendLog(RunEventError, "Cancel failed: "+err.Error())
		return
	}
	m.appendLog(RunEventError, "Cancelling "+m.current.Event()+"...")
}

// shutdown releases the run goroutine before the program exits.
func (m *Model) shutdown() {
	if m.stop != nil {
		m.stop()
	}
	if m.bridge != nil {
		m.bridge.Close()
	}
}

func (m *Model) appendLog(kind RunEventKind, text string) {
	m.logs = append(m.logs, logLine{at: time.Now(), kind: kind, text: text})
	m.rebuildViewport()
}

// rebuildViewport regenerates the viewport content, including any pending prompt at the bottom.
func (m *Model) rebuildViewport() {
	if m.active == nil && len(m.logs) == 0 {
		m.viewport.SetContent("  Select a workflow or event on the left and press Enter.\n\n  Problem directory: " + m.dir)
		return
	}

	var sb strings.Builder
	if m.active != nil {
		header := lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Render(fmt.Sprintf("═══ %s [%s] ═══", m.active.Title, m.statusText()))
		sb.WriteString(header + "\n\n")
	}

	width := m.viewport.Width
	for _, l := range m.logs {
		sb.WriteString(renderLogLine(l, width))
	}

	if p := m.prompt; p != nil {
		sb.WriteString("\n")
		sb.WriteString(renderPromptBox(p, width))
	}

	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

// statusText summarises the run state for the header and status bar.
func (m Model) statusText() string {
	switch {
	case m.running && m.current != nil:
		return "running " + m.current.Event()
	case m.running:
		return "starting"
	case m.runErr != nil:
		return "error"
	case m.result != nil:
		last, ok := m.result.Last()
		if !ok {
			return "nothing to do"
		}
		if m.result.ThankYou {
			return "finished"
		}
		return last.Status.String()
	}
	return "idle"
}
