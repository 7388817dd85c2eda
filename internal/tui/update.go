package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/0x6d61/reportwiz/internal/runevent"
)

// Update implements tea.Model and routes all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg.Width, msg.Height)
		m.ready = true
		m.rebuildViewport()
		return m, nil

	case spinner.TickMsg:
		if m.running {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case startMsg:
		return m, m.startRun(msg.index)

	// Events from the run goroutine; re-register the wait after each one.
	case RunEventMsg:
		m.handleRunEvent(RunEvent(msg))
		if m.bridge != nil {
			return m, RunEventCmd(m.bridge.Events())
		}
		return m, nil

	case runFinishedMsg:
		m.finishRun(msg)
		return m, nil

	case tea.KeyMsg:
		// Quit confirmation dialog intercepts all keys when active.
		if m.inputMode == InputConfirmQuit {
			return m.handleConfirmQuitKey(msg)
		}

		// Ctrl+C: show confirmation dialog instead of quitting immediately.
		if msg.String() == "ctrl+c" {
			m.prevMode = m.inputMode
			m.inputMode = InputConfirmQuit
			return m, nil
		}

		// Alerts must be acknowledged before anything else.
		if len(m.alerts) > 0 {
			switch msg.String() {
			case "enter", "esc", " ":
				m.alerts = m.alerts[1:]
			}
			return m, nil
		}

		// Ctrl+X cancels the running event from any mode.
		if msg.String() == "ctrl+x" {
			m.cancelRun()
			return m, nil
		}

		switch m.inputMode {
		case InputSelect:
			m.handleSelectKey(msg)
			return m, nil
		case InputText:
			return m.handleTextKey(msg)
		}

		if msg.String() == "tab" {
			m.cycleFocus()
			return m, nil
		}

		switch m.focus {
		case FocusList:
			switch msg.String() {
			case "enter":
				return m, m.startRun(m.list.Index())
			case "q":
				if !m.running {
					m.shutdown()
					return m, tea.Quit
				}
			}
			m.list, cmd = m.list.Update(msg)
			cmds = append(cmds, cmd)

		case FocusViewport:
			if msg.String() == "q" && !m.running {
				m.shutdown()
				return m, tea.Quit
			}
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// handleRunEvent applies one bridge event to the model.
func (m *Model) handleRunEvent(ev RunEvent) {
	switch ev.Kind {
	case RunEventStarted:
		m.current = ev.State
		m.appendLog(RunEventStarted, "Event "+ev.Text)
	case RunEventLog, RunEventError:
		m.appendLog(ev.Kind, ev.Text)
	case RunEventAlert:
		m.alerts = append(m.alerts, ev.Text)
		m.appendLog(RunEventAlert, ev.Text)
	case RunEventPrompt:
		if ev.Prompt != nil {
			m.showPrompt(ev.Prompt)
		}
	case RunEventFinished:
		m.finishRun(runFinishedMsg{result: ev.Result, err: ev.Err})
	}
}

// showPrompt switches the input bar to answer p.
func (m *Model) showPrompt(p *Prompt) {
	m.prompt = p
	switch p.Kind {
	case runevent.KindAsk, runevent.KindAskPassword:
		m.input.Reset()
		m.input.EchoMode = textinput.EchoNormal
		if p.Kind == runevent.KindAskPassword {
			m.input.EchoMode = textinput.EchoPassword
			m.input.EchoCharacter = '•'
		}
		m.inputMode = InputText
		m.focus = FocusInput
		m.input.Focus()
	default:
		opts := []SelectOption{
			{Label: "Yes", Value: runevent.ReplyYes},
			{Label: "No", Value: runevent.ReplyNo},
		}
		if p.Kind == runevent.KindAskYesNoYesForever || p.Kind == runevent.KindAskYesNoSaveResult {
			opts = append(opts, SelectOption{Label: "Yes, and don't ask again", Value: replyForever})
		}
		if p.SaveResult {
			opts = append(opts, SelectOption{Label: "No, and don't ask again", Value: replyNever})
		}
		m.showSelect(p.Message, opts, func(m *Model, value string) {
			m.answerPrompt(value, selectLabel(opts, value))
		})
	}
	m.rebuildViewport()
}

// showSelect opens the select bar.
func (m *Model) showSelect(title string, opts []SelectOption, cb func(m *Model, value string)) {
	m.selectTitle = title
	m.selectOptions = opts
	m.selectIndex = 0
	m.selectCallback = cb
	m.inputMode = InputSelect
}

// answerPrompt replies to the pending prompt and records the exchange in the log.
// shown is what ends up in the log (passwords are masked).
func (m *Model) answerPrompt(answer, shown string) {
	p := m.prompt
	if p == nil {
		return
	}
	m.prompt = nil
	m.inputMode = InputNormal
	m.input.Reset()
	m.input.Blur()
	m.input.EchoMode = textinput.EchoNormal
	m.focus = FocusViewport
	p.Reply(answer)
	m.appendLog(RunEventPrompt, p.Message+" "+shown)
}

// finishRun records the outcome of RunFunc.
func (m *Model) finishRun(msg runFinishedMsg) {
	m.running = false
	m.current = nil
	res := msg.result
	m.result = &res
	m.runErr = msg.err
	if m.prompt != nil {
		m.prompt = nil
		m.inputMode = InputNormal
	}

	switch last, ok := res.Last(); {
	case msg.err != nil:
		m.appendLog(RunEventError, "Error: "+msg.err.Error())
	case !ok:
		m.appendLog(RunEventError, "No processing is defined for this problem")
	case res.ThankYou:
		m.appendLog(RunEventLog, "Finished. Thank you.")
	case last.Success():
		m.appendLog(RunEventLog, "Finished successfully.")
	case last.NotReportable():
		m.appendLog(RunEventError, "The problem is not reportable.")
	default:
		m.appendLog(RunEventError, "Processing of "+last.Event+" "+last.Status.String())
	}
	m.focus = FocusViewport
}

// handleTextKey processes key events while answering a text question.
func (m Model) handleTextKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		answer := m.input.Value()
		shown := answer
		if m.prompt != nil && m.prompt.Kind == runevent.KindAskPassword {
			shown = strings.Repeat("*", 8)
		}
		m.answerPrompt(answer, shown)
		return m, nil
	case tea.KeyEscape:
		m.answerPrompt("", "")
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleResize recomputes all component dimensions to fit the new terminal size.
func (m *Model) handleResize(w, h int) {
	m.width = w
	m.height = h

	const (
		statusBarH  = 1
		inputAreaH  = 3 // rounded border + one line
		paneVBorder = 2 // top + bottom borders for panes
	)

	paneH := h - statusBarH - inputAreaH - paneVBorder
	if paneH < 4 {
		paneH = 4
	}

	m.list.SetSize(leftPaneOuterWidth-4, paneH)

	vpW := w - leftPaneOuterWidth - 4
	if vpW < 10 {
		vpW = 10
	}

	if !m.ready {
		m.viewport = viewport.New(vpW, paneH)
	} else {
		m.viewport.Width = vpW
		m.viewport.Height = paneH
	}

	m.input.Width = w - 8
}

// cycleFocus moves focus List -> Viewport -> List.
func (m *Model) cycleFocus() {
	switch m.focus {
	case FocusList:
		m.focus = FocusViewport
	default:
		m.focus = FocusList
	}
}

// handleConfirmQuitKey processes key events in the quit confirmation dialog.
func (m Model) handleConfirmQuitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.shutdown()
		return m, tea.Quit
	case "n", "N", "esc":
		m.inputMode = m.prevMode
		return m, nil
	}
	// Other keys: ignore, stay in confirmation dialog.
	return m, nil
}

// handleSelectKey processes key events when the select UI is active.
// y/n/f/e pick the matching option directly.
func (m *Model) handleSelectKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyUp:
		if m.selectIndex > 0 {
			m.selectIndex--
		}
		return
	case tea.KeyDown:
		if m.selectIndex < len(m.selectOptions)-1 {
			m.selectIndex++
		}
		return
	case tea.KeyEnter:
		value := ""
		if len(m.selectOptions) > 0 {
			value = m.selectOptions[m.selectIndex].Value
		}
		m.commitSelect(value)
		return
	case tea.KeyEscape:
		m.commitSelect(runevent.ReplyNo)
		return
	}

	shortcut := map[string]string{
		"y": runevent.ReplyYes,
		"n": runevent.ReplyNo,
		"f": replyForever,
		"e": replyNever,
	}
	if value, ok := shortcut[strings.ToLower(msg.String())]; ok && selectLabel(m.selectOptions, value) != "" {
		m.commitSelect(value)
	}
}

// commitSelect closes the select bar and runs its callback.
func (m *Model) commitSelect(value string) {
	cb := m.selectCallback
	// Reset first: the callback may open another select.
	m.inputMode = InputNormal
	m.selectOptions = nil
	m.selectCallback = nil
	if cb != nil && value != "" {
		cb(m, value)
	}
}

func selectLabel(opts []SelectOption, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return ""
}
