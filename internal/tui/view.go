package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// View implements tea.Model and renders the wizard layout.
func (m Model) View() string {
	if !m.ready {
		return "\n  Starting reportwiz...\n"
	}

	// ── Status bar (1 line) ──────────────────────────────────────────────────
	statusBar := m.renderStatusBar()

	// ── Left pane: workflows and events ──────────────────────────────────────
	leftStyle := leftPaneStyle
	if m.focus == FocusList {
		leftStyle = leftPaneActiveStyle
	}
	leftPane := leftStyle.Width(leftPaneOuterWidth - 2).Render(m.list.View())

	// ── Right pane: event log ────────────────────────────────────────────────
	rightContentW := m.width - leftPaneOuterWidth - 2
	rightStyle := rightPaneStyle
	if m.focus == FocusViewport || m.focus == FocusInput {
		rightStyle = rightPaneActiveStyle
	}
	rightPane := rightStyle.Width(rightContentW).Render(m.viewport.View())

	panesRow := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	// ── Input bar ────────────────────────────────────────────────────────────
	inputBar := m.renderInputBar()

	base := lipgloss.JoinVertical(lipgloss.Left, statusBar, panesRow, inputBar)

	switch {
	case m.inputMode == InputConfirmQuit:
		base = m.overlayCenter(base, m.renderConfirmQuit())
	case len(m.alerts) > 0:
		w := m.width * 2 / 3
		if w < 30 {
			w = 30
		}
		base = m.overlayCenter(base, renderAlert(m.alerts[0], w))
	}

	return base
}

// renderStatusBar renders the single-line header with the problem directory and run state.
func (m Model) renderStatusBar() string {
	appName := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("reportwiz")

	dir := lipgloss.NewStyle().Foreground(colorMuted).Render(m.dir)

	var state string
	switch text := m.statusText(); {
	case m.running:
		state = m.spinner.View() + " " + statusRunningStyle.Render(text)
	case m.runErr != nil:
		state = statusFailedStyle.Render(text)
	case m.result != nil && m.result.Err() == nil:
		state = statusDoneStyle.Render(text)
	case m.result != nil:
		state = statusFailedStyle.Render(text)
	default:
		state = statusIdleStyle.Render(text)
	}

	hint := lipgloss.NewStyle().Foreground(colorMuted).Render(m.keyHint())

	left := appName + "  " + dir + "  " + state
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(hint)-2))

	return statusBarStyle.Width(m.width).Render(left + gap + hint)
}

// keyHint returns the shortcuts valid in the current state.
func (m Model) keyHint() string {
	switch {
	case m.running:
		return "[Ctrl+X] Cancel  [Ctrl+C] Quit"
	case m.focus == FocusList:
		return "[Enter] Run  [Tab] Log  [q] Quit"
	}
	return "[Tab] List  [q] Quit"
}

// renderInputBar renders the bottom input area.
// When select mode is active, it renders the select UI instead of the text input.
func (m Model) renderInputBar() string {
	if m.inputMode == InputSelect {
		return m.renderSelectBar()
	}

	w := m.width - 2
	if m.inputMode == InputText && m.prompt != nil {
		prefix := lipgloss.NewStyle().Foreground(colorWarning).Bold(true).Render("> ")
		return inputBarActiveStyle.Width(w).Render(prefix + m.input.View())
	}

	var prefix string
	switch m.focus {
	case FocusList:
		prefix = "[List] ↑↓ Select workflow or event"
	default:
		prefix = "[Log]  ↑↓ Scroll"
	}
	return inputBarStyle.Width(w).Render(lipgloss.NewStyle().Foreground(colorMuted).Render(prefix))
}

// renderSelectBar renders the interactive selection UI in the input bar area.
func (m Model) renderSelectBar() string {
	var sb strings.Builder

	title := lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render(m.selectTitle)
	sb.WriteString(title + "\n")

	for i, opt := range m.selectOptions {
		if i == m.selectIndex {
			selected := lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Render("> " + opt.Label)
			sb.WriteString("  " + selected + "\n")
		} else {
			sb.WriteString("    " + opt.Label + "\n")
		}
	}

	hint := lipgloss.NewStyle().Foreground(colorMuted).Render("[Up/Down] Move  [Enter] Select  [Esc] No")
	sb.WriteString(hint)

	w := m.width - 2
	return inputBarActiveStyle.Width(w).Render(sb.String())
}

// renderConfirmQuit renders the centered quit confirmation dialog.
func (m Model) renderConfirmQuit() string {
	text := "Quit reportwiz?"
	if m.running {
		text = "Quit and cancel the running event?"
	}
	title := lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true).
		Render(text)

	hint := lipgloss.NewStyle().
		Foreground(colorMuted).
		Render("[Y] Yes  [N] No  [Esc] Cancel")

	content := fmt.Sprintf("\n  %s\n\n  %s\n", title, hint)

	return confirmQuitBoxStyle.Render(content)
}

// overlayCenter places the overlay string in the center of the base string.
func (m Model) overlayCenter(base, overlay string) string {
	baseLines := strings.Split(base, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayH := len(overlayLines)
	overlayW := 0
	for _, line := range overlayLines {
		if w := lipgloss.Width(line); w > overlayW {
			overlayW = w
		}
	}

	startRow := max(0, (m.height-overlayH)/2)
	startCol := max(0, (m.width-overlayW)/2)

	for len(baseLines) < startRow+overlayH {
		baseLines = append(baseLines, strings.Repeat(" ", m.width))
	}

	for i, oLine := range overlayLines {
		row := startRow + i
		baseLine := baseLines[row]
		for lipgloss.Width(baseLine) < startCol {
			baseLine += " "
		}

		// Rune-safe slicing based on visual width.
		left := truncateVisual(baseLine, startCol)
		rightStart := startCol + lipgloss.Width(oLine)
		right := ""
		if lipgloss.Width(baseLine) > rightStart {
			right = skipVisual(baseLine, rightStart)
		}

		baseLines[row] = left + oLine + right
	}

	return strings.Join(baseLines, "\n")
}

// truncateVisual returns the first n visual columns of a string.
func truncateVisual(s string, n int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > n {
			return s[:i] + strings.Repeat(" ", n-w)
		}
		w += rw
	}
	// Shorter than n: pad with spaces.
	return s + strings.Repeat(" ", n-w)
}

// skipVisual returns everything after the first n visual columns.
func skipVisual(s string, n int) string {
	w := 0
	for i, r := range s {
		if w >= n {
			return s[i:]
		}
		w += runewidth.RuneWidth(r)
	}
	return ""
}
