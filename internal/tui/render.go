package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/0x6d61/reportwiz/internal/runevent"
)

// renderLogLine renders one session log entry.
// Format:
//
//	15:04:05 │ message
func renderLogLine(l logLine, width int) string {
	ts := timestampStyle.Render(l.at.Format("15:04:05"))

	var body string
	switch l.kind {
	case RunEventError:
		body = logErrorStyle.Render(l.text)
	case RunEventAlert:
		body = logAlertStyle.Render("! " + l.text)
	case RunEventPrompt:
		body = logPromptStyle.Render("? " + l.text)
	case RunEventStarted:
		body = logStartedStyle.Render("▶ " + l.text)
	default:
		body = l.text
	}

	line := ts + " │ " + body
	if width > 0 && lipgloss.Width(line) > width {
		line = lipgloss.NewStyle().Width(width).Render(line)
	}
	return line + "\n"
}

// renderPromptBox renders the pending question at the bottom of the log.
func renderPromptBox(p *Prompt, width int) string {
	title := lipgloss.NewStyle().
		Foreground(colorWarning).
		Bold(true).
		Render("?  " + promptTitle(p.Kind))

	var controls string
	switch p.Kind {
	case runevent.KindAsk, runevent.KindAskPassword:
		controls = "[Enter] Send   [Esc] Send empty"
	default:
		controls = "[y] Yes   [n] No"
		if p.Kind != runevent.KindAskYesNo {
			controls += "   [f] Always yes"
		}
		if p.SaveResult {
			controls += "   [e] Always no"
		}
	}
	controls = lipgloss.NewStyle().Foreground(colorMuted).Render("  " + controls)

	boxWidth := width - 2
	if boxWidth < 10 {
		boxWidth = 10
	}
	return promptBoxStyle.Width(boxWidth).Render(
		title+"\n\n  "+p.Message+"\n\n"+controls,
	) + "\n"
}

func promptTitle(k runevent.Kind) string {
	switch k {
	case runevent.KindAskPassword:
		return "PASSWORD REQUIRED"
	case runevent.KindAsk:
		return "INPUT REQUIRED"
	}
	return "CONFIRMATION REQUIRED"
}

// renderAlert renders an alert message for the centered overlay.
// Alerts may carry Markdown; on render failure the plain text is shown.
func renderAlert(msg string, width int) string {
	body, err := renderMarkdown(msg, width)
	if err != nil {
		body = msg
	}
	body = strings.Trim(body, "\n")
	hint := lipgloss.NewStyle().Foreground(colorMuted).Render("[Enter] OK")
	return alertBoxStyle.Width(width).Render(body + "\n\n" + hint)
}

// renderMarkdown renders Markdown for the terminal with glamour.
// The dark style is set explicitly: WithAutoStyle() falls back to plain output without a TTY.
// glamour's dark style adds margins on both sides, so the wrap width is reduced.
func renderMarkdown(text string, width int) (string, error) {
	// left 2 + right 2 margin of the dark style
	wrapWidth := width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return "", err
	}
	out, err := r.Render(text)
	if err != nil {
		return "", err
	}
	return out, nil
}
