package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary      = lipgloss.Color("#00D7FF") // cyan  — focus / running
	colorSecondary    = lipgloss.Color("#AF87FF") // purple — workflows
	colorSuccess      = lipgloss.Color("#87FF5F") // green — finished
	colorWarning      = lipgloss.Color("#FFD700") // yellow — questions / alerts
	colorDanger       = lipgloss.Color("#FF5555") // red — errors
	colorMuted        = lipgloss.Color("#555577") // dim gray — timestamps / hints
	colorBorder       = lipgloss.Color("#333355") // default border
	colorBorderActive = lipgloss.Color("#00D7FF") // focused border
	colorTitle        = lipgloss.Color("#FFFFFF") // pane titles
)

// Pane borders
var (
	leftPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	leftPaneActiveStyle = leftPaneStyle.
				BorderForeground(colorBorderActive)

	rightPaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	rightPaneActiveStyle = rightPaneStyle.
				BorderForeground(colorBorderActive)
)

// Input bar
var (
	inputBarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	inputBarActiveStyle = inputBarStyle.
				BorderForeground(colorWarning)
)

// Status bar (top)
var statusBarStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("#0D0D1A")).
	Foreground(colorPrimary).
	Padding(0, 1)

// Pending question (rendered inside viewport)
var promptBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorWarning).
	Padding(0, 1)

// Alert (centered overlay)
var alertBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorWarning).
	Padding(0, 1)

// Quit confirmation dialog (centered overlay)
var confirmQuitBoxStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorDanger).
	Padding(0, 2)

// List icons
var (
	eventIconStyle    = lipgloss.NewStyle().Foreground(colorPrimary)
	workflowIconStyle = lipgloss.NewStyle().Foreground(colorSecondary)
)

// Session log
var (
	timestampStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	logErrorStyle   = lipgloss.NewStyle().Foreground(colorDanger)
	logAlertStyle   = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	logPromptStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	logStartedStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

// Status text colors
var (
	statusIdleStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	statusRunningStyle = lipgloss.NewStyle().Foreground(colorPrimary)
	statusDoneStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	statusFailedStyle  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
)
