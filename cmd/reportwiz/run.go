package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/0x6d61/reportwiz/internal/config"
	"github.com/0x6d61/reportwiz/internal/console"
	"github.com/0x6d61/reportwiz/internal/eventcfg"
	"github.com/0x6d61/reportwiz/internal/rules"
	"github.com/0x6d61/reportwiz/internal/runevent"
	"github.com/0x6d61/reportwiz/internal/settings"
	"github.com/0x6d61/reportwiz/internal/tui"
	"github.com/0x6d61/reportwiz/internal/workflow"
)

// app bundles everything loaded from the configuration.
type app struct {
	cfg       *config.AppConfig
	rules     *rules.Set
	events    *eventcfg.Registry
	workflows *workflow.Registry
	decisions *settings.Store
}

// loadConfig reads --config (or the default path).
func loadConfig() (*config.AppConfig, error) {
	path := flagConfig
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Config loaded", "path", path, "rules", cfg.RulesFile, "events", cfg.EventsDir)
	return cfg, nil
}

// loadApp loads config, rules, event definitions, workflows and remembered decisions.
func loadApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	set, err := rules.Load(cfg.RulesFile, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	events := eventcfg.NewRegistry()
	if err := events.LoadDir(cfg.EventsDir); err != nil {
		return nil, fmt.Errorf("failed to load event definitions: %w", err)
	}
	if err := events.LoadValues(cfg.UserEventsDir); err != nil {
		return nil, fmt.Errorf("failed to load event settings: %w", err)
	}

	workflows := workflow.NewRegistry()
	if err := workflows.LoadDir(cfg.WorkflowsDir); err != nil {
		return nil, fmt.Errorf("failed to load workflows: %w", err)
	}

	decisions, err := settings.Open(cfg.DecisionsFile)
	if err != nil {
		return nil, err
	}

	slog.Info("Configuration loaded",
		"rules", set.Len(),
		"events", len(events.All()),
		"workflows", len(workflows.All()))

	return &app{cfg: cfg, rules: set, events: events, workflows: workflows, decisions: decisions}, nil
}

// runner builds a workflow.Runner that talks to ui.
func (a *app) runner(ui runevent.Interaction) *workflow.Runner {
	return &workflow.Runner{
		Rules:         a.rules,
		Config:        a.events,
		UI:            ui,
		Decisions:     a.decisions,
		Shell:         a.cfg.Shell,
		Logger:        slog.Default(),
		HighWatermark: a.cfg.EventLog.HighWatermark,
		LowWatermark:  a.cfg.EventLog.LowWatermark,
	}
}

// chainFlags are shared by run and wizard.
type chainFlags struct {
	events   []string
	workflow string
}

func (f *chainFlags) register(c *cobra.Command) {
	c.Flags().StringArrayVarP(&f.events, "event", "e", nil, "Event to run (repeatable; a trailing * expands to matching events)")
	c.Flags().StringVarP(&f.workflow, "workflow", "w", "", "Workflow to run")
	c.MarkFlagsMutuallyExclusive("event", "workflow")
}

// run executes the selected workflow or events.
func (f *chainFlags) run(ctx context.Context, a *app, r *workflow.Runner, dir string) (workflow.Result, error) {
	if f.workflow != "" {
		wf, ok := a.workflows.Get(f.workflow)
		if !ok {
			return workflow.Result{}, &exitError{code: 1, err: fmt.Errorf("unknown workflow %q", f.workflow)}
		}
		return r.RunWorkflow(ctx, dir, wf)
	}
	return r.RunEvents(ctx, dir, f.events)
}

type runFlags struct {
	chainFlags
	batch bool
}

// newRunCmd creates the 'run' subcommand.
func newRunCmd() *cobra.Command {
	var flags runFlags
	c := &cobra.Command{
		Use:   "run <problem-dir>",
		Short: "Run events or a workflow on the terminal",
		Long: strings.TrimSpace(`
Run reporting events against a problem directory. Commands configured for each
event run one at a time; their output is shown on the terminal and appended to
the directory's event_log. Questions asked by the commands are answered on the
terminal, or get the default answer with --batch.

Examples:
  reportwiz run /var/spool/abrt/ccpp-2024-01-01 -e analyze_LocalGDB -e report_Logger
  reportwiz run /var/spool/abrt/ccpp-2024-01-01 -e 'collect_*'
  reportwiz run /var/spool/abrt/ccpp-2024-01-01 -w workflow_FedoraCCpp --batch
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], flags)
		},
	}
	flags.register(c)
	c.MarkFlagsOneRequired("event", "workflow")
	c.Flags().BoolVar(&flags.batch, "batch", false, "Do not ask questions; use the default answers")
	return c
}

func runRun(cmd *cobra.Command, dir string, flags runFlags) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	ui := console.New(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if flags.batch || a.cfg.NonInteractive {
		ui.NonInteractive = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := flags.run(ctx, a, a.runner(ui), dir)
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return err
		}
		// event_log write failures do not change the outcome.
		slog.Warn("Event run reported errors", "err", err)
	}
	return resultError(res)
}

// resultError converts a chain result into an exitError (nil on success).
func resultError(res workflow.Result) error {
	last, ok := res.Last()
	if !ok {
		return &exitError{code: 1, err: errors.New("no actions are defined for this problem")}
	}
	err := last.Err()
	if err == nil {
		return nil
	}

	code := last.ExitCode
	if code == 0 {
		code = 1
	}
	switch {
	case errors.Is(err, runevent.ErrNotReportable):
		return &exitError{code: code, err: fmt.Errorf("%s: the problem is not reportable", last.Event)}
	case errors.Is(err, runevent.ErrCancelled):
		return &exitError{code: code, err: fmt.Errorf("%s: cancelled", last.Event)}
	}
	return &exitError{code: code, err: fmt.Errorf("%s: %w", last.Event, err)}
}

// newWizardCmd creates the 'wizard' subcommand.
func newWizardCmd() *cobra.Command {
	var flags chainFlags
	c := &cobra.Command{
		Use:   "wizard <problem-dir>",
		Short: "Run events or a workflow in the interactive wizard",
		Long: strings.TrimSpace(`
Open the interactive reporting wizard for a problem directory. Without -e or
-w the wizard lists the workflows and the events applicable to the directory.

Keys:
  Enter    run the selected workflow or event
  Tab      switch between the list and the log
  Ctrl+X   cancel the running event
  Ctrl+C   quit
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard(cmd, args[0], flags)
		},
	}
	flags.register(c)
	return c
}

func runWizard(cmd *cobra.Command, dir string, flags chainFlags) error {
	a, err := loadApp()
	if err != nil {
		return err
	}

	choices, start, err := wizardChoices(a, dir, flags)
	if err != nil {
		return err
	}

	bridge := tui.NewBridge()
	r := a.runner(bridge)
	r.OnStart = bridge.Started

	// Wait for the chain to stop before exiting so the children are reaped.
	var (
		mu   sync.Mutex
		done chan struct{}
	)
	run := func(ctx context.Context, c tui.Choice) (workflow.Result, error) {
		ch := make(chan struct{})
		mu.Lock()
		done = ch
		mu.Unlock()
		defer close(ch)
		if c.Workflow {
			if wf, ok := a.workflows.Get(c.Name); ok {
				return r.RunWorkflow(ctx, dir, wf)
			}
		}
		return r.RunEvents(ctx, dir, c.Events)
	}

	m := tui.New(dir, choices, bridge, run)
	if start >= 0 {
		m.StartWith(start)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	bridge.Close()
	mu.Lock()
	ch := done
	mu.Unlock()
	if ch != nil {
		<-ch
	}
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm, ok := final.(tui.Model)
	if !ok {
		return nil
	}
	if err := fm.Err(); err != nil {
		slog.Warn("Event run reported errors", "err", err)
	}
	if res, ok := fm.Result(); ok {
		return resultError(res)
	}
	return nil
}

// wizardChoices lists workflows and the events applicable to dir.
// When -e or -w was given, only that choice is listed and started immediately.
func wizardChoices(a *app, dir string, flags chainFlags) ([]tui.Choice, int, error) {
	if flags.workflow != "" {
		wf, ok := a.workflows.Get(flags.workflow)
		if !ok {
			return nil, -1, &exitError{code: 1, err: fmt.Errorf("unknown workflow %q", flags.workflow)}
		}
		return []tui.Choice{tui.ChoiceFromWorkflow(wf)}, 0, nil
	}
	if len(flags.events) > 0 {
		c := tui.Choice{
			Name:   strings.Join(flags.events, ","),
			Title:  strings.Join(flags.events, " → "),
			Events: flags.events,
		}
		return []tui.Choice{c}, 0, nil
	}

	var choices []tui.Choice
	for _, wf := range a.workflows.All() {
		choices = append(choices, tui.ChoiceFromWorkflow(wf))
	}
	names, err := a.rules.ListEvents(dir, "")
	if err != nil {
		return nil, -1, &exitError{code: 1, err: err}
	}
	for _, name := range names {
		title, desc := name, ""
		if def, ok := a.events.Get(name); ok {
			title, desc = def.Title(), def.Description
		}
		choices = append(choices, tui.ChoiceFromEvent(name, title, desc))
	}
	if len(choices) == 0 {
		return nil, -1, &exitError{code: 1, err: fmt.Errorf("no events are applicable to %s", dir)}
	}
	return choices, -1, nil
}
