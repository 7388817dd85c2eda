package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/0x6d61/reportwiz/internal/eventcfg"
	"github.com/0x6d61/reportwiz/internal/workflow"
)

// newTable returns a rounded table writer mirrored to w.
func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.DrawBorder = true
	return tw
}

type eventsFlags struct {
	prefix   string
	commands bool
}

// newEventsCmd creates the 'events' subcommand.
func newEventsCmd() *cobra.Command {
	var flags eventsFlags
	c := &cobra.Command{
		Use:   "events <problem-dir>",
		Short: "List the events applicable to a problem directory",
		Long: strings.TrimSpace(`
List the events whose rule conditions match the given problem directory, in
rule file order.

Examples:
  reportwiz events /var/spool/abrt/ccpp-2024-01-01
  reportwiz events /var/spool/abrt/ccpp-2024-01-01 --prefix report_ --commands
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, args[0], flags)
		},
	}
	c.Flags().StringVarP(&flags.prefix, "prefix", "p", "", "Only list events starting with this prefix")
	c.Flags().BoolVar(&flags.commands, "commands", false, "Show the commands each event would run")
	return c
}

func runEvents(cmd *cobra.Command, dir string, flags eventsFlags) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	names, err := a.rules.ListEvents(dir, flags.prefix)
	if err != nil {
		return err
	}
	slog.Info("Listing events", "dir", dir, "prefix", flags.prefix, "count", len(names))

	tw := newTable(cmd.OutOrStdout())
	header := table.Row{"Event", "Name", "Description"}
	if flags.commands {
		header = append(header, "Commands")
	}
	tw.AppendHeader(header)

	for _, name := range names {
		title, desc := "", ""
		if def, ok := a.events.Get(name); ok {
			title, desc = def.Title(), def.Description
		}
		row := table.Row{name, title, desc}
		if flags.commands {
			cmds, err := a.rules.Resolve(dir, name)
			if err != nil {
				return err
			}
			lines := make([]string, 0, len(cmds))
			for _, c := range cmds {
				lines = append(lines, c.Line)
			}
			row = append(row, strings.Join(lines, "\n"))
		}
		tw.AppendRow(row)
	}
	tw.Render()
	return nil
}

// newWorkflowsCmd creates the 'workflows' subcommand.
func newWorkflowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List the configured workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			reg := workflow.NewRegistry()
			if err := reg.LoadDir(cfg.WorkflowsDir); err != nil {
				return fmt.Errorf("failed to load workflows: %w", err)
			}

			tw := newTable(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Workflow", "Name", "Priority", "Events"})
			for _, wf := range reg.All() {
				tw.AppendRow(table.Row{wf.Name, wf.Title(), wf.Priority, strings.Join(wf.Events, ", ")})
			}
			tw.Render()
			return nil
		},
	}
}

// newConfigureCmd creates the 'configure' subcommand.
func newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure <event> [OPTION=VALUE...]",
		Short: "Show or change the options passed to an event",
		Long: strings.TrimSpace(`
Without assignments, show the options of an event and their current values.
With OPTION=VALUE assignments, store the new values in the user settings
directory; they are exported to the event's commands as environment variables.

Examples:
  reportwiz configure report_Bugzilla
  reportwiz configure report_Bugzilla Bugzilla_Login=alice Bugzilla_Password=secret
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, args[0], args[1:])
		},
	}
}

func runConfigure(cmd *cobra.Command, event string, assignments []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg := eventcfg.NewRegistry()
	if err := reg.LoadDir(cfg.EventsDir); err != nil {
		return fmt.Errorf("failed to load event definitions: %w", err)
	}
	if err := reg.LoadValues(cfg.UserEventsDir); err != nil {
		return fmt.Errorf("failed to load event settings: %w", err)
	}
	def, ok := reg.Get(event)
	if !ok {
		return fmt.Errorf("unknown event %q", event)
	}

	if len(assignments) == 0 {
		tw := newTable(cmd.OutOrStdout())
		tw.SetTitle(def.Title())
		tw.AppendHeader(table.Row{"Option", "Type", "Value", "Label"})
		for _, opt := range def.Options {
			value := opt.Value
			if opt.Type == eventcfg.OptionPassword && value != "" {
				value = "********"
			}
			tw.AppendRow(table.Row{opt.Name, string(opt.Type), value, opt.Label})
		}
		tw.Render()
		if err := reg.Validate(event); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
		return nil
	}

	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %s (want OPTION=VALUE)", strconv.Quote(a))
		}
		if err := reg.Set(event, name, value); err != nil {
			return err
		}
	}
	if err := reg.Validate(event); err != nil {
		return err
	}
	if err := reg.SaveValues(cfg.UserEventsDir, event); err != nil {
		return err
	}
	slog.Info("Event options saved", "event", event, "dir", cfg.UserEventsDir)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d option(s) for %s\n", len(assignments), event)
	return nil
}
