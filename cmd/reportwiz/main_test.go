package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/0x6d61/reportwiz/internal/runevent"
	"github.com/0x6d61/reportwiz/internal/workflow"
)

// fixture is a config file pointing at a temporary rules file, event and workflow directories.
type fixture struct {
	root      string
	config    string
	userDir   string
	problem   string
	decisions string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newFixture(t *testing.T, rulesText string) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		root:      root,
		config:    filepath.Join(root, "config.yaml"),
		userDir:   filepath.Join(root, "user"),
		problem:   filepath.Join(root, "problem"),
		decisions: filepath.Join(root, "decisions.toml"),
	}
	writeFile(t, filepath.Join(root, "report_event.conf"), rulesText)
	writeFile(t, filepath.Join(root, "events", "report_Logger.yaml"), `
name: report_Logger
screen_name: Logger
description: Save the report to a local file
options:
  - name: Log_File
    type: text
    default: /tmp/report.log
  - name: Log_Password
    type: password
    allow_empty: true
`)
	writeFile(t, filepath.Join(root, "workflows", "upload.yaml"), `
name: workflow_Upload
screen_name: Upload
priority: 10
events:
  - collect_x
  - report_Logger
`)
	writeFile(t, filepath.Join(f.problem, "analyzer"), "CCpp\n")
	writeFile(t, f.config, `
rules_file: `+filepath.Join(root, "report_event.conf")+`
events_dir: `+filepath.Join(root, "events")+`
user_events_dir: `+f.userDir+`
workflows_dir: `+filepath.Join(root, "workflows")+`
decisions_file: `+f.decisions+`
`)
	return f
}

// executeCommand runs the root command with args and returns combined output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func expectContains(t *testing.T, haystack, needle, msg string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("%s: %q not found in output:\n%s", msg, needle, haystack)
	}
}

// ---------------------------------------------------------------------------
// version / workflows / events
// ---------------------------------------------------------------------------

func TestCLIVersion(t *testing.T) {
	out, err := executeCommand(newRootCmd(), "version")
	if err != nil {
		t.Fatalf("version returned error: %v", err)
	}
	expectContains(t, out, "reportwiz version: dev", "version output")
}

func TestCLIWorkflows(t *testing.T) {
	f := newFixture(t, "")
	out, err := executeCommand(newRootCmd(), "workflows", "--config", f.config)
	if err != nil {
		t.Fatalf("workflows returned error: %v\n%s", err, out)
	}
	expectContains(t, out, "workflow_Upload", "workflow name")
	expectContains(t, out, "collect_x, report_Logger", "workflow events")
}

func TestCLIEvents(t *testing.T) {
	f := newFixture(t, `
EVENT=report_Logger echo logging
EVENT=collect_x analyzer=Python echo python only
EVENT=collect_y analyzer=CCpp echo ccpp
`)
	out, err := executeCommand(newRootCmd(), "events", f.problem, "--config", f.config, "--commands")
	if err != nil {
		t.Fatalf("events returned error: %v\n%s", err, out)
	}
	expectContains(t, out, "report_Logger", "event listed")
	expectContains(t, out, "Logger", "screen name from definition")
	expectContains(t, out, "echo ccpp", "command shown with --commands")
	if strings.Contains(out, "collect_x") {
		t.Errorf("collect_x does not apply to a CCpp problem:\n%s", out)
	}
}

func TestCLIEvents_Prefix(t *testing.T) {
	f := newFixture(t, `
EVENT=report_Logger echo logging
EVENT=collect_y echo ccpp
`)
	out, err := executeCommand(newRootCmd(), "events", f.problem, "--config", f.config, "--prefix", "collect_")
	if err != nil {
		t.Fatalf("events returned error: %v\n%s", err, out)
	}
	expectContains(t, out, "collect_y", "prefixed event")
	if strings.Contains(out, "report_Logger") {
		t.Errorf("report_Logger should be filtered out:\n%s", out)
	}
}

func TestCLIEvents_MissingRules(t *testing.T) {
	f := newFixture(t, "")
	if err := os.Remove(filepath.Join(f.root, "report_event.conf")); err != nil {
		t.Fatal(err)
	}
	_, err := executeCommand(newRootCmd(), "events", f.problem, "--config", f.config)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist for missing rules file, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func TestCLIRun_Success(t *testing.T) {
	f := newFixture(t, `EVENT=report_Logger echo "file=$Log_File"`)
	out, err := executeCommand(newRootCmd(), "run", f.problem, "-e", "report_Logger", "--batch", "--config", f.config)
	if err != nil {
		t.Fatalf("run returned error: %v\n%s", err, out)
	}
	expectContains(t, out, "file=/tmp/report.log", "exported option in command output")

	data, err := os.ReadFile(filepath.Join(f.problem, runevent.EventLogFile))
	if err != nil {
		t.Fatalf("event_log not written: %v", err)
	}
	expectContains(t, string(data), "file=/tmp/report.log", "event_log content")
}

func TestCLIRun_FailureExitCode(t *testing.T) {
	f := newFixture(t, `EVENT=report_Logger exit 3`)
	_, err := executeCommand(newRootCmd(), "run", f.problem, "-e", "report_Logger", "--batch", "--config", f.config)

	var ee *exitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected exitError, got %v", err)
	}
	if ee.code != 3 {
		t.Errorf("expected exit code 3, got %d", ee.code)
	}
}

func TestCLIRun_NoActions(t *testing.T) {
	f := newFixture(t, `EVENT=other true`)
	_, err := executeCommand(newRootCmd(), "run", f.problem, "-e", "report_Logger", "--batch", "--config", f.config)

	var ee *exitError
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
}

func TestCLIRun_Workflow(t *testing.T) {
	f := newFixture(t, `
EVENT=collect_x echo collecting
EVENT=report_Logger echo "workflow=$LIBREPORT_WORKFLOW"
`)
	out, err := executeCommand(newRootCmd(), "run", f.problem, "-w", "workflow_Upload", "--batch", "--config", f.config)
	if err != nil {
		t.Fatalf("run returned error: %v\n%s", err, out)
	}
	expectContains(t, out, "collecting", "first event output")
	expectContains(t, out, "workflow=workflow_Upload", "workflow env")
}

func TestCLIRun_UnknownWorkflow(t *testing.T) {
	f := newFixture(t, "")
	_, err := executeCommand(newRootCmd(), "run", f.problem, "-w", "nope", "--config", f.config)
	if err == nil || !strings.Contains(err.Error(), "unknown workflow") {
		t.Errorf("expected unknown workflow error, got %v", err)
	}
}

func TestCLIRun_RequiresEventOrWorkflow(t *testing.T) {
	f := newFixture(t, "")
	if _, err := executeCommand(newRootCmd(), "run", f.problem, "--config", f.config); err == nil {
		t.Error("expected error without -e or -w")
	}
	if _, err := executeCommand(newRootCmd(), "run", f.problem, "-e", "a", "-w", "b", "--config", f.config); err == nil {
		t.Error("expected error with both -e and -w")
	}
}

func TestCLIRun_BatchAnswersNo(t *testing.T) {
	f := newFixture(t, `EVENT=report_Logger echo "ASK_YES_NO Continue?"; read answer; echo "got=$answer"`)
	out, err := executeCommand(newRootCmd(), "run", f.problem, "-e", "report_Logger", "--batch", "--config", f.config)
	if err != nil {
		t.Fatalf("run returned error: %v\n%s", err, out)
	}
	expectContains(t, out, "got=no", "default answer in batch mode")
}

// ---------------------------------------------------------------------------
// configure
// ---------------------------------------------------------------------------

func TestCLIConfigure_SaveAndShow(t *testing.T) {
	f := newFixture(t, "")
	out, err := executeCommand(newRootCmd(), "configure", "report_Logger", "Log_File=/var/log/r.log", "Log_Password=s3cret", "--config", f.config)
	if err != nil {
		t.Fatalf("configure returned error: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(f.userDir, "report_Logger.env")); err != nil {
		t.Fatalf("expected user env file: %v", err)
	}

	out, err = executeCommand(newRootCmd(), "configure", "report_Logger", "--config", f.config)
	if err != nil {
		t.Fatalf("configure show returned error: %v\n%s", err, out)
	}
	expectContains(t, out, "/var/log/r.log", "saved value")
	if strings.Contains(out, "s3cret") {
		t.Errorf("password must be masked:\n%s", out)
	}
}

func TestCLIConfigure_Errors(t *testing.T) {
	f := newFixture(t, "")
	tests := []struct {
		name string
		args []string
	}{
		{"unknown event", []string{"configure", "nope"}},
		{"unknown option", []string{"configure", "report_Logger", "Nope=1"}},
		{"bad assignment", []string{"configure", "report_Logger", "Log_File"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--config", f.config)
			if _, err := executeCommand(newRootCmd(), args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// resultError / exitCode
// ---------------------------------------------------------------------------

func TestResultError(t *testing.T) {
	tests := []struct {
		name     string
		res      workflow.Result
		wantNil  bool
		wantCode int
	}{
		{"empty", workflow.Result{}, false, 1},
		{"done", workflow.Result{Outcomes: []runevent.Outcome{{Event: "e", Status: runevent.StatusDone}}}, true, 0},
		{"stopped", workflow.Result{Outcomes: []runevent.Outcome{{Event: "e", Status: runevent.StatusStopped}}}, true, 0},
		{"failed", workflow.Result{Outcomes: []runevent.Outcome{{Event: "e", Status: runevent.StatusFailed, ExitCode: 2}}}, false, 2},
		{"not reportable", workflow.Result{Outcomes: []runevent.Outcome{{Event: "e", Status: runevent.StatusFailed, ExitCode: runevent.ExitCancelByUser}}}, false, runevent.ExitCancelByUser},
		{"cancelled", workflow.Result{Outcomes: []runevent.Outcome{{Event: "e", Status: runevent.StatusCancelled, ExitCode: 143}}}, false, 143},
		{"spawn failure", workflow.Result{Outcomes: []runevent.Outcome{{Event: "e", Status: runevent.StatusFailed, Cause: errors.New("exec")}}}, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := resultError(tt.res)
			if tt.wantNil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			var ee *exitError
			if !errors.As(err, &ee) {
				t.Fatalf("expected exitError, got %v", err)
			}
			if ee.code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, ee.code)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(&exitError{code: 69, err: errors.New("not reportable")}); got != 69 {
		t.Errorf("expected 69, got %d", got)
	}
	if got := exitCode(errors.New("usage")); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}
