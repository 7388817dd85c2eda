package tui

import (
	"regexp"
	"strings"
	"testing"

	"github.com/0x6d61/reportwiz/internal/runevent"
	"github.com/0x6d61/reportwiz/internal/workflow"
)

// ansiRegex strips ANSI escape sequences in assertions.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func TestView_NotReady(t *testing.T) {
	m := New("/tmp/p", nil, nil, nil)
	if !strings.Contains(m.View(), "Starting reportwiz") {
		t.Error("expected startup message before the first WindowSizeMsg")
	}
}

func TestView_ShowsChoicesAndDirectory(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.rebuildViewport()
	out := stripANSI(m.View())

	for _, want := range []string{"reportwiz", "/var/spool/abrt/ccpp-1", "REPORT", "Upload", "report_Logger", "idle"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestView_ConfirmQuitOverlay(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.inputMode = InputConfirmQuit
	out := stripANSI(m.View())
	if !strings.Contains(out, "Quit reportwiz?") {
		t.Error("expected quit dialog in view")
	}

	m.running = true
	out = stripANSI(m.View())
	if !strings.Contains(out, "cancel the running event") {
		t.Error("expected running variant of quit dialog")
	}
}

func TestView_AlertOverlay(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.alerts = []string{"Backtrace is unusable"}
	out := stripANSI(m.View())
	if !strings.Contains(out, "Backtrace is unusable") || !strings.Contains(out, "[Enter] OK") {
		t.Error("expected alert overlay in view")
	}
}

func TestView_SelectBar(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.showSelect("Send the report?", []SelectOption{
		{Label: "Yes", Value: runevent.ReplyYes},
		{Label: "No", Value: runevent.ReplyNo},
	}, nil)
	m.selectIndex = 1

	out := stripANSI(m.renderInputBar())
	if !strings.Contains(out, "Send the report?") {
		t.Error("expected select title")
	}
	if !strings.Contains(out, "> No") {
		t.Error("expected the selected option to be marked")
	}
}

func TestRenderStatusBar_Hints(t *testing.T) {
	m, _, _ := newTestModel(t)
	if !strings.Contains(stripANSI(m.renderStatusBar()), "[Enter] Run") {
		t.Error("expected idle hint")
	}
	m.running = true
	if !strings.Contains(stripANSI(m.renderStatusBar()), "[Ctrl+X] Cancel") {
		t.Error("expected running hint")
	}
}

func TestRenderStatusBar_Finished(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.result = &workflow.Result{ThankYou: true, Outcomes: []runevent.Outcome{{Event: "report_Bugzilla", Status: runevent.StatusDone}}}
	if !strings.Contains(stripANSI(m.renderStatusBar()), "finished") {
		t.Error("expected finished status after THANKYOU")
	}
}

func TestRebuildViewport_PromptBox(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.active = &m.choices[0]
	m.prompt = &Prompt{Kind: runevent.KindAskYesNoSaveResult, Message: "Send to smolt?", SaveResult: true}
	m.rebuildViewport()

	out := stripANSI(m.viewport.View())
	for _, want := range []string{"CONFIRMATION REQUIRED", "Send to smolt?", "[f] Always yes", "[e] Always no"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in viewport", want)
		}
	}
}

// ---------------------------------------------------------------------------
// overlay helpers
// ---------------------------------------------------------------------------

func TestTruncateVisual(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 3, "hel"},
		{"hi", 4, "hi  "},
		{"日本語", 3, "日 "},
		{"日本語", 4, "日本"},
	}
	for _, tt := range tests {
		if got := truncateVisual(tt.in, tt.n); got != tt.want {
			t.Errorf("truncateVisual(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSkipVisual(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 3, "lo"},
		{"hi", 5, ""},
		{"日本語", 2, "本語"},
	}
	for _, tt := range tests {
		if got := skipVisual(tt.in, tt.n); got != tt.want {
			t.Errorf("skipVisual(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestOverlayCenter(t *testing.T) {
	m := Model{width: 10, height: 3}
	base := strings.Join([]string{"..........", "..........", ".........."}, "\n")
	out := m.overlayCenter(base, "XX")

	lines := strings.Split(out, "\n")
	if lines[1] != "....XX...." {
		t.Errorf("unexpected overlay row %q", lines[1])
	}
	if lines[0] != ".........." || lines[2] != ".........." {
		t.Error("rows outside the overlay must be untouched")
	}
}
