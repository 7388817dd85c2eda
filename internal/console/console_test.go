package console_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/0x6d61/reportwiz/internal/console"
	"github.com/0x6d61/reportwiz/internal/runevent"
)

func newConsole(input string) (*console.Console, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	c := console.New(strings.NewReader(input), &out, &errOut)
	c.NonInteractive = false
	return c, &out, &errOut
}

func TestConsole_LogAndError(t *testing.T) {
	c, out, errOut := newConsole("")
	c.Log("hello")
	c.Alert("careful")
	c.Error("broken")
	if out.String() != "hello\ncareful\n" {
		t.Errorf("stdout: %q", out.String())
	}
	if errOut.String() != "broken\n" {
		t.Errorf("stderr: %q", errOut.String())
	}
}

func TestConsole_Ask(t *testing.T) {
	c, out, _ := newConsole("Alice\r\n")
	if got := c.Ask("Name?"); got != "Alice" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(out.String(), "Name?") {
		t.Errorf("prompt not shown: %q", out.String())
	}
}

func TestConsole_AskYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		c, _, _ := newConsole(tt.input)
		if got := c.AskYesNo("Continue?"); got != tt.want {
			t.Errorf("input %q: got %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestConsole_AskYesNoRemembered(t *testing.T) {
	tests := []struct {
		input      string
		saveResult bool
		want       runevent.Answer
	}{
		{"f\n", false, runevent.AnswerYesForever},
		{"y\n", false, runevent.AnswerYes},
		{"e\n", false, runevent.AnswerNo},
		{"e\n", true, runevent.AnswerNoForever},
		{"n\n", true, runevent.AnswerNo},
	}
	for _, tt := range tests {
		c, _, _ := newConsole(tt.input)
		if got := c.AskYesNoRemembered("key", "Send?", tt.saveResult); got != tt.want {
			t.Errorf("input %q saveResult=%v: got %v, want %v", tt.input, tt.saveResult, got, tt.want)
		}
	}
}

func TestConsole_AskPassword_NotTerminal(t *testing.T) {
	c, _, _ := newConsole("hunter2\n")
	if got := c.AskPassword("Password:"); got != "hunter2" {
		t.Errorf("got %q", got)
	}
}

func TestConsole_NonInteractive(t *testing.T) {
	t.Setenv(console.EnvNonInteractive, "1")
	var out bytes.Buffer
	c := console.New(strings.NewReader("y\nsecret\n"), &out, &out)
	if !c.NonInteractive {
		t.Fatal("expected non-interactive from environment")
	}
	if c.AskYesNo("Continue?") {
		t.Error("non-interactive yes/no must answer no")
	}
	if c.AskPassword("Password:") != "" {
		t.Error("non-interactive password must be empty")
	}
	if c.Ask("Name?") != "" {
		t.Error("non-interactive ask must be empty")
	}
}
