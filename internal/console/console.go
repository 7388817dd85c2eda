// Package console はターミナル用の runevent.Interaction 実装。
// ログは stdout、エラーは stderr に出し、質問は stdin から1行ずつ読む。
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/0x6d61/reportwiz/internal/runevent"
)

// EnvNonInteractive が "1" なら質問せずに既定の回答（no / 空）を返す。
const EnvNonInteractive = "REPORT_CLIENT_NONINTERACTIVE"

// Console は stdio を使う Interaction。
type Console struct {
	in     *bufio.Reader
	fd     int // in が端末なら fd、そうでなければ -1
	out    io.Writer
	errOut io.Writer

	// NonInteractive が true なら質問を表示するだけで入力を待たない。
	NonInteractive bool

	mu sync.Mutex
}

// New は Console を作成する。in が端末ならパスワードはエコーなしで読む。
func New(in io.Reader, out, errOut io.Writer) *Console {
	c := &Console{
		in:     bufio.NewReader(in),
		fd:     -1,
		out:    out,
		errOut: errOut,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.fd = int(f.Fd())
	}
	c.NonInteractive = os.Getenv(EnvNonInteractive) == "1"
	return c
}

// Stdio は os.Stdin / os.Stdout / os.Stderr を使う Console を返す。
func Stdio() *Console {
	return New(os.Stdin, os.Stdout, os.Stderr)
}

var _ runevent.Interaction = (*Console)(nil)

func (c *Console) Log(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, line)
}

func (c *Console) Error(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.errOut, line)
}

func (c *Console) Alert(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, msg)
}

func (c *Console) Ask(msg string) string {
	answer, _ := c.prompt(msg + " ")
	return answer
}

func (c *Console) AskYesNo(msg string) bool {
	answer, _ := c.prompt(msg + " [y/N] ")
	return isYes(answer)
}

// AskYesNoRemembered は "f" で yes を記憶する。saveResult のときは "e" で no を記憶する。
func (c *Console) AskYesNoRemembered(key, msg string, saveResult bool) runevent.Answer {
	choices := " [y/N/f] "
	if saveResult {
		choices = " [y/N/f/e] "
	}
	answer, _ := c.prompt(msg + choices)
	switch strings.ToLower(answer) {
	case "f", "forever":
		return runevent.AnswerYesForever
	case "e", "never":
		if saveResult {
			return runevent.AnswerNoForever
		}
	}
	if isYes(answer) {
		return runevent.AnswerYes
	}
	return runevent.AnswerNo
}

func (c *Console) AskPassword(msg string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, msg+" ")
	if c.NonInteractive {
		fmt.Fprintln(c.out)
		return ""
	}
	if c.fd >= 0 {
		pw, err := term.ReadPassword(c.fd)
		fmt.Fprintln(c.out)
		if err != nil {
			return ""
		}
		return string(pw)
	}
	line, _ := c.readLine()
	return line
}

// prompt は質問を表示して1行読む。非対話なら空文字列。
func (c *Console) prompt(text string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, text)
	if c.NonInteractive {
		fmt.Fprintln(c.out)
		return "", nil
	}
	return c.readLine()
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return strings.TrimRight(line, "\r\n"), err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	}
	return false
}
