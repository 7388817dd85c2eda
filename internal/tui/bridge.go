package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/0x6d61/reportwiz/internal/runevent"
	"github.com/0x6d61/reportwiz/internal/workflow"
)

// RunEventKind identifies what a RunEvent carries.
type RunEventKind int

const (
	RunEventLog RunEventKind = iota
	RunEventError
	RunEventAlert
	RunEventPrompt
	RunEventStarted
	RunEventFinished // always the last event of a run
)

// Prompt is a question forwarded from the event loop; the loop blocks until Reply is called.
type Prompt struct {
	Kind       runevent.Kind
	Key        string
	Message    string
	SaveResult bool

	reply chan string
}

// Reply answers the prompt. Only the first call has effect.
func (p *Prompt) Reply(answer string) {
	select {
	case p.reply <- answer:
	default:
	}
}

// RunEvent is sent from the run goroutine to the TUI.
type RunEvent struct {
	Kind   RunEventKind
	Text   string
	Prompt *Prompt
	State  *runevent.State

	// Set on RunEventFinished.
	Result workflow.Result
	Err    error
}

// RunEventMsg wraps a RunEvent as a tea.Msg.
type RunEventMsg RunEvent

// RunEventCmd waits for the next event from the bridge.
// Re-register it after every RunEventMsg to keep receiving.
func RunEventCmd(ch <-chan RunEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return RunEventMsg(ev)
	}
}

// Remembered-answer replies accepted by AskYesNoRemembered.
const (
	replyForever = "forever"
	replyNever   = "never"
)

// Bridge implements runevent.Interaction by forwarding every callback to the TUI.
// Questions block the event loop until the TUI replies or the bridge is closed.
type Bridge struct {
	events chan RunEvent
	done   chan struct{}
	once   sync.Once
}

// NewBridge creates a bridge with a buffered event channel.
func NewBridge() *Bridge {
	return &Bridge{
		events: make(chan RunEvent, 256),
		done:   make(chan struct{}),
	}
}

// Events returns the channel the TUI reads from.
func (b *Bridge) Events() <-chan RunEvent { return b.events }

// Close releases any question still waiting for an answer.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// Started tells the TUI which state is running so it can be cancelled.
// Assign it to workflow.Runner.OnStart.
func (b *Bridge) Started(st *runevent.State) {
	b.send(RunEvent{Kind: RunEventStarted, State: st, Text: st.Event()})
}

// Finished queues the end of a run behind everything the run already sent.
// It reports false when the bridge is closed and nothing was queued.
func (b *Bridge) Finished(res workflow.Result, err error) bool {
	return b.send(RunEvent{Kind: RunEventFinished, Result: res, Err: err})
}

func (b *Bridge) send(ev RunEvent) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.events <- ev:
		return true
	case <-b.done:
		return false
	}
}

func (b *Bridge) ask(p *Prompt) (string, bool) {
	p.reply = make(chan string, 1)
	if !b.send(RunEvent{Kind: RunEventPrompt, Prompt: p}) {
		return "", false
	}
	select {
	case answer := <-p.reply:
		return answer, true
	case <-b.done:
		return "", false
	}
}

func (b *Bridge) Log(line string)   { b.send(RunEvent{Kind: RunEventLog, Text: line}) }
func (b *Bridge) Error(line string) { b.send(RunEvent{Kind: RunEventError, Text: line}) }
func (b *Bridge) Alert(msg string)  { b.send(RunEvent{Kind: RunEventAlert, Text: msg}) }

func (b *Bridge) Ask(msg string) string {
	answer, _ := b.ask(&Prompt{Kind: runevent.KindAsk, Message: msg})
	return answer
}

func (b *Bridge) AskPassword(msg string) string {
	answer, _ := b.ask(&Prompt{Kind: runevent.KindAskPassword, Message: msg})
	return answer
}

func (b *Bridge) AskYesNo(msg string) bool {
	answer, _ := b.ask(&Prompt{Kind: runevent.KindAskYesNo, Message: msg})
	return answer == runevent.ReplyYes
}

func (b *Bridge) AskYesNoRemembered(key, msg string, saveResult bool) runevent.Answer {
	kind := runevent.KindAskYesNoYesForever
	if saveResult {
		kind = runevent.KindAskYesNoSaveResult
	}
	answer, _ := b.ask(&Prompt{Kind: kind, Key: key, Message: msg, SaveResult: saveResult})
	switch answer {
	case runevent.ReplyYes:
		return runevent.AnswerYes
	case replyForever:
		return runevent.AnswerYesForever
	case replyNever:
		if saveResult {
			return runevent.AnswerNoForever
		}
	}
	return runevent.AnswerNo
}

var _ runevent.Interaction = (*Bridge)(nil)
