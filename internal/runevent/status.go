package runevent

import (
	"fmt"
	"syscall"
)

// Status はイベント実行の状態。
type Status int

const (
	StatusIdle       Status = iota
	StatusRunning           // コマンド実行中
	StatusDone              // すべてのコマンドが 0 で終了
	StatusStopped           // EXIT_STOP_EVENT_RUN で打ち切り（成功）
	StatusFailed            // 非ゼロ終了・シグナル・起動失敗
	StatusCancelled         // Cancel による SIGTERM で終了
	StatusNoCommands        // 該当するコマンドがなかった
)

var statusNames = [...]string{
	StatusIdle:       "idle",
	StatusRunning:    "running",
	StatusDone:       "done",
	StatusStopped:    "stopped",
	StatusFailed:     "failed",
	StatusCancelled:  "cancelled",
	StatusNoCommands: "no-commands",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal は終了状態なら true を返す。
func (s Status) Terminal() bool {
	return s != StatusIdle && s != StatusRunning
}

// decodeStatus は wait status を終了コードに変換する。シグナルの場合は 128+sig。
func decodeStatus(ws syscall.WaitStatus) (code int, sig syscall.Signal) {
	if ws.Signaled() {
		return 128 + int(ws.Signal()), ws.Signal()
	}
	return ws.ExitStatus(), 0
}

// ExitStatusText は "(exited with N)" か "(killed by signal N)" を返す。
func ExitStatusText(ws syscall.WaitStatus) string {
	if ws.Signaled() {
		return fmt.Sprintf("(killed by signal %d)", int(ws.Signal()))
	}
	return fmt.Sprintf("(exited with %d)", ws.ExitStatus())
}

// Outcome はイベント実行の最終結果。
type Outcome struct {
	Event      string
	Status     Status
	Command    string // 最後に実行したコマンド
	ExitCode   int
	Signal     syscall.Signal
	ChildCount int
	Cause      error // 起動失敗・コマンド解決失敗
}

// Success は Done / Stopped / NoCommands なら true を返す。
func (o Outcome) Success() bool {
	switch o.Status {
	case StatusDone, StatusStopped, StatusNoCommands:
		return true
	}
	return false
}

// Cancelled はユーザーのキャンセルで終了した場合に true を返す。
func (o Outcome) Cancelled() bool { return o.Status == StatusCancelled }

// NotReportable は最後のコマンドが EXIT_CANCEL_BY_USER で終了した場合に true を返す。
func (o Outcome) NotReportable() bool {
	return o.Status == StatusFailed && o.Signal == 0 && o.ExitCode == ExitCancelByUser
}

// Err は失敗を error として返す。成功なら nil。
func (o Outcome) Err() error {
	switch {
	case o.Success():
		return nil
	case o.Status == StatusCancelled:
		return ErrCancelled
	case o.Cause != nil:
		return o.Cause
	case o.Status == StatusFailed:
		return &ExitError{Command: o.Command, Code: o.ExitCode, Signal: o.Signal}
	}
	return fmt.Errorf("runevent: event %s is still %s", o.Event, o.Status)
}

// Outcome は現在の結果を返す。
func (s *State) Outcome() Outcome {
	o := Outcome{
		Event:      s.event,
		Status:     s.status,
		Command:    s.command,
		ChildCount: s.childCount,
		Cause:      s.cause,
	}
	if s.childCount > 0 && s.cause == nil {
		o.ExitCode, o.Signal = decodeStatus(s.exitStatus)
	}
	return o
}
