package runevent

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrCancelled はユーザーのキャンセル（SIGTERM をプロセスグループへ送信）で終了したことを示す。
var ErrCancelled = errors.New("runevent: cancelled by user")

// ErrNotReportable は子プロセスが EXIT_CANCEL_BY_USER で終了したことを示す。
var ErrNotReportable = errors.New("runevent: problem is not reportable")

// ErrNotRunning は実行中の子プロセスがないときに返される。
var ErrNotRunning = errors.New("runevent: no command is running")

// ErrAlreadyStarted は Start が2回以上呼ばれたときに返される。
var ErrAlreadyStarted = errors.New("runevent: event already started")

// SpawnError は fork/exec の失敗。コマンドは非ゼロ終了と同様にチェーンを止める。
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("runevent: failed to start %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// WaitError は子プロセスの回収に失敗し、終了状態が分からないことを表す。
// コマンドは失敗として扱われる。
type WaitError struct {
	Command string
	Err     error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("runevent: failed to wait for %q: %v", e.Command, e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

// ExitError は子プロセスが非ゼロ終了、またはシグナルで殺されたことを表す。
type ExitError struct {
	Command string
	Code    int            // シグナルの場合は 128+sig
	Signal  syscall.Signal // シグナルで終了していない場合は 0
}

func (e *ExitError) Error() string {
	if e.Signal != 0 {
		return fmt.Sprintf("runevent: %q killed by signal %d", e.Command, int(e.Signal))
	}
	return fmt.Sprintf("runevent: %q exited with %d", e.Command, e.Code)
}

// Is は EXIT_CANCEL_BY_USER での終了を ErrNotReportable として扱う。
func (e *ExitError) Is(target error) bool {
	return target == ErrNotReportable && e.Signal == 0 && e.Code == ExitCancelByUser
}

// LogFlushError は event_log の書き込みに失敗したことを表す。
// メモリ上のログは保持され、次の Flush で再試行される。
type LogFlushError struct {
	Path string
	Err  error
}

func (e *LogFlushError) Error() string {
	return fmt.Sprintf("runevent: failed to write %s: %v", e.Path, e.Err)
}

func (e *LogFlushError) Unwrap() error { return e.Err }
