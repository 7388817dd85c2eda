package runevent

import (
	"errors"
	"fmt"
	"syscall"
)

// Start は最初のコマンドを起動する。
// コマンドが1つもなければ StatusNoCommands を返す（エラーではない）。
// 返る error は event_log の書き込み失敗など、状態とは別に報告すべきもの。
func (s *State) Start() (Status, error) {
	if s.status != StatusIdle {
		return s.status, ErrAlreadyStarted
	}
	s.logger.Info("running event")
	s.log.SetState(LogFirstLine)
	return s.spawnOrFinish(StatusNoCommands)
}

// Advance は Pump が PumpEOF を返した後に呼ぶ。
// 終了コードに応じて次のコマンドを起動するか、チェーンを終える。
func (s *State) Advance() (Status, error) {
	if s.status != StatusRunning {
		return s.status, fmt.Errorf("runevent: cannot advance %s event", s.status)
	}
	if s.proc != nil {
		return s.status, fmt.Errorf("runevent: command %q has not finished", s.command)
	}

	code, sig := decodeStatus(s.exitStatus)
	if s.cause != nil {
		// 終了状態が取れなかったコマンドは失敗扱い
		code, sig = 1, 0
	}
	flushErr := s.finishCommand(code)

	switch {
	case sig == 0 && code == ExitStopEventRun:
		s.source.Clear()
		s.status = StatusStopped
	case s.isCancelRequested() && (code == 0 || isTermination(code, sig)):
		s.status = StatusCancelled
	case code != 0:
		s.status = StatusFailed
	default:
		st, err := s.spawnOrFinish(StatusDone)
		if flushErr == nil {
			flushErr = err
		}
		return st, flushErr
	}
	s.finished()
	return s.status, flushErr
}

// isTermination はキャンセルで送った SIGTERM による終了かを判定する。
// シェルが SIGTERM で死んだ子の終了を 143 で報告する場合も含む。
func isTermination(code int, sig syscall.Signal) bool {
	return sig == syscall.SIGTERM || code == 128+int(syscall.SIGTERM)
}

// spawnOrFinish は次のコマンドを起動する。キューが空なら empty の状態で終わる。
func (s *State) spawnOrFinish(empty Status) (Status, error) {
	started, err := s.spawnNext()
	switch {
	case err != nil:
		s.status = StatusFailed
		s.cause = err
		s.logger.Warn("failed to start command", "err", err)
		s.log.SetState(LogErrorLine)
		s.log.Append(err.Error() + "\n")
		s.ui.Error(err.Error())
		flushErr := s.log.Flush(s.dir)
		s.finished()
		return s.status, flushErr
	case started:
		s.status = StatusRunning
	default:
		s.status = empty
		s.finished()
	}
	return s.status, nil
}

// finishCommand は1コマンド分のログを締めて event_log へ書き出す。
// 失敗したか何も出力しなかったコマンドには終了ステータスの行を付ける。
func (s *State) finishCommand(code int) error {
	s.log.EnsureNewline()
	if code != 0 || s.log.State() == LogFirstLine {
		if code != 0 {
			s.log.SetState(LogErrorLine)
		}
		s.log.Append(s.statusText() + "\n")
	}
	err := s.log.Flush(s.dir)
	if err != nil {
		s.logger.Warn("failed to update event log", "err", err)
	}
	s.log.state = LogFirstLine
	return err
}

// statusText は最後のコマンドの終了を表す1行を返す。
func (s *State) statusText() string {
	var we *WaitError
	if errors.As(s.cause, &we) {
		return "(" + we.Err.Error() + ")"
	}
	return ExitStatusText(s.exitStatus)
}

func (s *State) finished() {
	s.logger.Info("event finished", "status", s.status.String(), "children", s.childCount)
}
