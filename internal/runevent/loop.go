package runevent

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sys/unix"
)

// pollInterval ごとに ctx のキャンセルを確認する。
const pollInterval = 100 * time.Millisecond

// Run は Start / Pump / Advance を poll ループで回し、イベントが終わるまでブロックする。
// ctx がキャンセルされるとプロセスグループへ SIGTERM を送り、子の終了を待つ。
// 返る error は event_log の書き込み失敗のみ。コマンドの失敗は Outcome で報告する。
func (s *State) Run(ctx context.Context) (Outcome, error) {
	var errs []error
	st, err := s.Start()
	if errors.Is(err, ErrAlreadyStarted) {
		return s.Outcome(), err
	}
	if err != nil {
		errs = append(errs, err)
	}

	for st == StatusRunning {
		s.waitReadable(ctx)
		res, err := s.Pump()
		if err != nil {
			errs = append(errs, err)
			break
		}
		if res == PumpMore {
			continue
		}
		st, err = s.Advance()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return s.Outcome(), errors.Join(errs...)
}

// waitReadable は出力 fd が読み取り可能（または HUP）になるまで待つ。
func (s *State) waitReadable(ctx context.Context) {
	fds := []unix.PollFd{{Fd: int32(s.proc.out), Events: unix.POLLIN}}
	for {
		if ctx.Err() != nil && !s.isCancelRequested() {
			if err := s.Cancel(); err != nil {
				s.logger.Warn("cancel failed", "err", err)
			}
		}
		n, err := unix.Poll(fds, int(pollInterval/time.Millisecond))
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			// Pump は非ブロッキングなので、poll が使えなくても間隔をあけて読めば進む
			s.logger.Warn("poll failed", "err", err)
			time.Sleep(pollInterval)
			return
		}
		if n > 0 {
			return
		}
	}
}
