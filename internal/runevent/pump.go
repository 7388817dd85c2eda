package runevent

import (
	"bytes"
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// PumpResult は Pump の戻り値。
type PumpResult int

const (
	// PumpMore はまだ出力が続く。fd が読み取り可能になったら再度 Pump を呼ぶ。
	PumpMore PumpResult = iota
	// PumpEOF は子プロセスが出力を閉じ、回収済みであることを示す。次は Advance を呼ぶ。
	PumpEOF
)

const readChunk = 4096

// Pump は読み取り可能な出力をすべて読み、完結した行をディスパッチする。
// EOF なら子プロセスを waitpid で回収して PumpEOF を返す。
func (s *State) Pump() (PumpResult, error) {
	p := s.proc
	if p == nil {
		return PumpEOF, ErrNotRunning
	}

	var buf [readChunk]byte
	for {
		n, err := unix.Read(p.out, buf[:])
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			if errors.Is(err, unix.EAGAIN) {
				return PumpMore, nil
			}
			// 読めないパイプは EOF と同じ扱い
			s.logger.Warn("read from command output failed", "err", err)
			break
		}
		if n == 0 {
			break
		}
		s.lineBuf = append(s.lineBuf, buf[:n]...)
		s.drainLines()
	}

	// 改行で終わらない最後の行
	if len(s.lineBuf) > 0 {
		line := SanitizeUTF8(s.lineBuf)
		s.lineBuf = s.lineBuf[:0]
		s.handleLine(line)
	}
	s.reap()
	return PumpEOF, nil
}

// drainLines は lineBuf から完結した行を取り出して処理する。残りは先頭に詰める。
func (s *State) drainLines() {
	start := 0
	for {
		i := bytes.IndexByte(s.lineBuf[start:], '\n')
		if i < 0 {
			break
		}
		line := SanitizeUTF8(s.lineBuf[start : start+i])
		start += i + 1
		s.handleLine(line)
	}
	n := copy(s.lineBuf, s.lineBuf[start:])
	s.lineBuf = s.lineBuf[:n]
}

// reap はパイプを閉じて子プロセスを待つ。
// wait 自体が失敗した場合（SIGCHLD が無視されて自動回収された等）は終了状態が取れないので、
// cause に記録してコマンドを失敗扱いにする。
func (s *State) reap() {
	p := s.proc
	s.mu.Lock()
	s.reaping = true
	s.mu.Unlock()

	_ = unix.Close(p.out)
	_ = p.in.Close()

	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		s.logger.Warn("wait for command failed", "pid", p.pid, "err", err)
	}
	s.exitStatus = 0
	if ps := p.cmd.ProcessState; ps != nil {
		if ws, ok := ps.Sys().(syscall.WaitStatus); ok {
			s.exitStatus = ws
		}
	} else {
		s.cause = &WaitError{Command: s.command, Err: err}
	}

	s.mu.Lock()
	s.proc = nil
	s.reaping = false
	s.mu.Unlock()
	s.logger.Debug("command finished", "pid", p.pid, "status", s.statusText())
}
