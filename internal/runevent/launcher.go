package runevent

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// process は実行中の子プロセス。
type process struct {
	cmd *exec.Cmd
	pid int
	out int      // stdout+stderr の読み取り側（非ブロッキング）
	in  *os.File // stdin の書き込み側
}

// startProcess は shell -c line を dir で起動する。
// 子は新しいプロセスグループに置かれ、stdout と stderr は同じパイプに繋がる。
func startProcess(shell, line, dir string, env []string) (*process, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("output pipe: %w", err)
	}
	outR := fds[0]
	outW := os.NewFile(uintptr(fds[1]), "event-output")

	inR, inW, err := os.Pipe()
	if err != nil {
		_ = unix.Close(outR)
		_ = outW.Close()
		return nil, fmt.Errorf("input pipe: %w", err)
	}

	cmd := exec.Command(shell, "-c", line) // nosemgrep: go.lang.security.audit.dangerous-exec-command.dangerous-exec-command -- ルールファイル由来のコマンド
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = outW
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		_ = unix.Close(outR)
		_ = outW.Close()
		_ = inR.Close()
		_ = inW.Close()
		return nil, err
	}
	// 子側の端は親では不要。閉じないと EOF が来ない。
	_ = outW.Close()
	_ = inR.Close()

	if err := unix.SetNonblock(outR, true); err != nil {
		_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		_ = cmd.Wait()
		_ = unix.Close(outR)
		_ = inW.Close()
		return nil, fmt.Errorf("set non-blocking: %w", err)
	}
	return &process{cmd: cmd, pid: cmd.Process.Pid, out: outR, in: inW}, nil
}

// spawnNext はキューから次のコマンドを取り出して起動する。
// キューが空なら (false, nil)。起動に失敗した場合も childCount は増える。
func (s *State) spawnNext() (bool, error) {
	if s.proc != nil {
		return false, errors.New("runevent: a command is already running")
	}
	line, ok, err := s.source.Next()
	if err != nil {
		return false, fmt.Errorf("runevent: failed to resolve next command: %w", err)
	}
	if !ok {
		return false, nil
	}

	s.childCount++
	s.command = line
	s.lineBuf = s.lineBuf[:0]

	p, err := startProcess(s.shell, line, s.dir, s.environment())
	if err != nil {
		return true, &SpawnError{Command: line, Err: err}
	}

	s.mu.Lock()
	s.proc = p
	s.mu.Unlock()
	s.logger.Debug("spawned command", "pid", p.pid, "command", line, "child", s.childCount)
	return true, nil
}

// environment は子プロセスの環境変数を組み立てる。後のものが優先される。
func (s *State) environment() []string {
	env := os.Environ()
	env = append(env,
		"DUMP_DIR="+s.dir,
		"EVENT="+s.event,
		"REPORT_CLIENT_SLAVE=1",
	)
	env = append(env, s.env...)
	if s.exporter != nil {
		vars, err := s.exporter.Export(s.event)
		if err != nil {
			s.logger.Warn("failed to export event configuration", "err", err)
		}
		env = append(env, vars...)
	}
	return env
}
