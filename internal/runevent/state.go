// Package runevent runs the shell commands of one event against a problem
// directory: it spawns them one by one, pumps their combined output through
// the interactive line protocol and keeps the rolling event_log.
package runevent

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// 予約済みの終了コード
const (
	// ExitCancelByUser は「報告不可」。ワークフローはこれでチェーンを中断する。
	ExitCancelByUser = 69
	// ExitStopEventRun は「以降のコマンドを実行しない」。成功として扱う。
	ExitStopEventRun = 70
)

// DefaultShell はコマンドを解釈するシェル。
const DefaultShell = "/bin/sh"

// CommandSource は次に実行するシェルコマンドを返す。
// 条件の再評価が必要な実装（rules.Queue）もあるので、Next は spawn の直前に1回ずつ呼ばれる。
type CommandSource interface {
	Next() (cmd string, ok bool, err error)
	Remaining() int
	Clear()
}

// Exporter はイベント固有の環境変数を "KEY=VALUE" 形式で返す。
type Exporter interface {
	Export(event string) ([]string, error)
}

// Options は State の構築パラメータ。
type Options struct {
	Dir       string        // 問題ディレクトリ（必須）
	Event     string        // イベント名（必須）
	Commands  CommandSource // コマンドキュー（必須）
	UI        Interaction   // nil なら Callbacks{}
	Decisions DecisionStore // nil なら記憶しない
	Exporter  Exporter
	Env       []string // 追加の環境変数 "KEY=VALUE"
	Shell     string   // 空なら DefaultShell
	Log       *EventLog
	Logger    *slog.Logger
}

// State は1イベントの実行状態。子プロセスは同時に高々1つ。
type State struct {
	id        string
	dir       string
	event     string
	source    CommandSource
	ui        Interaction
	decisions DecisionStore
	exporter  Exporter
	env       []string
	shell     string
	log       *EventLog
	logger    *slog.Logger

	// mu は proc・reaping・cancelRequested を Cancel（別ゴルーチン可）から守る。
	// reaping の間はプロセスグループ ID が再利用され得るので、シグナルを送らない。
	mu              sync.Mutex
	proc            *process
	reaping         bool
	cancelRequested bool

	status     Status
	command    string
	lineBuf    []byte
	childCount int
	exitStatus syscall.WaitStatus
	cause      error
}

// New は State を作成する。問題ディレクトリは絶対パス（シンボリックリンク解決済み）に正規化される。
func New(opts Options) (*State, error) {
	if opts.Dir == "" {
		return nil, errors.New("runevent: problem directory is required")
	}
	if opts.Event == "" {
		return nil, errors.New("runevent: event name is required")
	}
	if opts.Commands == nil {
		return nil, errors.New("runevent: command source is required")
	}

	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("runevent: failed to resolve %s: %w", opts.Dir, err)
	}
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		dir = real
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("runevent: problem directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("runevent: %s is not a directory", dir)
	}

	s := &State{
		id:        uuid.NewString(),
		dir:       dir,
		event:     opts.Event,
		source:    opts.Commands,
		ui:        opts.UI,
		decisions: opts.Decisions,
		exporter:  opts.Exporter,
		env:       opts.Env,
		shell:     opts.Shell,
		log:       opts.Log,
	}
	if s.ui == nil {
		s.ui = Callbacks{}
	}
	if s.shell == "" {
		s.shell = DefaultShell
	}
	if s.log == nil {
		s.log = NewEventLog(DefaultHighWatermark, DefaultLowWatermark)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger.With("run", s.id, "event", s.event, "dir", s.dir)
	return s, nil
}

// ID は実行ごとの一意な ID を返す。
func (s *State) ID() string { return s.id }

// Dir は正規化済みの問題ディレクトリを返す。
func (s *State) Dir() string { return s.dir }

// Event はイベント名を返す。
func (s *State) Event() string { return s.event }

// Status は現在の状態を返す。
func (s *State) Status() Status { return s.status }

// ChildCount はこれまでに起動したコマンド数を返す。
func (s *State) ChildCount() int { return s.childCount }

// Remaining はまだ起動していないコマンド数の目安を返す。
func (s *State) Remaining() int { return s.source.Remaining() }

// Command は実行中（または最後に実行した）コマンドを返す。
func (s *State) Command() string { return s.command }

// ExitStatus は最後の子プロセスの wait status を返す。EOF 後のみ意味を持つ。
func (s *State) ExitStatus() syscall.WaitStatus { return s.exitStatus }

// EventLog はログの蓄積先を返す。
func (s *State) EventLog() *EventLog { return s.log }

// Fd は子プロセス出力の読み取り fd を返す。実行中でなければ -1。
// 外部のイベントループに登録する場合に使う。
func (s *State) Fd() int {
	if s.proc == nil {
		return -1
	}
	return s.proc.out
}

// Cancel は実行中のプロセスグループへ SIGTERM を送る。どのゴルーチンから呼んでもよい。
// 強制 kill はしない。
func (s *State) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil || s.reaping {
		return ErrNotRunning
	}
	s.cancelRequested = true
	s.logger.Info("cancelling event", "pid", s.proc.pid)
	if err := unix.Kill(-s.proc.pid, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("runevent: failed to signal process group %d: %w", s.proc.pid, err)
	}
	return nil
}

func (s *State) isCancelRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelRequested
}
