package runevent

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogState は次に書く行のマーカーを決める。改行の境界でのみ遷移する。
type LogState int

const (
	LogFirstLine LogState = iota // コマンド出力の最初の行: '>'
	LogBeginLine                 // 通常の行頭: ' '
	LogErrorLine                 // エラー行: '*'
	LogMidLine                   // 行の途中: マーカーなし
)

// Marker は行頭に付ける1文字を返す。MidLine では 0。
func (s LogState) Marker() byte {
	switch s {
	case LogFirstLine:
		return '>'
	case LogBeginLine:
		return ' '
	case LogErrorLine:
		return '*'
	}
	return 0
}

const (
	// EventLogFile は問題ディレクトリ内のログファイル名。
	EventLogFile = "event_log"

	DefaultHighWatermark = 30 * 1024
	DefaultLowWatermark  = 20 * 1024

	timestampLayout = "2006-01-02-15:04:05"
)

// EventLog は1回のイベント実行中の出力を溜め、event_log へ書き出す。
type EventLog struct {
	buf   bytes.Buffer
	state LogState
	high  int
	low   int
	now   func() time.Time
}

// NewEventLog は EventLog を作成する。0 以下のウォーターマークは既定値になる。
func NewEventLog(high, low int) *EventLog {
	if high <= 0 {
		high = DefaultHighWatermark
	}
	if low <= 0 || low > high {
		low = min(DefaultLowWatermark, high)
	}
	return &EventLog{high: high, low: low, now: time.Now}
}

// SetClock はタイムスタンプの時刻源を差し替える。
func (l *EventLog) SetClock(now func() time.Time) {
	l.now = now
}

// State は現在のマーカー状態を返す。
func (l *EventLog) State() LogState { return l.state }

// SetState はマーカー状態を設定する。行の途中では次の改行まで効かない。
func (l *EventLog) SetState(s LogState) {
	if l.state == LogMidLine {
		return
	}
	l.state = s
}

// Len はバッファの長さを返す。
func (l *EventLog) Len() int { return l.buf.Len() }

// String はバッファの内容を返す。
func (l *EventLog) String() string { return l.buf.String() }

// Append はテキストを行単位でバッファに追加する。
// 行頭にはタイムスタンプとマーカーを付ける。行頭の空行は捨てる。
func (l *EventLog) Append(text string) {
	for text != "" {
		chunk := text
		newline := false
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			chunk = text[:i+1]
			newline = true
		}
		text = text[len(chunk):]

		if l.state != LogMidLine {
			if chunk == "\n" {
				continue
			}
			l.buf.WriteString(l.now().Format(timestampLayout))
			l.buf.WriteByte(l.state.Marker())
			l.buf.WriteByte(' ')
		}
		l.buf.WriteString(chunk)

		l.state = LogMidLine
		if newline {
			l.state = LogBeginLine
		}
	}
}

// EnsureNewline は行の途中なら改行を追加する。
func (l *EventLog) EnsureNewline() {
	if l.state == LogMidLine {
		l.Append("\n")
	}
}

// Reset はバッファを捨ててマーカーを FirstLine に戻す。
func (l *EventLog) Reset() {
	l.buf.Reset()
	l.state = LogFirstLine
}

// Flush はバッファを dir/event_log に追記し、成功したらバッファを空にする。
// 結果が高ウォーターマークを超えたら先頭を低ウォーターマークまで行単位で削る。
// 書き込みは一時ファイル + rename で行う。失敗時はバッファを保持する。
func (l *EventLog) Flush(dir string) error {
	if l.buf.Len() == 0 {
		return nil
	}
	l.EnsureNewline()

	path := filepath.Join(dir, EventLogFile)
	old, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &LogFlushError{Path: path, Err: err}
	}

	data := make([]byte, 0, len(old)+l.buf.Len()+1)
	data = append(data, old...)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	data = append(data, l.buf.Bytes()...)
	data = TrimLog(data, l.high, l.low)

	if err := writeFileAtomic(path, data, 0o640); err != nil {
		return &LogFlushError{Path: path, Err: err}
	}
	l.buf.Reset()
	return nil
}

// TrimLog は data が high を超えていれば、末尾 low バイトの位置から
// 次の改行の直後までを先頭として切り出す。改行が無ければ空になる。
func TrimLog(data []byte, high, low int) []byte {
	if len(data) <= high {
		return data
	}
	start := len(data) - low
	i := bytes.IndexByte(data[start:], '\n')
	if i < 0 {
		return data[len(data):]
	}
	return data[start+i+1:]
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(name, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
