package runevent

// Answer は記憶可能な yes/no 質問への回答。
type Answer int

const (
	AnswerNo         Answer = iota
	AnswerYes               // 今回だけ yes
	AnswerYesForever        // yes を記憶する
	AnswerNoForever         // no を記憶する（SAVE_RESULT のみ）
)

// Yes は回答が yes 系なら true を返す。
func (a Answer) Yes() bool {
	return a == AnswerYes || a == AnswerYesForever
}

// Interaction は埋め込み側（CLI / TUI）が実装するコールバック群。
// すべてイベントループのスレッドから同期的に呼ばれ、ASK 系は回答を返すまでブロックしてよい。
type Interaction interface {
	Log(line string)
	Error(line string)
	Alert(msg string)
	Ask(msg string) string
	AskYesNo(msg string) bool
	// AskYesNoRemembered は ASK_YES_NO_YESFOREVER と ASK_YES_NO_SAVE_RESULT に使われる。
	// saveResult が true なら AnswerNoForever も意味を持つ。
	AskYesNoRemembered(key, msg string, saveResult bool) Answer
	AskPassword(msg string) string
}

// DecisionStore は記憶した yes/no の回答を保持する。
type DecisionStore interface {
	Decision(key string) (yes bool, ok bool)
	Remember(key string, yes bool) error
}

// Callbacks は関数フィールドで Interaction を満たす。nil のフィールドは既定の動作になる
// （ログは捨てる、質問には空文字列か no を返す）。
type Callbacks struct {
	OnLog                func(line string)
	OnError              func(line string)
	OnAlert              func(msg string)
	OnAsk                func(msg string) string
	OnAskYesNo           func(msg string) bool
	OnAskYesNoRemembered func(key, msg string, saveResult bool) Answer
	OnAskPassword        func(msg string) string
}

func (c Callbacks) Log(line string) {
	if c.OnLog != nil {
		c.OnLog(line)
	}
}

func (c Callbacks) Error(line string) {
	if c.OnError != nil {
		c.OnError(line)
	}
}

func (c Callbacks) Alert(msg string) {
	if c.OnAlert != nil {
		c.OnAlert(msg)
	}
}

func (c Callbacks) Ask(msg string) string {
	if c.OnAsk != nil {
		return c.OnAsk(msg)
	}
	return ""
}

func (c Callbacks) AskYesNo(msg string) bool {
	if c.OnAskYesNo != nil {
		return c.OnAskYesNo(msg)
	}
	return false
}

func (c Callbacks) AskYesNoRemembered(key, msg string, saveResult bool) Answer {
	if c.OnAskYesNoRemembered != nil {
		return c.OnAskYesNoRemembered(key, msg, saveResult)
	}
	if c.AskYesNo(msg) {
		return AnswerYes
	}
	return AnswerNo
}

func (c Callbacks) AskPassword(msg string) string {
	if c.OnAskPassword != nil {
		return c.OnAskPassword(msg)
	}
	return ""
}
