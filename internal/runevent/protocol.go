package runevent

import "strings"

// Kind は子プロセスが出力した1行の種別。
type Kind int

const (
	KindLog Kind = iota
	// KindError は行の種別としては予約のみ。stdout と stderr は同じパイプに合流するので
	// ParseLine が返すことはない。起動失敗などコア自身のエラーは Interaction.Error で通知される。
	KindError
	KindAlert
	KindAsk
	KindAskYesNo
	KindAskYesNoYesForever
	KindAskYesNoSaveResult
	KindAskPassword
)

var kindNames = map[Kind]string{
	KindLog:                "LOG",
	KindError:              "ERROR",
	KindAlert:              "ALERT",
	KindAsk:                "ASK",
	KindAskYesNo:           "ASK_YES_NO",
	KindAskYesNoYesForever: "ASK_YES_NO_YESFOREVER",
	KindAskYesNoSaveResult: "ASK_YES_NO_SAVE_RESULT",
	KindAskPassword:        "ASK_PASSWORD",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Prompt は対話サブプロトコルの1行。保存されず、その場でコールバックへ渡される。
type Prompt struct {
	Kind    Kind
	Payload string
	Key     string // YESFOREVER / SAVE_RESULT のみ。記憶した回答のキー
}

// ExpectsReply は子プロセスの stdin へ応答を書き戻す種別なら true を返す。
func (p Prompt) ExpectsReply() bool {
	switch p.Kind {
	case KindAsk, KindAskYesNo, KindAskYesNoYesForever, KindAskYesNoSaveResult, KindAskPassword:
		return true
	}
	return false
}

// 判定順。長いプレフィックスを先に見る。
var prefixes = []struct {
	marker string
	kind   Kind
}{
	{"ASK_PASSWORD", KindAskPassword},
	{"ASK_YES_NO_YESFOREVER", KindAskYesNoYesForever},
	{"ASK_YES_NO_SAVE_RESULT", KindAskYesNoSaveResult},
	{"ASK_YES_NO", KindAskYesNo},
	{"ASK", KindAsk},
	{"ALERT", KindAlert},
}

// ParseLine は1行を分類する。
// マーカーの直後はスペースかコロンでなければならない（"ASKING" はただのログ）。
// キー付きの形式でキーが無い場合は通常の ASK_YES_NO として扱う。
func ParseLine(line string) Prompt {
	for _, p := range prefixes {
		rest, ok := cutMarker(line, p.marker)
		if !ok {
			continue
		}
		pr := Prompt{Kind: p.kind, Payload: rest}
		if p.kind == KindAskYesNoYesForever || p.kind == KindAskYesNoSaveResult {
			key, msg, found := strings.Cut(rest, " ")
			if found && key != "" {
				pr.Key = key
				pr.Payload = msg
			} else {
				pr.Kind = KindAskYesNo
			}
		}
		return pr
	}
	return Prompt{Kind: KindLog, Payload: line}
}

func cutMarker(line, marker string) (string, bool) {
	if len(line) <= len(marker) || !strings.HasPrefix(line, marker) {
		return "", false
	}
	switch line[len(marker)] {
	case ' ', ':':
		return line[len(marker)+1:], true
	}
	return "", false
}

// 応答文字列
const (
	ReplyYes = "yes"
	ReplyNo  = "no"
)

func yesNo(b bool) string {
	if b {
		return ReplyYes
	}
	return ReplyNo
}
