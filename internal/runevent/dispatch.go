package runevent

import (
	"io"
	"strings"
)

const passwordMask = "********"

// handleLine は1行を分類してコールバックへ渡す。ASK 系は回答を子の stdin へ書き戻す。
func (s *State) handleLine(line string) {
	pr := ParseLine(line)
	switch pr.Kind {
	case KindAlert:
		s.log.Append(pr.Payload + "\n")
		s.ui.Alert(pr.Payload)
	case KindAsk:
		answer := s.ui.Ask(pr.Payload)
		s.logExchange(pr.Payload, answer)
		s.reply(answer)
	case KindAskPassword:
		answer := s.ui.AskPassword(pr.Payload)
		s.logExchange(pr.Payload, passwordMask)
		s.reply(answer)
	case KindAskYesNo:
		answer := yesNo(s.ui.AskYesNo(pr.Payload))
		s.logExchange(pr.Payload, answer)
		s.reply(answer)
	case KindAskYesNoYesForever, KindAskYesNoSaveResult:
		answer := yesNo(s.askRemembered(pr))
		s.logExchange(pr.Payload, answer)
		s.reply(answer)
	default:
		s.log.Append(line + "\n")
		s.ui.Log(line)
	}
}

// askRemembered は記憶済みの回答があればそれを使い、なければ質問して必要なら記憶する。
// YESFOREVER は yes だけ、SAVE_RESULT は yes と no の両方を記憶する。
func (s *State) askRemembered(pr Prompt) bool {
	saveResult := pr.Kind == KindAskYesNoSaveResult
	if s.decisions != nil {
		if yes, ok := s.decisions.Decision(pr.Key); ok {
			if yes {
				return true
			}
			if saveResult {
				return false
			}
		}
	}

	answer := s.ui.AskYesNoRemembered(pr.Key, pr.Payload, saveResult)
	remember := answer == AnswerYesForever || (saveResult && answer == AnswerNoForever)
	if remember && s.decisions != nil {
		if err := s.decisions.Remember(pr.Key, answer.Yes()); err != nil {
			s.logger.Warn("failed to remember decision", "key", pr.Key, "err", err)
		}
	}
	return answer.Yes()
}

func (s *State) logExchange(question, answer string) {
	s.log.Append(question + " '" + answer + "'\n")
}

// reply は回答を1行として子の stdin へ書く。空の回答でも改行は必ず送る。
func (s *State) reply(answer string) {
	answer = strings.TrimRight(answer, "\r\n")
	answer = strings.ReplaceAll(answer, "\n", " ")
	if s.proc == nil {
		return
	}
	if _, err := io.WriteString(s.proc.in, answer+"\n"); err != nil {
		s.logger.Warn("failed to write reply to command", "err", err)
		s.log.SetState(LogErrorLine)
		s.log.Append("<WRITE ERROR>\n")
		s.ui.Error("<WRITE ERROR>")
	}
}
