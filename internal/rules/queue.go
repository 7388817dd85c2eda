package rules

import "log/slog"

// Queue は1イベント分のコマンドを spawn の直前に1つずつ決める。
// 毎回先頭の残りルールから条件を評価し直し、発火したルールは取り除く。
// runevent.CommandSource を満たす。
type Queue struct {
	rules  []Rule
	dir    string
	event  string
	logger *slog.Logger
}

// Queue は dir と event に対するコマンドキューを作る。
func (s *Set) Queue(dir, event string) *Queue {
	var candidates []Rule
	for i := range s.rules {
		// 要素の条件は後で評価する。ここではイベント名だけで絞る。
		if _, ok := s.rules[i].matches(event, false, nil); ok {
			candidates = append(candidates, s.rules[i])
		}
	}
	return &Queue{rules: candidates, dir: dir, event: event, logger: s.logger}
}

// Next は条件を満たす最初のルールのコマンドを返す。
func (q *Queue) Next() (string, bool, error) {
	if len(q.rules) == 0 {
		return "", false, nil
	}
	if err := checkDir(q.dir); err != nil {
		return "", false, err
	}
	el := newElements(q.dir, q.logger)
	for i := range q.rules {
		if _, ok := q.rules[i].matches(q.event, false, el); !ok {
			continue
		}
		cmd := q.rules[i].Command
		q.rules = append(q.rules[:i:i], q.rules[i+1:]...)
		if cmd == "" {
			// コマンドのないルールは何もしない
			return q.Next()
		}
		q.logger.Debug("selected rule", "event", q.event, "command", cmd)
		return cmd, true, nil
	}
	q.rules = nil
	return "", false, nil
}

// Remaining はまだ発火していない候補ルールの数を返す。
func (q *Queue) Remaining() int { return len(q.rules) }

// Clear は残りのルールを捨てる。
func (q *Queue) Clear() { q.rules = nil }
