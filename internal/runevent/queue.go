package runevent

// Queue は固定のコマンド列。先頭から順に取り出される。
type Queue struct {
	cmds []string
}

// NewQueue は cmds をこの順に実行する Queue を作成する。
func NewQueue(cmds ...string) *Queue {
	return &Queue{cmds: append([]string(nil), cmds...)}
}

func (q *Queue) Next() (string, bool, error) {
	if len(q.cmds) == 0 {
		return "", false, nil
	}
	cmd := q.cmds[0]
	q.cmds = q.cmds[1:]
	return cmd, true, nil
}

func (q *Queue) Remaining() int { return len(q.cmds) }

func (q *Queue) Clear() { q.cmds = nil }
