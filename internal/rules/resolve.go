package rules

// Command は解決済みのコマンド。WorkDir は常に問題ディレクトリ。
type Command struct {
	Line    string
	WorkDir string
}

// Resolve は dir と event に対するコマンドを現時点の要素で一括して決める。
// 実行中に要素が変わることは考慮しないので、表示用に使う。
func (s *Set) Resolve(dir, event string) ([]Command, error) {
	q := s.Queue(dir, event)
	var cmds []Command
	for {
		line, ok, err := q.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return cmds, nil
		}
		cmds = append(cmds, Command{Line: line, WorkDir: dir})
	}
}

// ListEvents は prefix で始まり、dir の内容で条件を満たすイベント名をファイル順に重複なく返す。
func (s *Set) ListEvents(dir, prefix string) ([]string, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	el := newElements(dir, s.logger)
	seen := make(map[string]bool)
	var events []string
	for i := range s.rules {
		name, ok := s.rules[i].matches(prefix, true, el)
		if !ok || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		events = append(events, name)
	}
	return events, nil
}

// Events は dir に関係なく、定義されている全イベント名をファイル順に返す。
func (s *Set) Events() []string {
	seen := make(map[string]bool)
	var events []string
	for i := range s.rules {
		name := s.rules[i].Event()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		events = append(events, name)
	}
	return events
}
