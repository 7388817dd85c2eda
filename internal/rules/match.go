package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// elements は問題ディレクトリの要素を遅延読み込みする。
// キャッシュは1回の評価の間だけ有効（前のコマンドが要素を書き換えるため）。
type elements struct {
	dir    string
	cache  map[string]string
	logger *slog.Logger
}

func newElements(dir string, logger *slog.Logger) *elements {
	return &elements{dir: dir, cache: make(map[string]string), logger: logger}
}

// get は要素の値を返す。存在しない・読めない要素は空文字列。
func (e *elements) get(name string) string {
	if v, ok := e.cache[name]; ok {
		return v
	}
	v := ""
	if validElementName(name) {
		data, err := os.ReadFile(filepath.Join(e.dir, name))
		switch {
		case err == nil:
			v = normalizeElement(string(data))
		case !errors.Is(err, fs.ErrNotExist):
			e.logger.Debug("cannot read element", "name", name, "err", err)
		}
	}
	e.cache[name] = v
	return v
}

func validElementName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsRune(name, '/')
}

// normalizeElement は1行だけの値の末尾改行を取り除く（"echo x >file" で作った要素）。
func normalizeElement(v string) string {
	if strings.Count(v, "\n") == 1 && strings.HasSuffix(v, "\n") {
		return strings.TrimSuffix(v, "\n")
	}
	return v
}

// matches はルールが event（prefix なら前方一致）と問題ディレクトリに合うかを判定する。
// 合う場合は EVENT= の値を返す。
func (r *Rule) matches(event string, prefix bool, el *elements) (string, bool) {
	name := ""
	hasEvent := false
	for i := range r.Conditions {
		c := &r.Conditions[i]
		if c.Name == "EVENT" && c.Op == OpEqual {
			hasEvent = true
			name = c.Value
			if prefix {
				if !strings.HasPrefix(c.Value, event) {
					return "", false
				}
			} else if c.Value != event {
				return "", false
			}
			continue
		}
		if el == nil {
			continue
		}
		if !c.matchValue(el.get(c.Name)) {
			return "", false
		}
	}
	if !hasEvent {
		return "", false
	}
	return name, true
}

func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("rules: problem directory: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("rules: %s is not a directory", dir)
	}
	return nil
}
