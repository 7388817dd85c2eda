package rules

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// maxIncludeDepth を超える include は無視する（循環 include 対策）。
const maxIncludeDepth = 32

// Set はロード済みのルール一覧。ファイル内の順序を保つ。
type Set struct {
	rules  []Rule
	logger *slog.Logger
}

// Load はルールファイルを読み込む。include されたファイルが読めない場合は警告のみ。
// 最上位のファイルが存在しなければ fs.ErrNotExist を包んだエラーを返す。
func Load(path string, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Set{logger: logger}
	if err := s.loadFile(path, 0); err != nil {
		return nil, err
	}
	logger.Debug("loaded rules", "path", path, "rules", len(s.rules))
	return s, nil
}

// Parse はテキストからルールを読み込む。include は dir からの相対パスで解決する。
func Parse(text, dir string, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Set{logger: logger}
	s.parse(splitLines(text), "<inline>", dir, 0)
	return s
}

// NewSet はルールから Set を作る。
func NewSet(rules []Rule, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	return &Set{rules: append([]Rule(nil), rules...), logger: logger}
}

// Rules はルールのコピーを返す。
func (s *Set) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Len はルール数を返す。
func (s *Set) Len() int { return len(s.rules) }

func (s *Set) loadFile(path string, depth int) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("rules: %s: %w", path, os.ErrNotExist)
		}
		return fmt.Errorf("rules: failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("rules: failed to read %s: %w", path, err)
	}

	s.parse(lines, path, filepath.Dir(path), depth)
	return nil
}

func (s *Set) parse(lines []string, source, dir string, depth int) {
	for i := 0; i < len(lines); i++ {
		line := strings.TrimLeft(lines[i], " \t")
		switch {
		case line == "" || line[0] == '#':
			continue
		case strings.HasPrefix(line, "include") && len(line) > len("include") && isBlank(line[len("include")]):
			s.include(strings.TrimSpace(line[len("include"):]), dir, depth)
		case strings.HasPrefix(line, "EVENT"):
			text := line
			for i+1 < len(lines) && !endsRule(lines[i+1]) {
				i++
				text += "\n" + lines[i]
			}
			s.rules = append(s.rules, parseRule(text, source, s.logger))
		default:
			s.logger.Debug("ignoring rule line", "source", source, "line", line)
		}
	}
}

// endsRule は継続行ではなく次の要素の始まりなら true。
func endsRule(line string) bool {
	line = strings.TrimLeft(line, " \t")
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "EVENT") ||
		strings.HasPrefix(line, "include")
}

func (s *Set) include(pattern, dir string, depth int) {
	if depth+1 >= maxIncludeDepth {
		s.logger.Warn("include nested too deeply", "pattern", pattern, "depth", depth+1)
		return
	}
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(dir, pattern)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		s.logger.Warn("bad include pattern", "pattern", pattern, "err", err)
		return
	}
	for _, m := range matches {
		if err := s.loadFile(m, depth+1); err != nil {
			s.logger.Warn("failed to include rules", "path", m, "err", err)
		}
	}
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
