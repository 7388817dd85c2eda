// Package rules は report_event.conf 形式のルールファイルを読み、
// イベント名と問題ディレクトリの内容からシェルコマンドを決める。
//
// 1つのルールは EVENT= で始まる行と、それに続く行（次の #, EVENT, include まで）からなる:
//
//	EVENT=post-create analyzer=CCpp
//	        abrt-action-analyze-c
//
// 先頭の VAR=VAL / VAR!=VAL / VAR~=REGEX が条件、残りがコマンド。
package rules

import (
	"log/slog"
	"regexp"
	"strings"
)

// Op は条件の比較方法。
type Op int

const (
	OpEqual    Op = iota // VAR=VAL
	OpNotEqual           // VAR!=VAL
	OpMatch              // VAR~=REGEX（値のいずれかの行にマッチ）
)

// Condition はルールの条件1つ。
type Condition struct {
	Name  string
	Op    Op
	Value string
	re    *regexp.Regexp
}

// Rule は条件の組とコマンド。
type Rule struct {
	Conditions []Condition
	Command    string
	Source     string // 定義されていたファイル
}

// Event は EVENT= 条件の値を返す。なければ空文字列。
func (r *Rule) Event() string {
	for _, c := range r.Conditions {
		if c.Name == "EVENT" && c.Op == OpEqual {
			return c.Value
		}
	}
	return ""
}

// parseCondition は "VAR=VAL" 形式の単語を解析する。
func parseCondition(word string, logger *slog.Logger) Condition {
	eq := strings.IndexByte(word, '=')
	c := Condition{Name: word[:eq], Value: word[eq+1:]}
	if eq > 0 {
		switch word[eq-1] {
		case '!':
			c.Op = OpNotEqual
			c.Name = word[:eq-1]
		case '~':
			c.Op = OpMatch
			c.Name = word[:eq-1]
			re, err := regexp.Compile(c.Value)
			if err != nil {
				// 壊れた正規表現は何にもマッチしない
				logger.Warn("invalid regular expression in rule", "condition", word, "err", err)
			}
			c.re = re
		}
	}
	return c
}

// parseRule はルール全体のテキストを条件とコマンドに分ける。
// '=' を含まない最初の単語からがコマンド。条件は行をまたがない。
func parseRule(text, source string, logger *slog.Logger) Rule {
	p := strings.TrimLeft(text, " \t\r\n\v\f")
	r := Rule{Source: source}
	for p != "" {
		end := strings.IndexAny(p, " \t\r\n\v\f")
		if end < 0 {
			end = len(p)
		}
		word := p[:end]
		if word == "" || !strings.Contains(word, "=") {
			break
		}
		r.Conditions = append(r.Conditions, parseCondition(word, logger))
		p = strings.TrimLeft(p[end:], " \t")
	}
	r.Command = strings.TrimSpace(p)
	return r
}

// matchValue は1つの条件を要素の値と比べる。
func (c *Condition) matchValue(value string) bool {
	switch c.Op {
	case OpNotEqual:
		return value != c.Value
	case OpMatch:
		if c.re == nil {
			return false
		}
		for _, line := range strings.Split(value, "\n") {
			if c.re.MatchString(line) {
				return true
			}
		}
		return false
	default:
		return value == c.Value
	}
}
