package eventcfg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// OptionError は設定値の検証エラー。
type OptionError struct {
	Event  string
	Option string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("eventcfg: %s: %s: %s", e.Event, e.Option, e.Reason)
}

// Validate は event の全設定値を検証し、見つかった問題をまとめて返す。
// 未定義のイベントは検証するものがないので nil。
func (r *Registry) Validate(event string) error {
	def, ok := r.defs[event]
	if !ok {
		return nil
	}
	var errs []error
	for _, opt := range def.Options {
		if reason := checkOption(opt); reason != "" {
			errs = append(errs, &OptionError{Event: event, Option: opt.Name, Reason: reason})
		}
	}
	return errors.Join(errs...)
}

func checkOption(opt Option) string {
	if opt.Type == OptionHint {
		return ""
	}
	if !utf8.ValidString(opt.Value) {
		return "value is not valid UTF-8"
	}
	if opt.Value == "" {
		if opt.AllowEmpty || opt.Type == OptionBool {
			return ""
		}
		return "missing mandatory value"
	}
	switch opt.Type {
	case OptionNumber:
		if _, err := strconv.ParseInt(opt.Value, 10, 64); err != nil {
			return fmt.Sprintf("%q is not a number", opt.Value)
		}
	case OptionBool:
		if _, ok := ParseBool(opt.Value); !ok {
			return fmt.Sprintf("%q is not a boolean", opt.Value)
		}
	}
	return ""
}

// ParseBool は yes/no, on/off, true/false, 1/0 を解釈する。
func ParseBool(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on", "true", "1":
		return true, true
	case "no", "off", "false", "0":
		return false, true
	}
	return false, false
}
