// Package settings は記憶した yes/no の回答を TOML ファイルに永続化する。
//
//	# reportwiz decisions
//	ask_send_data = "yes"
//	keep_backtrace = "no"
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

const (
	yes = "yes"
	no  = "no"
)

// Store は回答の読み書きを管理する。runevent.DecisionStore を満たす。
type Store struct {
	path string

	mu        sync.Mutex
	decisions map[string]string
}

// Open は path のファイルを読み込んだ Store を返す。ファイルがなければ空。
// ディレクトリは Remember 時に自動作成する。
func Open(path string) (*Store, error) {
	s := &Store{path: path, decisions: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("settings: failed to read %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &s.decisions); err != nil {
		return nil, fmt.Errorf("settings: failed to parse %s: %w", path, err)
	}
	return s, nil
}

// Path はファイルパスを返す。
func (s *Store) Path() string { return s.path }

// Decision は key の記憶済み回答を返す。yes/no 以外の値は記憶なし扱い。
func (s *Store) Decision(key string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.decisions[key] {
	case yes:
		return true, true
	case no:
		return false, true
	}
	return false, false
}

// Remember は回答を記憶してファイルへ書き出す。
func (s *Store) Remember(key string, answer bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := no
	if answer {
		v = yes
	}
	s.decisions[key] = v
	return s.save()
}

// Forget は記憶を削除する。
func (s *Store) Forget(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decisions[key]; !ok {
		return nil
	}
	delete(s.decisions, key)
	return s.save()
}

// All は記憶済みの回答のコピーを返す。
func (s *Store) All() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.decisions))
	for k, v := range s.decisions {
		if v == yes || v == no {
			out[k] = v == yes
		}
	}
	return out
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("settings: mkdir: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("# reportwiz decisions\n")
	if err := toml.NewEncoder(&buf).Encode(s.decisions); err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("settings: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("settings: rename: %w", err)
	}
	return nil
}
