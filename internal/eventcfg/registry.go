package eventcfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Registry はロード済みのイベント定義を管理する。
type Registry struct {
	defs map[string]*EventDef
}

// NewRegistry は空の Registry を返す。
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*EventDef)}
}

// LoadDir は dir 以下の *.yaml を読み込み、同じディレクトリの <name>.env で値を上書きする。
// ディレクトリが存在しなくてもエラーにはしない。
func (r *Registry) LoadDir(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !(strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")) {
			return nil
		}
		if loadErr := r.loadFile(path); loadErr != nil {
			return fmt.Errorf("eventcfg: load %s: %w", path, loadErr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.LoadValues(dir)
}

func (r *Registry) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var def EventDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if def.Name == "" {
		return errors.New("event definition missing 'name' field")
	}
	for i := range def.Options {
		if def.Options[i].Type == "" {
			def.Options[i].Type = OptionText
		}
		def.Options[i].Value = def.Options[i].Default
	}
	r.defs[def.Name] = &def
	return nil
}

// LoadValues は dir/<event>.env を読み、定義済みイベントの値を上書きする。
// 定義にないキーは無視する。ファイルがないイベントはそのまま。
func (r *Registry) LoadValues(dir string) error {
	for name, def := range r.defs {
		path := filepath.Join(dir, name+".env")
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("eventcfg: failed to read %s: %w", path, err)
		}
		for key, value := range values {
			if opt, ok := def.Option(key); ok {
				opt.Value = value
			}
		}
	}
	return nil
}

// SaveValues は event の現在の値を dir/<event>.env に書き出す。
func (r *Registry) SaveValues(dir, event string) error {
	def, ok := r.defs[event]
	if !ok {
		return fmt.Errorf("eventcfg: unknown event %q", event)
	}
	values := make(map[string]string)
	for _, opt := range def.Options {
		if opt.Type == OptionHint {
			continue
		}
		values[opt.Name] = opt.Value
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("eventcfg: failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, event+".env")
	if err := godotenv.Write(values, path); err != nil {
		return fmt.Errorf("eventcfg: failed to write %s: %w", path, err)
	}
	// パスワードを含みうる
	return os.Chmod(path, 0o600)
}

// Register はプログラム的に EventDef を登録する（テスト・組み込みイベント向け）。
func (r *Registry) Register(def *EventDef) {
	r.defs[def.Name] = def
}

// Get はイベント定義を返す。
func (r *Registry) Get(name string) (*EventDef, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// All は登録済みの全 EventDef を名前順で返す。
func (r *Registry) All() []*EventDef {
	result := make([]*EventDef, 0, len(r.defs))
	for _, d := range r.defs {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Set は設定値を変更する。
func (r *Registry) Set(event, option, value string) error {
	def, ok := r.defs[event]
	if !ok {
		return fmt.Errorf("eventcfg: unknown event %q", event)
	}
	opt, ok := def.Option(option)
	if !ok {
		return fmt.Errorf("eventcfg: event %q has no option %q", event, option)
	}
	opt.Value = value
	return nil
}

// Export は値を持つ設定を "NAME=VALUE" の形で返す。未定義のイベントは何も返さない。
// runevent.Exporter を満たす。
func (r *Registry) Export(event string) ([]string, error) {
	def, ok := r.defs[event]
	if !ok {
		return nil, nil
	}
	var env []string
	for _, opt := range def.Options {
		if opt.Type == OptionHint || opt.Value == "" {
			continue
		}
		env = append(env, opt.Name+"="+opt.Value)
	}
	return env, nil
}
