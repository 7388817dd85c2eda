// Package workflow は複数イベントをまとめたワークフローを管理し、順に実行する。
//
// ワークフローは YAML で定義する:
//
//	name: workflow_RHELCCpp
//	screen_name: Report to Red Hat Customer Portal
//	description: Process the C/C++ crash using the Red Hat infrastructure
//	priority: 100
//	events:
//	  - collect_*
//	  - analyze_CCpp
//	  - report_RHTSupport
package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Workflow はイベントの並び。
type Workflow struct {
	Name        string   `yaml:"name"`
	ScreenName  string   `yaml:"screen_name"`
	Description string   `yaml:"description"`
	Priority    int      `yaml:"priority"`
	Events      []string `yaml:"events"`
}

// Title は画面表示用の名前を返す。
func (w *Workflow) Title() string {
	if w.ScreenName != "" {
		return w.ScreenName
	}
	return w.Name
}

// Registry はロード済みワークフローを管理する。
type Registry struct {
	workflows map[string]*Workflow
}

// NewRegistry は空の Registry を返す。
func NewRegistry() *Registry {
	return &Registry{workflows: make(map[string]*Workflow)}
}

// LoadDir は dir 以下の *.yaml をロードする。
// ディレクトリが存在しなくてもエラーにはしない。
func (r *Registry) LoadDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !(strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")) {
			return nil
		}
		wf, loadErr := parseFile(path)
		if loadErr != nil {
			return fmt.Errorf("workflow: load %s: %w", path, loadErr)
		}
		r.workflows[wf.Name] = wf
		return nil
	})
}

func parseFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if wf.Name == "" {
		return nil, errors.New("workflow definition missing 'name' field")
	}
	if len(wf.Events) == 0 {
		return nil, fmt.Errorf("workflow %q has no events", wf.Name)
	}
	return &wf, nil
}

// Register はプログラム的に Workflow を登録する。
func (r *Registry) Register(wf *Workflow) {
	r.workflows[wf.Name] = wf
}

// Get は名前でワークフローを返す。
func (r *Registry) Get(name string) (*Workflow, bool) {
	wf, ok := r.workflows[name]
	return wf, ok
}

// All は優先度の高い順（同じなら名前順）で全ワークフローを返す。
func (r *Registry) All() []*Workflow {
	result := make([]*Workflow, 0, len(r.workflows))
	for _, wf := range r.workflows {
		result = append(result, wf)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].Name < result[j].Name
	})
	return result
}
