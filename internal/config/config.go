package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// 既定値
const (
	DefaultRulesFile     = "/etc/libreport/report_event.conf"
	DefaultEventsDir     = "/etc/libreport/events"
	DefaultWorkflowsDir  = "/etc/libreport/workflows"
	DefaultShell         = "/bin/sh"
	DefaultHighWatermark = 30 * 1024
	DefaultLowWatermark  = 20 * 1024
)

// EventLogConfig は event_log のサイズ制限
type EventLogConfig struct {
	HighWatermark int `yaml:"high_watermark"`
	LowWatermark  int `yaml:"low_watermark"`
}

// AppConfig は config.yaml の統合設定構造
type AppConfig struct {
	RulesFile      string         `yaml:"rules_file"`
	EventsDir      string         `yaml:"events_dir"`
	UserEventsDir  string         `yaml:"user_events_dir"`
	WorkflowsDir   string         `yaml:"workflows_dir"`
	DecisionsFile  string         `yaml:"decisions_file"`
	Shell          string         `yaml:"shell"`
	EventLog       EventLogConfig `yaml:"event_log"`
	NonInteractive bool           `yaml:"noninteractive"`
}

// applyDefaults はゼロ値のフィールドにデフォルト値を適用する
func (c *AppConfig) applyDefaults() {
	if c.RulesFile == "" {
		c.RulesFile = DefaultRulesFile
	}
	if c.EventsDir == "" {
		c.EventsDir = DefaultEventsDir
	}
	if c.UserEventsDir == "" {
		c.UserEventsDir = filepath.Join(userConfigDir(), "events")
	}
	if c.WorkflowsDir == "" {
		c.WorkflowsDir = DefaultWorkflowsDir
	}
	if c.DecisionsFile == "" {
		c.DecisionsFile = filepath.Join(userConfigDir(), "decisions.toml")
	}
	if c.Shell == "" {
		c.Shell = DefaultShell
	}
	if c.EventLog.HighWatermark == 0 {
		c.EventLog.HighWatermark = DefaultHighWatermark
	}
	if c.EventLog.LowWatermark == 0 {
		c.EventLog.LowWatermark = DefaultLowWatermark
	}
}

// Validate は設定値の整合性を確認する
func (c *AppConfig) Validate() error {
	if c.EventLog.HighWatermark <= 0 || c.EventLog.LowWatermark <= 0 {
		return errors.New("config: event_log watermarks must be positive")
	}
	if c.EventLog.LowWatermark >= c.EventLog.HighWatermark {
		return fmt.Errorf("config: event_log.low_watermark (%d) must be below high_watermark (%d)",
			c.EventLog.LowWatermark, c.EventLog.HighWatermark)
	}
	return nil
}

// Default はデフォルト値だけの AppConfig を返す
func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath は $XDG_CONFIG_HOME/reportwiz/config.yaml を返す
func DefaultPath() string {
	return filepath.Join(userConfigDir(), "config.yaml")
}

// Load は config.yaml を読み込む。
// パス系の値の ${VAR} 環境変数を展開する。
// ファイルが存在しない場合はデフォルトの AppConfig を返す。
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	// 環境変数を展開
	for _, p := range []*string{&cfg.RulesFile, &cfg.EventsDir, &cfg.UserEventsDir, &cfg.WorkflowsDir, &cfg.DecisionsFile, &cfg.Shell} {
		*p = expandEnvString(*p)
	}

	// デフォルト値の適用
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnvString は文字列内の ${VAR} をホスト環境変数で展開する
func expandEnvString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// userConfigDir は $XDG_CONFIG_HOME/reportwiz（未設定なら ~/.config/reportwiz）
func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "reportwiz")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "reportwiz")
	}
	return filepath.Join(".config", "reportwiz")
}
